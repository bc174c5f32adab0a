package pg

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/imgr-dev/imgr/shared/domain"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListThreads(t *testing.T) {
	ctx := context.Background()
	author := createProfile(t, domain.RoleMember)
	// far-future timestamps keep these ahead of rows from other tests
	base := time.Now().Add(24 * time.Hour).UTC()
	oldest := createThread(t, author, "list-oldest", base)
	middle := createThread(t, author, "list-middle", base.Add(time.Minute))
	newest := createThread(t, author, "list-newest", base.Add(2*time.Minute))

	page, err := storage.ListThreads(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, newest, page[0].Id)
	assert.Equal(t, middle, page[1].Id)
	assert.Equal(t, "anon-"+author[:8], page[0].AuthorUsername)
	assert.Equal(t, "", page[0].Caption)

	next, err := storage.ListThreads(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, oldest, next[0].Id)
}

func TestGetThread(t *testing.T) {
	ctx := context.Background()
	author := createProfile(t, domain.RoleMember)
	id := createThread(t, author, "get", time.Now())

	thread, err := storage.GetThread(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "get", thread.Title)
	assert.Equal(t, author, thread.AuthorId)

	_, err = storage.GetThread(ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, internal_errors.IsNotFound(err))

	_, err = storage.GetThread(ctx, "not-a-uuid")
	assert.True(t, internal_errors.IsNotFound(err))
}

func TestThreadsWithoutProfileAreHidden(t *testing.T) {
	ctx := context.Background()
	orphan := insertWithoutProfile(t, "threads",
		"INSERT INTO threads (title, image_url, user_id, created_at) VALUES ($1, $2, $3, $4) RETURNING id",
		"orphan", "http://img/orphan.jpg", uuid.NewString(), time.Now().Add(72*time.Hour))

	threads, err := storage.ListThreads(ctx, 0, 1000)
	require.NoError(t, err)
	for _, th := range threads {
		assert.NotEqual(t, orphan, th.Id)
	}

	_, err = storage.GetThread(ctx, orphan)
	assert.True(t, internal_errors.IsNotFound(err))
}

func TestInsertThread(t *testing.T) {
	ctx := context.Background()
	author := createProfile(t, domain.RoleMember)
	caption := "a caption"
	data := domain.ThreadCreationData{Title: "inserted", Caption: &caption, ImageUrl: "http://img/x.jpg", AuthorId: author}

	t.Run("anonymous is rejected", func(t *testing.T) {
		_, err := storage.InsertThread(ctx, data)
		assert.Error(t, err)
	})

	t.Run("cannot post as someone else", func(t *testing.T) {
		viewer.as(t, createProfile(t, domain.RoleMember))
		_, err := storage.InsertThread(ctx, data)
		assert.Error(t, err)
	})

	t.Run("owner", func(t *testing.T) {
		viewer.as(t, author)
		thread, err := storage.InsertThread(ctx, data)
		require.NoError(t, err)
		assert.NotEmpty(t, thread.Id)
		assert.Equal(t, "a caption", thread.Caption)
		assert.Equal(t, "anon-"+author[:8], thread.AuthorUsername)
		assert.WithinDuration(t, time.Now(), thread.CreatedAt, time.Minute)
	})
}

func TestDeleteThread(t *testing.T) {
	ctx := context.Background()
	owner := createProfile(t, domain.RoleMember)
	stranger := createProfile(t, domain.RoleMember)
	adminUser := createProfile(t, domain.RoleAdmin)

	t.Run("stranger gets not found", func(t *testing.T) {
		id := createThread(t, owner, "keep", time.Now())
		viewer.as(t, stranger)

		err := storage.DeleteThread(ctx, id)
		assert.True(t, internal_errors.IsNotFound(err))

		_, err = storage.GetThread(ctx, id)
		assert.NoError(t, err, "thread must survive")
	})

	t.Run("owner deletes with comments", func(t *testing.T) {
		id := createThread(t, owner, "gone", time.Now())
		createComment(t, id, stranger, "hello", time.Now())
		viewer.as(t, owner)

		require.NoError(t, storage.DeleteThread(ctx, id))
		_, err := storage.GetThread(ctx, id)
		assert.True(t, internal_errors.IsNotFound(err))
	})

	t.Run("admin deletes any thread", func(t *testing.T) {
		id := createThread(t, owner, "moderated", time.Now())
		viewer.as(t, adminUser)
		assert.NoError(t, storage.DeleteThread(ctx, id))
	})
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	id := createProfile(t, domain.RoleModerator)

	profile, err := storage.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, profile.Role)
	assert.Equal(t, "anon-"+id[:8], profile.Username)

	_, err = storage.GetProfile(ctx, "00000000-0000-0000-0000-000000000001")
	assert.True(t, internal_errors.IsNotFound(err))
}
