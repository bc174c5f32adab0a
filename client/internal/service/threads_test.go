package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/imgr-dev/imgr/shared/config"
	"github.com/imgr-dev/imgr/shared/domain"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
	"github.com/imgr-dev/imgr/shared/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThreads(storage *MockThreadStorage, images *MockImageStorage, identity domain.Identity) *Threads {
	s := NewThreads(storage, images, staticIdentity(identity), validation.New(config.Defaults().Limits))
	s.now = func() time.Time { return time.UnixMilli(1767225600000) }
	return s
}

var member = domain.Identity{UserId: "u1", Role: domain.RoleMember}

func TestPostComment(t *testing.T) {
	t.Run("not logged in", func(t *testing.T) {
		storage := &MockThreadStorage{}
		s := newThreads(storage, &MockImageStorage{}, domain.Identity{})

		_, err := s.PostComment(context.Background(), "t1", "hello")
		var authErr *internal_errors.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "User belum login", authErr.Message)
		assert.Empty(t, storage.InsertedComments)
	})

	t.Run("blank and too long never reach storage", func(t *testing.T) {
		storage := &MockThreadStorage{}
		s := newThreads(storage, &MockImageStorage{}, member)

		_, err := s.PostComment(context.Background(), "t1", "   ")
		assert.True(t, internal_errors.Is[*internal_errors.ValidationError](err))
		_, err = s.PostComment(context.Background(), "t1", strings.Repeat("a", 501))
		assert.True(t, internal_errors.Is[*internal_errors.ValidationError](err))
		assert.Empty(t, storage.InsertedComments)
	})

	t.Run("validation wins over missing login", func(t *testing.T) {
		s := newThreads(&MockThreadStorage{}, &MockImageStorage{}, domain.Identity{})
		_, err := s.PostComment(context.Background(), "t1", "")
		assert.True(t, internal_errors.Is[*internal_errors.ValidationError](err))
	})

	t.Run("content is trimmed and otherwise kept as typed", func(t *testing.T) {
		storage := &MockThreadStorage{}
		s := newThreads(storage, &MockImageStorage{}, member)

		comment, err := s.PostComment(context.Background(), "t1", "  if a<b then c  ")
		require.NoError(t, err)
		assert.Equal(t, "c-new", comment.Id)
		require.Len(t, storage.InsertedComments, 1)
		assert.Equal(t, domain.CommentCreationData{ThreadId: "t1", AuthorId: "u1", Content: "if a<b then c"}, storage.InsertedComments[0])

		_, err = s.PostComment(context.Background(), "t1", "use <img> tag & <i>nice</i>")
		require.NoError(t, err)
		require.Len(t, storage.InsertedComments, 2)
		assert.Equal(t, "use <img> tag & <i>nice</i>", storage.InsertedComments[1].Content)
	})

	t.Run("length is checked on the trimmed text", func(t *testing.T) {
		storage := &MockThreadStorage{}
		s := newThreads(storage, &MockImageStorage{}, member)

		_, err := s.PostComment(context.Background(), "t1", "  "+strings.Repeat("a", 500)+"  ")
		require.NoError(t, err)
		assert.Len(t, storage.InsertedComments, 1)
	})
}

func TestCreateThread(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff, 0xe0}

	t.Run("short title fails before upload", func(t *testing.T) {
		storage := &MockThreadStorage{}
		images := &MockImageStorage{}
		s := newThreads(storage, images, member)

		_, err := s.CreateThread(context.Background(), "ab", "", image)
		var verr *internal_errors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "Judul minimal 3 karakter", verr.Message)
		assert.Empty(t, images.Uploads)
		assert.Empty(t, storage.InsertedThreads)
	})

	t.Run("caption too long", func(t *testing.T) {
		images := &MockImageStorage{}
		s := newThreads(&MockThreadStorage{}, images, member)

		_, err := s.CreateThread(context.Background(), "Title", strings.Repeat("c", 501), image)
		assert.True(t, internal_errors.Is[*internal_errors.ValidationError](err))
		assert.Empty(t, images.Uploads)
	})

	t.Run("missing image", func(t *testing.T) {
		s := newThreads(&MockThreadStorage{}, &MockImageStorage{}, member)
		_, err := s.CreateThread(context.Background(), "Title", "", nil)
		assert.EqualError(t, err, "Gambar wajib dipilih")
	})

	t.Run("not logged in", func(t *testing.T) {
		images := &MockImageStorage{}
		s := newThreads(&MockThreadStorage{}, images, domain.Identity{})

		_, err := s.CreateThread(context.Background(), "Title", "", image)
		assert.True(t, internal_errors.Is[*internal_errors.AuthError](err))
		assert.Empty(t, images.Uploads)
	})

	t.Run("uploads then inserts", func(t *testing.T) {
		storage := &MockThreadStorage{}
		images := &MockImageStorage{}
		s := newThreads(storage, images, member)

		thread, err := s.CreateThread(context.Background(), "  My cat  ", "  ", image)
		require.NoError(t, err)
		assert.Equal(t, "new", thread.Id)

		require.Len(t, images.Uploads, 1)
		assert.Equal(t, "img_u1_1767225600000.jpg", images.Uploads[0].Name)
		assert.Regexp(t, regexp.MustCompile(`^img_u1_\d+\.jpg$`), images.Uploads[0].Name)
		assert.Equal(t, "image/jpeg", images.Uploads[0].ContentType)

		require.Len(t, storage.InsertedThreads, 1)
		inserted := storage.InsertedThreads[0]
		assert.Equal(t, "My cat", inserted.Title)
		assert.Nil(t, inserted.Caption, "blank caption is stored as null")
		assert.Equal(t, "https://cdn.test/img_u1_1767225600000.jpg", inserted.ImageUrl)
	})

	t.Run("title and caption are kept as typed", func(t *testing.T) {
		storage := &MockThreadStorage{}
		s := newThreads(storage, &MockImageStorage{}, member)

		_, err := s.CreateThread(context.Background(), " if a<b then c ", "use <img> tag", image)
		require.NoError(t, err)
		require.Len(t, storage.InsertedThreads, 1)
		inserted := storage.InsertedThreads[0]
		assert.Equal(t, "if a<b then c", inserted.Title)
		require.NotNil(t, inserted.Caption)
		assert.Equal(t, "use <img> tag", *inserted.Caption)
	})

	t.Run("upload failure skips insert", func(t *testing.T) {
		storage := &MockThreadStorage{}
		images := &MockImageStorage{UploadFunc: func(string, []byte) (string, error) {
			return "", &internal_errors.ErrorWithStatusCode{Message: "Duplicate", StatusCode: 409}
		}}
		s := newThreads(storage, images, member)

		_, err := s.CreateThread(context.Background(), "Title", "cap", image)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Failed to upload image")
		assert.Empty(t, storage.InsertedThreads)
	})
}

func TestCountComments_EmptyInput(t *testing.T) {
	storage := &MockThreadStorage{}
	s := newThreads(storage, &MockImageStorage{}, member)

	counts, err := s.CountComments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.Equal(t, 0, storage.CountCalls)
}

func TestDeletePassThrough(t *testing.T) {
	storage := &MockThreadStorage{
		DeleteThreadFunc:  func(id string) error { return internal_errors.NewNotFound("thread %s not found", id) },
		DeleteCommentFunc: func(string) error { return nil },
	}
	s := newThreads(storage, &MockImageStorage{}, member)

	assert.True(t, internal_errors.IsNotFound(s.DeleteThread(context.Background(), "t1")))
	assert.NoError(t, s.DeleteComment(context.Background(), "c1"))
}

func TestReadsPassThrough(t *testing.T) {
	boom := errors.New("boom")
	storage := &MockThreadStorage{
		ListThreadsFunc:  func(offset, limit int) ([]domain.Thread, error) { return []domain.Thread{{Id: "t1"}}, nil },
		GetThreadFunc:    func(string) (domain.Thread, error) { return domain.Thread{}, boom },
		ListCommentsFunc: func(string) ([]domain.Comment, error) { return nil, nil },
	}
	s := newThreads(storage, &MockImageStorage{}, member)

	threads, err := s.ListThreads(context.Background(), 0, 20)
	require.NoError(t, err)
	assert.Len(t, threads, 1)
	_, err = s.GetThread(context.Background(), "t1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, member, s.Identity())
}
