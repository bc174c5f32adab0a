package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/imgr-dev/imgr/shared/api"
	"github.com/imgr-dev/imgr/shared/domain"
)

// ListComments returns a thread's comments, oldest first.
func (c *APIClient) ListComments(ctx context.Context, threadId domain.ThreadId) ([]domain.Comment, error) {
	query := url.Values{}
	query.Set("select", api.CommentColumns)
	query.Set("thread_id", eq(threadId))
	query.Set("order", "created_at.asc")

	var rows []api.CommentRow
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: restPrefix + "/comments", query: query}, &rows); err != nil {
		return nil, err
	}

	comments := make([]domain.Comment, len(rows))
	for i, row := range rows {
		comments[i] = row.ToDomain()
	}
	return comments, nil
}

// CountComments counts comments for all ids in one round trip. Every
// requested id is present in the result, zero when it has no comments.
func (c *APIClient) CountComments(ctx context.Context, threadIds []domain.ThreadId) (map[domain.ThreadId]int, error) {
	counts := make(map[domain.ThreadId]int, len(threadIds))
	if len(threadIds) == 0 {
		return counts, nil
	}
	for _, id := range threadIds {
		counts[id] = 0
	}

	query := url.Values{}
	query.Set("select", "thread_id")
	query.Set("thread_id", in(threadIds))

	var rows []api.CommentThreadRow
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: restPrefix + "/comments", query: query}, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ThreadId]++
	}
	return counts, nil
}

func (c *APIClient) InsertComment(ctx context.Context, data domain.CommentCreationData) (domain.Comment, error) {
	query := url.Values{}
	query.Set("select", api.CommentColumns)

	var row api.CommentRow
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   restPrefix + "/comments",
		query:  query,
		body: api.CreateCommentRequest{
			ThreadId: data.ThreadId,
			UserId:   data.AuthorId,
			Content:  data.Content,
		},
		headers: map[string]string{"Prefer": preferReturnRepr, "Accept": mimeSingleObject},
	}, &row)
	if err != nil {
		return domain.Comment{}, err
	}
	return row.ToDomain(), nil
}

func (c *APIClient) DeleteComment(ctx context.Context, id domain.CommentId) error {
	return c.deleteById(ctx, "/comments", id, "comment")
}
