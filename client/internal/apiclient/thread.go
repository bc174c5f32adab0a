package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/imgr-dev/imgr/shared/api"
	"github.com/imgr-dev/imgr/shared/domain"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
)

// ListThreads returns a page of threads, newest first.
func (c *APIClient) ListThreads(ctx context.Context, offset, limit int) ([]domain.Thread, error) {
	query := url.Values{}
	query.Set("select", api.ThreadColumns)
	query.Set("order", "created_at.desc")
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))

	var rows []api.ThreadRow
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: restPrefix + "/threads", query: query}, &rows); err != nil {
		return nil, err
	}

	threads := make([]domain.Thread, len(rows))
	for i, row := range rows {
		threads[i] = row.ToDomain()
	}
	return threads, nil
}

func (c *APIClient) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	query := url.Values{}
	query.Set("select", api.ThreadColumns)
	query.Set("id", eq(id))

	var row api.ThreadRow
	err := c.doJSON(ctx, request{
		method:  http.MethodGet,
		path:    restPrefix + "/threads",
		query:   query,
		headers: map[string]string{"Accept": mimeSingleObject},
	}, &row)
	if err != nil {
		if isNotFound(err) {
			return domain.Thread{}, internal_errors.NewNotFound("thread %s not found", id)
		}
		return domain.Thread{}, err
	}
	return row.ToDomain(), nil
}

func (c *APIClient) InsertThread(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, error) {
	query := url.Values{}
	query.Set("select", api.ThreadColumns)

	var row api.ThreadRow
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   restPrefix + "/threads",
		query:  query,
		body: api.CreateThreadRequest{
			Title:    data.Title,
			Caption:  data.Caption,
			ImageUrl: data.ImageUrl,
			UserId:   data.AuthorId,
		},
		headers: map[string]string{"Prefer": preferReturnRepr, "Accept": mimeSingleObject},
	}, &row)
	if err != nil {
		return domain.Thread{}, err
	}
	return row.ToDomain(), nil
}

// DeleteThread removes a thread. Rows hidden by row-level security look the
// same as absent ones, so both are reported as NotFound.
func (c *APIClient) DeleteThread(ctx context.Context, id domain.ThreadId) error {
	return c.deleteById(ctx, "/threads", id, "thread")
}

func (c *APIClient) deleteById(ctx context.Context, table, id, entity string) error {
	query := url.Values{}
	query.Set("id", eq(id))
	query.Set("select", "id")

	var deleted []api.DeletedRow
	err := c.doJSON(ctx, request{
		method:  http.MethodDelete,
		path:    restPrefix + table,
		query:   query,
		headers: map[string]string{"Prefer": preferReturnRepr},
	}, &deleted)
	if err != nil {
		return err
	}
	if len(deleted) == 0 {
		return internal_errors.NewNotFound("%s %s not found or access denied", entity, id)
	}
	return nil
}
