package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/imgr-dev/imgr/shared/api"
	"github.com/imgr-dev/imgr/shared/domain"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
)

func (c *APIClient) GetProfile(ctx context.Context, userId domain.UserId) (domain.Profile, error) {
	query := url.Values{}
	query.Set("select", api.ProfileColumns)
	query.Set("id", eq(userId))

	var row api.ProfileRow
	err := c.doJSON(ctx, request{
		method:  http.MethodGet,
		path:    restPrefix + "/profiles",
		query:   query,
		headers: map[string]string{"Accept": mimeSingleObject},
	}, &row)
	if err != nil {
		if isNotFound(err) {
			return domain.Profile{}, internal_errors.NewNotFound("profile %s not found", userId)
		}
		return domain.Profile{}, err
	}
	return row.ToDomain(), nil
}
