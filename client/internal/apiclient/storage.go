package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Upload stores an object in the configured bucket and returns its public
// URL. Existing objects are never overwritten.
func (c *APIClient) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	path := fmt.Sprintf("%s/object/%s/%s", storagePrefix, url.PathEscape(c.bucket), url.PathEscape(name))
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   path,
		raw:    bytes.NewReader(data),
		headers: map[string]string{
			"Content-Type": contentType,
			"x-upsert":     "false",
		},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return c.PublicURL(name), nil
}

func (c *APIClient) PublicURL(name string) string {
	return fmt.Sprintf("%s%s/object/public/%s/%s", c.baseURL, storagePrefix, url.PathEscape(c.bucket), url.PathEscape(name))
}
