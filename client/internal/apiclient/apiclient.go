// Package apiclient talks to the BaaS over HTTP: PostgREST for data,
// GoTrue for auth and the Storage API for images.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/imgr-dev/imgr/shared/api"
	"github.com/imgr-dev/imgr/shared/config"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
	"github.com/imgr-dev/imgr/shared/logger"
	"github.com/imgr-dev/imgr/shared/middleware/metrics"
)

const (
	restPrefix    = "/rest/v1"
	authPrefix    = "/auth/v1"
	storagePrefix = "/storage/v1"

	mimeSingleObject = "application/vnd.pgrst.object+json"
	preferReturnRepr = "return=representation"
)

// TokenSource yields the current user's access token, or "" when nobody is
// logged in. Requests then authenticate with the project key alone.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// APIClient handles all communication with the backend.
type APIClient struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client
	tokens     TokenSource
	log        *slog.Logger
}

func New(baas config.BaaS, apiKey, bucket string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baas.Url, "/"),
		apiKey:  apiKey,
		bucket:  bucket,
		httpClient: &http.Client{
			Timeout:   baas.Timeout,
			Transport: metrics.NewRoundTripper(nil),
		},
		log: logger.Component("apiclient"),
	}
}

// SetTokenSource is called once during wiring; the session provider both
// depends on the client and feeds it tokens.
func (c *APIClient) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	raw     io.Reader // used instead of body for binary uploads
	headers map[string]string
	// bearer overrides the token source, e.g. for logout
	bearer string
}

// do is the single helper for making API requests. Non-2xx responses are
// returned as *errors.ErrorWithStatusCode carrying the backend's message.
func (c *APIClient) do(ctx context.Context, r request) (*http.Response, error) {
	var body io.Reader = r.raw
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create API request: %w", err)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("X-Request-Id", uuid.NewString())

	bearer := r.bearer
	if bearer == "" {
		if bearer, err = c.accessToken(ctx); err != nil {
			return nil, err
		}
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("backend request failed", "method", r.method, "path", r.path, "error", err)
		return nil, &internal_errors.NetworkError{Op: r.method + " " + r.path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

func (c *APIClient) accessToken(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return c.apiKey, nil
	}
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return c.apiKey, nil
	}
	return token, nil
}

// doJSON performs the request and decodes a successful response into out.
func (c *APIClient) doJSON(ctx context.Context, r request, out any) error {
	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cannot decode %s %s response: %w", r.method, r.path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	message := api.ErrorBodyText(data)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &internal_errors.ErrorWithStatusCode{Message: message, StatusCode: resp.StatusCode}
}

// eq and in build PostgREST filter values.
func eq(v string) string {
	return "eq." + v
}

func in(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}

// isNotFound reports a single-object request that matched no visible row.
func isNotFound(err error) bool {
	var withStatus *internal_errors.ErrorWithStatusCode
	return errors.As(err, &withStatus) &&
		(withStatus.StatusCode == http.StatusNotAcceptable || withStatus.StatusCode == http.StatusNotFound)
}
