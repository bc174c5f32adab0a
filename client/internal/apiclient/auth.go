package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/imgr-dev/imgr/shared/api"
	"github.com/imgr-dev/imgr/shared/domain"
)

// SignUp registers an account. The username is written to user metadata,
// from which the server creates the profiles row.
func (c *APIClient) SignUp(ctx context.Context, creds domain.Credentials, username domain.Username) (domain.SignUpResult, error) {
	var resp api.SessionResponse
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   authPrefix + "/signup",
		body: api.SignUpRequest{
			Email:    creds.Email,
			Password: creds.Password,
			Data:     api.SignUpMetadata{Username: username, FullName: username},
		},
		bearer: c.apiKey,
	}, &resp)
	if err != nil {
		return domain.SignUpResult{}, err
	}

	result := domain.SignUpResult{UserId: resp.UserId()}
	if resp.HasSession() {
		session := resp.ToSession(time.Now())
		result.Session = &session
	}
	return result, nil
}

func (c *APIClient) SignIn(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	return c.tokenGrant(ctx, "password", api.PasswordGrantRequest{Email: creds.Email, Password: creds.Password})
}

func (c *APIClient) Refresh(ctx context.Context, refreshToken string) (domain.Session, error) {
	return c.tokenGrant(ctx, "refresh_token", api.RefreshGrantRequest{RefreshToken: refreshToken})
}

func (c *APIClient) tokenGrant(ctx context.Context, grantType string, body any) (domain.Session, error) {
	query := url.Values{}
	query.Set("grant_type", grantType)

	var resp api.SessionResponse
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   authPrefix + "/token",
		query:  query,
		body:   body,
		bearer: c.apiKey,
	}, &resp)
	if err != nil {
		return domain.Session{}, err
	}
	return resp.ToSession(time.Now()), nil
}

// SignOut revokes the session server-side.
func (c *APIClient) SignOut(ctx context.Context, accessToken string) error {
	return c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   authPrefix + "/logout",
		bearer: accessToken,
	}, nil)
}

func (c *APIClient) Recover(ctx context.Context, email domain.Email) error {
	return c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   authPrefix + "/recover",
		body:   api.RecoverRequest{Email: email},
		bearer: c.apiKey,
	}, nil)
}
