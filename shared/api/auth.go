package api

import (
	"encoding/json"
	"html"
	"strings"
	"time"

	"github.com/imgr-dev/imgr/shared/domain"
	"github.com/microcosm-cc/bluemonday"
)

var errorPagePolicy = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

// Request DTOs

type SignUpRequest struct {
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6"`
	Data     SignUpMetadata `json:"data"`
}

// SignUpMetadata feeds the server trigger that creates the profiles row.
type SignUpMetadata struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

type PasswordGrantRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshGrantRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RecoverRequest struct {
	Email string `json:"email"`
}

// Response DTOs

type AuthUser struct {
	Id    string `json:"id"`
	Email string `json:"email"`
}

// SessionResponse is returned by token grants, and by signup when
// confirmation is disabled.
type SessionResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	User         *AuthUser `json:"user"`

	// signup without session returns the user object at top level
	Id    string `json:"id"`
	Email string `json:"email"`
}

func (r SessionResponse) HasSession() bool {
	return r.AccessToken != ""
}

func (r SessionResponse) ToSession(now time.Time) domain.Session {
	s := domain.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
	switch {
	case r.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0).UTC()
	case r.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second).UTC()
	}
	if r.User != nil {
		s.UserId = r.User.Id
		s.Email = r.User.Email
	}
	return s
}

func (r SessionResponse) UserId() string {
	if r.User != nil {
		return r.User.Id
	}
	return r.Id
}

// ErrorResponse covers the shapes the auth and data services use for errors.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Details          string `json:"details"`
	Hint             string `json:"hint"`
}

// Text picks the most descriptive message present.
func (e ErrorResponse) Text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error, e.Details} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// ErrorBodyText extracts a readable message from an error response body.
// JSON bodies go through Text; anything else is usually an HTML page from a
// gateway in front of the services, so tags are dropped and whitespace is
// collapsed.
func ErrorBodyText(data []byte) string {
	var body ErrorResponse
	if json.Unmarshal(data, &body) == nil {
		return body.Text()
	}
	text := html.UnescapeString(errorPagePolicy.Sanitize(string(data)))
	return strings.Join(strings.Fields(text), " ")
}
