package service

import (
	"strings"

	internal_errors "github.com/imgr-dev/imgr/shared/errors"
	"github.com/imgr-dev/imgr/shared/messages"
)

// rule maps a fragment of backend error text (matched case-insensitively)
// to the message shown to the user.
type rule struct {
	fragment string
	message  string
}

var (
	signUpRules = []rule{
		{"already registered", messages.AlreadyRegistered},
		{"already been registered", messages.AlreadyRegistered},
		{"password", messages.PasswordTooShort},
		{"invalid email", messages.InvalidEmail},
	}
	signInRules = []rule{
		{"invalid login credentials", messages.InvalidCredentials},
		{"email not confirmed", messages.EmailNotConfirmed},
		{"invalid email", messages.InvalidEmail},
	}
	resetRules = []rule{
		{"invalid email", messages.InvalidEmail},
		{"not found", messages.EmailNotRegistered},
	}
)

func mapBackendText(err error, rules []rule, fallback string) string {
	text := internal_errors.Message(err, "")
	lower := strings.ToLower(text)
	for _, r := range rules {
		if strings.Contains(lower, r.fragment) {
			return r.message
		}
	}
	if text == "" {
		return fallback
	}
	return text
}

// authError keeps client-side validation errors as they are and turns
// backend failures into an AuthError with a localized message.
func authError(err error, rules []rule, fallback string) error {
	if internal_errors.Is[*internal_errors.ValidationError](err) || internal_errors.Is[*internal_errors.AuthError](err) {
		return err
	}
	if internal_errors.Is[*internal_errors.NetworkError](err) {
		return &internal_errors.AuthError{Message: fallback, Err: err}
	}
	return &internal_errors.AuthError{Message: mapBackendText(err, rules, fallback), Err: err}
}

func SignUpError(err error) error { return authError(err, signUpRules, messages.SignUpFailed) }
func SignInError(err error) error { return authError(err, signInRules, messages.SignInFailed) }
func ResetError(err error) error  { return authError(err, resetRules, messages.ResetFailed) }
