package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/imgr-dev/imgr/shared/config"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
	"github.com/imgr-dev/imgr/shared/messages"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validator checks user input against the configured limits. All failures
// are *errors.ValidationError carrying the message to show.
type Validator struct {
	limits config.Limits
}

func New(limits config.Limits) *Validator {
	return &Validator{limits: limits}
}

func (v *Validator) Limits() config.Limits {
	return v.limits
}

func (v *Validator) Title(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return internal_errors.NewValidation(messages.TitleEmpty)
	}
	if utf8.RuneCountInString(title) < v.limits.TitleMinLen {
		return internal_errors.NewValidation(messages.TitleTooShort)
	}
	return nil
}

func (v *Validator) Caption(caption string) error {
	if utf8.RuneCountInString(strings.TrimSpace(caption)) > v.limits.CaptionMaxLen {
		return internal_errors.NewValidation(messages.CaptionTooLong(v.limits.CaptionMaxLen))
	}
	return nil
}

func (v *Validator) Comment(content string) error {
	if strings.TrimSpace(content) == "" {
		return internal_errors.NewValidation(messages.CommentEmpty)
	}
	if utf8.RuneCountInString(content) > v.limits.CommentMaxLen {
		return internal_errors.NewValidation(messages.CommentTooLong(v.limits.CommentMaxLen))
	}
	return nil
}

func (v *Validator) Email(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return internal_errors.NewValidation(messages.InvalidEmail)
	}
	return nil
}

// SignUpPassword enforces the minimum length; SignInPassword only presence.
func (v *Validator) SignUpPassword(password string) error {
	if utf8.RuneCountInString(password) < v.limits.PasswordMinLen {
		return internal_errors.NewValidation(messages.PasswordTooShort)
	}
	return nil
}

func (v *Validator) SignInPassword(password string) error {
	if password == "" {
		return internal_errors.NewValidation(messages.PasswordEmpty)
	}
	return nil
}
