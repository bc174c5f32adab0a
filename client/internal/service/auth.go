package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/imgr-dev/imgr/shared/domain"
	"github.com/imgr-dev/imgr/shared/logger"
	"github.com/imgr-dev/imgr/shared/utils"
	"github.com/imgr-dev/imgr/shared/validation"
)

type AuthBackend interface {
	SignUp(ctx context.Context, creds domain.Credentials, username domain.Username) (domain.SignUpResult, error)
	SignIn(ctx context.Context, creds domain.Credentials) (domain.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	Recover(ctx context.Context, email domain.Email) error
}

type SessionManager interface {
	Set(ctx context.Context, s domain.Session) error
	Clear(ctx context.Context) error
	Session() *domain.Session
	ForceRefresh(ctx context.Context) error
}

type Auth struct {
	backend   AuthBackend
	sessions  SessionManager
	validator *validation.Validator
	log       *slog.Logger
}

func NewAuth(backend AuthBackend, sessions SessionManager, validator *validation.Validator) *Auth {
	return &Auth{
		backend:   backend,
		sessions:  sessions,
		validator: validator,
		log:       logger.Component("auth"),
	}
}

// SignUp registers with a generated anonymous username. Result.Session is
// nil when the account must be confirmed by email first.
func (s *Auth) SignUp(ctx context.Context, email, password string) (domain.SignUpResult, error) {
	email = strings.TrimSpace(email)
	if err := s.validator.Email(email); err != nil {
		return domain.SignUpResult{}, err
	}
	if err := s.validator.SignUpPassword(password); err != nil {
		return domain.SignUpResult{}, err
	}

	username := utils.GenerateAnonUsername()
	result, err := s.backend.SignUp(ctx, domain.Credentials{Email: email, Password: password}, username)
	if err != nil {
		s.log.Info("sign up rejected", "error", err)
		return domain.SignUpResult{}, SignUpError(err)
	}

	if result.Session != nil {
		if err := s.sessions.Set(ctx, *result.Session); err != nil {
			return domain.SignUpResult{}, err
		}
	}
	s.log.Info("signed up", "user_id", result.UserId, "username", username, "confirmed", result.Session != nil)
	return result, nil
}

func (s *Auth) SignIn(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := s.validator.Email(email); err != nil {
		return err
	}
	if err := s.validator.SignInPassword(password); err != nil {
		return err
	}

	session, err := s.backend.SignIn(ctx, domain.Credentials{Email: email, Password: password})
	if err != nil {
		s.log.Info("sign in rejected", "error", err)
		return SignInError(err)
	}
	if err := s.sessions.Set(ctx, session); err != nil {
		return err
	}
	s.log.Info("signed in", "user_id", session.UserId)
	return nil
}

// SignOut revokes the session remotely and always forgets it locally.
// The remote error, if any, is returned after the local clear.
func (s *Auth) SignOut(ctx context.Context) error {
	var remoteErr error
	if current := s.sessions.Session(); current != nil {
		remoteErr = s.backend.SignOut(ctx, current.AccessToken)
		if remoteErr != nil {
			s.log.Warn("remote sign out failed", "error", remoteErr)
		}
	}
	if err := s.sessions.Clear(ctx); err != nil {
		return err
	}
	return remoteErr
}

func (s *Auth) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := s.validator.Email(email); err != nil {
		return err
	}
	if err := s.backend.Recover(ctx, email); err != nil {
		return ResetError(err)
	}
	return nil
}

func (s *Auth) RefreshSession(ctx context.Context) error {
	return s.sessions.ForceRefresh(ctx)
}
