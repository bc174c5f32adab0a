// Package account drives sign-up, sign-in, sign-out, password reset and the
// stay-logged-in preference.
package account

import (
	"context"
	"log/slog"
	"sync"

	"github.com/imgr-dev/imgr/client/internal/state"
	"github.com/imgr-dev/imgr/shared/domain"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
	"github.com/imgr-dev/imgr/shared/logger"
	"github.com/imgr-dev/imgr/shared/messages"
)

type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (domain.SignUpResult, error)
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	RefreshSession(ctx context.Context) error
}

// Identity is the session side the account screen reads from.
type Identity interface {
	Identity() domain.Identity
	Username() string
	StayLoggedIn(ctx context.Context) (bool, error)
	SetStayLoggedIn(ctx context.Context, stay bool) error
}

type Snapshot struct {
	Auth           state.Op `json:"auth"`
	ForgotPassword state.Op `json:"forgot_password"`
	StayLoggedIn   bool     `json:"stay_logged_in"`
	Username       string   `json:"username"`
	LoggedIn       bool     `json:"logged_in"`
}

type Account struct {
	mu       sync.Mutex
	auth     Authenticator
	identity Identity
	snapshot Snapshot

	state *state.Store[Snapshot]
	log   *slog.Logger
}

func New(auth Authenticator, identity Identity) *Account {
	initial := Snapshot{Auth: state.OpIdle(), ForgotPassword: state.OpIdle(), StayLoggedIn: true}
	return &Account{
		auth:     auth,
		identity: identity,
		snapshot: initial,
		state:    state.NewStore(initial),
		log:      logger.Component("account"),
	}
}

func (a *Account) State() Snapshot                    { return a.state.Get() }
func (a *Account) Subscribe(fn func(Snapshot)) func() { return a.state.Subscribe(fn) }

// update applies fn to the snapshot, refreshes the identity fields and
// publishes the result.
func (a *Account) update(fn func(*Snapshot)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(&a.snapshot)
	a.snapshot.LoggedIn = a.identity.Identity().LoggedIn()
	a.snapshot.Username = a.identity.Username()
	a.state.Set(a.snapshot)
}

func (a *Account) setAuth(op state.Op) {
	a.update(func(s *Snapshot) { s.Auth = op })
}

// SignUp registers. When the backend wants email confirmation first, no
// session is issued and the state becomes Error with the confirmation hint.
func (a *Account) SignUp(ctx context.Context, email, password string) {
	a.setAuth(state.OpLoading())
	result, err := a.auth.SignUp(ctx, email, password)
	if err != nil {
		a.setAuth(state.OpError(internal_errors.Message(err, messages.SignUpFailed)))
		return
	}
	if result.Session == nil {
		a.setAuth(state.OpError(messages.SignupNeedsConfirm))
		return
	}
	a.saveAfterLogin(ctx)
	a.setAuth(state.OpSuccess())
}

// SignIn authenticates and persists the current stay-logged-in choice.
func (a *Account) SignIn(ctx context.Context, email, password string) {
	a.setAuth(state.OpLoading())
	if err := a.auth.SignIn(ctx, email, password); err != nil {
		a.setAuth(state.OpError(internal_errors.Message(err, messages.SignInFailed)))
		return
	}
	a.saveAfterLogin(ctx)
	a.setAuth(state.OpSuccess())
}

func (a *Account) saveAfterLogin(ctx context.Context) {
	if err := a.SaveStayLoggedIn(ctx); err != nil {
		a.log.Warn("failed to save stay logged in preference", "error", err)
	}
}

// ConfirmLogout signs out remotely and locally. The local session is gone
// even when the remote call fails.
func (a *Account) ConfirmLogout(ctx context.Context) {
	a.setAuth(state.OpLoading())
	if err := a.auth.SignOut(ctx); err != nil {
		a.setAuth(state.OpError(messages.LogoutFailed(err.Error())))
		return
	}
	a.setAuth(state.OpIdle())
}

func (a *Account) SendPasswordResetEmail(ctx context.Context, email string) {
	a.update(func(s *Snapshot) { s.ForgotPassword = state.OpLoading() })
	err := a.auth.SendPasswordReset(ctx, email)
	a.update(func(s *Snapshot) {
		if err != nil {
			s.ForgotPassword = state.OpError(internal_errors.Message(err, messages.ResetFailed))
			return
		}
		s.ForgotPassword = state.OpSuccess()
	})
}

// RefreshSession forces a token refresh; any failure means the user has
// to sign in again.
func (a *Account) RefreshSession(ctx context.Context) {
	if err := a.auth.RefreshSession(ctx); err != nil {
		a.log.Info("session refresh failed", "error", err)
		a.setAuth(state.OpError(messages.SessionExpired))
		return
	}
	a.update(func(*Snapshot) {})
}

// ToggleStayLoggedIn flips the choice on screen; SaveStayLoggedIn persists it.
func (a *Account) ToggleStayLoggedIn() {
	a.update(func(s *Snapshot) { s.StayLoggedIn = !s.StayLoggedIn })
}

func (a *Account) SetStayLoggedIn(stay bool) {
	a.update(func(s *Snapshot) { s.StayLoggedIn = stay })
}

func (a *Account) SaveStayLoggedIn(ctx context.Context) error {
	return a.identity.SetStayLoggedIn(ctx, a.State().StayLoggedIn)
}

// LoadPreferences reads the persisted preference and the current identity.
func (a *Account) LoadPreferences(ctx context.Context) error {
	stay, err := a.identity.StayLoggedIn(ctx)
	if err != nil {
		return err
	}
	a.update(func(s *Snapshot) { s.StayLoggedIn = stay })
	return nil
}

func (a *Account) ResetState() {
	a.setAuth(state.OpIdle())
}

func (a *Account) ResetForgotPasswordState() {
	a.update(func(s *Snapshot) { s.ForgotPassword = state.OpIdle() })
}

// OnIdentityChanged refreshes the username and logged-in flag.
func (a *Account) OnIdentityChanged(domain.Identity) {
	a.update(func(*Snapshot) {})
}
