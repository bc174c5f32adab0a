package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/imgr-dev/imgr/shared/domain"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
	"github.com/imgr-dev/imgr/shared/jwt"
	"github.com/imgr-dev/imgr/shared/logger"
	"github.com/imgr-dev/imgr/shared/messages"
)

type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (domain.Session, error)
}

type ProfileLoader interface {
	GetProfile(ctx context.Context, userId domain.UserId) (domain.Profile, error)
}

// Listener is notified after every identity change.
type Listener func(domain.Identity)

// Provider owns the current session. Network calls are made without
// holding the lock, since loading a profile goes through AccessToken.
type Provider struct {
	mu        sync.RWMutex
	session   *domain.Session
	profile   *domain.Profile
	listeners map[int]Listener
	nextId    int

	refreshMu sync.Mutex

	store     Store
	refresher Refresher
	profiles  ProfileLoader
	skew      time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func NewProvider(store Store, refresher Refresher, profiles ProfileLoader, skew time.Duration) *Provider {
	return &Provider{
		listeners: make(map[int]Listener),
		store:     store,
		refresher: refresher,
		profiles:  profiles,
		skew:      skew,
		now:       time.Now,
		log:       logger.Component("session"),
	}
}

// Restore loads the cached session at start. It is honoured only when the
// stay-logged-in preference is set; otherwise the cache is wiped.
func (p *Provider) Restore(ctx context.Context) error {
	stay, err := p.store.StayLoggedIn(ctx)
	if err != nil {
		return err
	}
	if !stay {
		p.log.Info("stay logged in disabled, dropping cached session")
		return p.Clear(ctx)
	}

	cached, err := p.store.LoadSession(ctx)
	if errors.Is(err, ErrUnreadableSession) {
		p.log.Warn("dropping unreadable cached session", "error", err)
		return p.Clear(ctx)
	}
	if err != nil {
		return err
	}
	if cached == nil {
		return nil
	}

	p.mu.Lock()
	p.session = cached
	p.profile = nil
	p.mu.Unlock()

	if _, err := p.AccessToken(ctx); err != nil {
		if !internal_errors.Is[*internal_errors.NetworkError](err) {
			p.log.Warn("cached session rejected, signing out", "error", err)
			return p.Clear(ctx)
		}
		// offline start: keep the cached session and retry on next use
		p.log.Warn("cached session could not be refreshed", "error", err)
	}
	p.loadProfile(ctx, cached.UserId)
	p.notify()
	return nil
}

// Set installs a fresh session after sign-in or sign-up.
func (p *Provider) Set(ctx context.Context, s domain.Session) error {
	if s.UserId == "" {
		if claims, err := jwt.Decode(s.AccessToken); err == nil {
			s.UserId = claims.Subject
			if s.Email == "" {
				s.Email = claims.Email
			}
		}
	}

	p.mu.Lock()
	p.session = &s
	p.profile = nil
	p.mu.Unlock()

	if err := p.store.SaveSession(ctx, s); err != nil {
		return err
	}
	p.loadProfile(ctx, s.UserId)
	p.notify()
	return nil
}

// Clear forgets the session locally and in the store.
func (p *Provider) Clear(ctx context.Context) error {
	p.mu.Lock()
	hadSession := p.session != nil
	p.session = nil
	p.profile = nil
	p.mu.Unlock()

	err := p.store.ClearSession(ctx)
	if hadSession {
		p.notify()
	}
	return err
}

// AccessToken returns the current access token, refreshing it first when
// it expires within the skew. Anonymous callers get "".
func (p *Provider) AccessToken(ctx context.Context) (string, error) {
	p.mu.RLock()
	current := p.session
	p.mu.RUnlock()
	if current == nil {
		return "", nil
	}
	if !current.ExpiresWithin(p.now(), p.skew) {
		return current.AccessToken, nil
	}

	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	// another caller may have refreshed while we waited
	p.mu.RLock()
	current = p.session
	p.mu.RUnlock()
	if current == nil {
		return "", nil
	}
	if !current.ExpiresWithin(p.now(), p.skew) {
		return current.AccessToken, nil
	}

	refreshed, err := p.refresher.Refresh(ctx, current.RefreshToken)
	if err != nil {
		return "", &internal_errors.AuthError{Message: messages.SessionExpired, Err: err}
	}
	if refreshed.UserId == "" {
		refreshed.UserId = current.UserId
		refreshed.Email = current.Email
	}

	p.mu.Lock()
	if p.session == current {
		p.session = &refreshed
	}
	p.mu.Unlock()

	if err := p.store.SaveSession(ctx, refreshed); err != nil {
		p.log.Warn("failed to persist refreshed session", "error", err)
	}
	return refreshed.AccessToken, nil
}

// ForceRefresh refreshes regardless of the remaining lifetime.
func (p *Provider) ForceRefresh(ctx context.Context) error {
	p.mu.Lock()
	if p.session == nil {
		p.mu.Unlock()
		return internal_errors.NewAuth(messages.NotLoggedIn)
	}
	expired := *p.session
	expired.ExpiresAt = p.now()
	p.session = &expired
	p.mu.Unlock()

	_, err := p.AccessToken(ctx)
	return err
}

func (p *Provider) loadProfile(ctx context.Context, userId domain.UserId) {
	if p.profiles == nil || userId == "" {
		return
	}
	profile, err := p.profiles.GetProfile(ctx, userId)
	if err != nil {
		// role falls back to member; the server still enforces permissions
		p.log.Warn("failed to load profile", "user_id", userId, "error", err)
		return
	}

	p.mu.Lock()
	if p.session != nil && p.session.UserId == userId {
		p.profile = &profile
	}
	p.mu.Unlock()
}

// Identity is the snapshot the permission projector evaluates.
func (p *Provider) Identity() domain.Identity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.session == nil {
		return domain.Identity{}
	}
	identity := domain.Identity{UserId: p.session.UserId, Role: domain.RoleMember}
	if p.profile != nil {
		identity.Role = p.profile.Role
	}
	return identity
}

// Session returns a copy of the current session, or nil.
func (p *Provider) Session() *domain.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.session == nil {
		return nil
	}
	s := *p.session
	return &s
}

// Username is the profile username, else the email local part, else "User".
func (p *Provider) Username() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.profile != nil && p.profile.Username != "" {
		return p.profile.Username
	}
	if p.session != nil && p.session.Email != "" {
		local, _, _ := strings.Cut(p.session.Email, "@")
		if local != "" {
			return local
		}
	}
	return messages.DefaultUser
}

func (p *Provider) StayLoggedIn(ctx context.Context) (bool, error) {
	return p.store.StayLoggedIn(ctx)
}

func (p *Provider) SetStayLoggedIn(ctx context.Context, stay bool) error {
	return p.store.SetStayLoggedIn(ctx, stay)
}

// Subscribe registers a listener and returns its cancel func.
func (p *Provider) Subscribe(l Listener) func() {
	p.mu.Lock()
	id := p.nextId
	p.nextId++
	p.listeners[id] = l
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *Provider) notify() {
	identity := p.Identity()

	p.mu.RLock()
	listeners := make([]Listener, 0, len(p.listeners))
	for _, l := range p.listeners {
		listeners = append(listeners, l)
	}
	p.mu.RUnlock()

	for _, l := range listeners {
		l(identity)
	}
}
