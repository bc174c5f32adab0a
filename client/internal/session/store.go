// Package session keeps the signed-in user's session and the
// stay-logged-in preference, and turns them into an Identity.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/imgr-dev/imgr/shared/crypto"
	"github.com/imgr-dev/imgr/shared/domain"
)

// ErrUnreadableSession means a cached session exists but cannot be opened,
// usually because the session key changed.
var ErrUnreadableSession = errors.New("cached session is unreadable")

// Store persists the cached session and device preferences.
// LoadSession returns (nil, nil) when nothing is cached.
// StayLoggedIn defaults to true when the preference was never saved.
type Store interface {
	LoadSession(ctx context.Context) (*domain.Session, error)
	SaveSession(ctx context.Context, s domain.Session) error
	ClearSession(ctx context.Context) error
	StayLoggedIn(ctx context.Context) (bool, error)
	SetStayLoggedIn(ctx context.Context, stay bool) error
	Close() error
}

// storedSession is the on-disk/on-wire form shared by the stores.
type storedSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserId       string    `json:"user_id"`
	Email        string    `json:"email"`
}

// codec turns sessions into stored bytes. With a sealer set the bytes are
// encrypted.
type codec struct {
	sealer *crypto.Sealer
}

func (c codec) encode(s domain.Session) ([]byte, error) {
	data, err := json.Marshal(storedSession(s))
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if c.sealer == nil {
		return data, nil
	}
	return c.sealer.Seal(data)
}

func (c codec) decode(data []byte) (*domain.Session, error) {
	if c.sealer != nil {
		opened, err := c.sealer.Open(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableSession, err)
		}
		data = opened
	}
	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableSession, err)
	}
	s := domain.Session(stored)
	return &s, nil
}

func encodeBool(b bool) []byte {
	if b {
		return []byte("1")
	}
	return []byte("0")
}

func decodeBool(data []byte) bool {
	return string(data) != "0"
}
