package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/imgr-dev/imgr/shared/crypto"
	"github.com/imgr-dev/imgr/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() domain.Session {
	return domain.Session{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		UserId:       "u1",
		Email:        "a@b.c",
	}
}

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		s, err := store.LoadSession(ctx)
		require.NoError(t, err)
		assert.Nil(t, s)

		stay, err := store.StayLoggedIn(ctx)
		require.NoError(t, err)
		assert.True(t, stay, "stay logged in defaults to true")
	})

	t.Run("session roundtrip and clear", func(t *testing.T) {
		require.NoError(t, store.SaveSession(ctx, testSession()))

		s, err := store.LoadSession(ctx)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "u1", s.UserId)
		assert.True(t, testSession().ExpiresAt.Equal(s.ExpiresAt))

		require.NoError(t, store.ClearSession(ctx))
		s, err = store.LoadSession(ctx)
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("preference", func(t *testing.T) {
		require.NoError(t, store.SetStayLoggedIn(ctx, false))
		stay, err := store.StayLoggedIn(ctx)
		require.NoError(t, err)
		assert.False(t, stay)

		require.NoError(t, store.SetStayLoggedIn(ctx, true))
		stay, err = store.StayLoggedIn(ctx)
		require.NoError(t, err)
		assert.True(t, stay)
	})
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgr.db")
	store, err := NewBoltStore(path)
	require.NoError(t, err)
	defer store.Close()

	storeContract(t, store)
}

func TestBoltStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgr.db")
	ctx := context.Background()

	store, err := NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(ctx, testSession()))
	require.NoError(t, store.SetStayLoggedIn(ctx, false))
	require.NoError(t, store.Close())

	reopened, err := NewBoltStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	s, err := reopened.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "at", s.AccessToken)

	stay, err := reopened.StayLoggedIn(ctx)
	require.NoError(t, err)
	assert.False(t, stay)
}

func newTestSealer(t *testing.T) *crypto.Sealer {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sealer, err := crypto.NewSealer(key)
	require.NoError(t, err)
	return sealer
}

func TestBoltStore_Sealed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgr.db")
	ctx := context.Background()
	sealer := newTestSealer(t)

	store, err := NewBoltStore(path)
	require.NoError(t, err)
	store.UseSealer(sealer)
	storeContract(t, store)

	require.NoError(t, store.SaveSession(ctx, testSession()))
	require.NoError(t, store.Close())

	plain, err := NewBoltStore(path)
	require.NoError(t, err)
	_, err = plain.LoadSession(ctx)
	assert.ErrorIs(t, err, ErrUnreadableSession, "sealed bytes are not json")

	plain.UseSealer(newTestSealer(t))
	_, err = plain.LoadSession(ctx)
	assert.ErrorIs(t, err, ErrUnreadableSession, "other key")

	plain.UseSealer(sealer)
	s, err := plain.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rt", s.RefreshToken)
	require.NoError(t, plain.Close())
}

func TestRestore_DropsUnreadableSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgr.db")
	ctx := context.Background()

	store, err := NewBoltStore(path)
	require.NoError(t, err)
	defer store.Close()
	store.UseSealer(newTestSealer(t))
	require.NoError(t, store.SaveSession(ctx, testSession()))

	store.UseSealer(newTestSealer(t))
	p := newTestProvider(store, nil, nil)
	require.NoError(t, p.Restore(ctx))
	assert.False(t, p.Identity().LoggedIn())

	store.UseSealer(nil)
	cached, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, cached, "unreadable session is cleared")
}

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), "redis://"+s.Addr(), "phone-1")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, s
}

func TestRedisStore(t *testing.T) {
	store, _ := setupTestRedis(t)
	storeContract(t, store)
}

func TestRedisStore_KeysAndTTL(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, testSession()))
	require.NoError(t, store.SetStayLoggedIn(ctx, false))

	assert.True(t, s.Exists("imgr:session:phone-1"))
	assert.Equal(t, defaultSessionTTL, s.TTL("imgr:session:phone-1"))
	v, err := s.Get("imgr:pref:phone-1:stay_logged_in")
	require.NoError(t, err)
	assert.Equal(t, "0", v)
	assert.Zero(t, s.TTL("imgr:pref:phone-1:stay_logged_in"))

	s.FastForward(defaultSessionTTL + time.Second)
	cached, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisStore_Sealed(t *testing.T) {
	store, s := setupTestRedis(t)
	store.UseSealer(newTestSealer(t))
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, testSession()))
	raw, err := s.Get("imgr:session:phone-1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "refresh_token")

	cached, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", cached.UserId)
}

func TestRedisStore_Unreachable(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "redis://127.0.0.1:1", "d")
	assert.Error(t, err)

	_, err = NewRedisStore(context.Background(), "not a url", "d")
	assert.Error(t, err)
}
