package setup

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/imgr-dev/imgr/shared/config"
	"github.com/imgr-dev/imgr/shared/crypto"
	"github.com/imgr-dev/imgr/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	public := config.Defaults()
	public.BaaS.Url = "http://127.0.0.1:1"
	public.Session.BoltPath = filepath.Join(t.TempDir(), "session.db")
	return &config.Config{Public: public, Private: config.Private{BaaSKey: "anon-key"}}
}

func TestNewSessionStore_SessionKey(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t).Public.Session

	_, err := newSessionStore(ctx, cfg, "not-a-key")
	assert.Error(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	store, err := newSessionStore(ctx, cfg, key)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveSession(ctx, domain.Session{AccessToken: "at", UserId: "u1"}))
	cached, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", cached.UserId)
}

func TestSetupDependencies(t *testing.T) {
	t.Run("rest storage serves no media", func(t *testing.T) {
		deps, err := SetupDependencies(context.Background(), testConfig(t))
		require.NoError(t, err)
		defer deps.Close()

		assert.False(t, deps.Handler.HasMedia())
		assert.False(t, deps.Sessions.Identity().LoggedIn())
	})

	t.Run("fs storage serves media", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Public.Storage.Driver = "fs"
		cfg.Public.Storage.Fs = config.FsStorage{Root: t.TempDir(), PublicBaseUrl: "http://127.0.0.1:8090/media"}

		deps, err := SetupDependencies(context.Background(), cfg)
		require.NoError(t, err)
		defer deps.Close()

		assert.True(t, deps.Handler.HasMedia())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		deps, err := SetupDependencies(context.Background(), testConfig(t))
		require.NoError(t, err)
		require.NoError(t, deps.Close())
		require.NoError(t, deps.Close())
	})
}
