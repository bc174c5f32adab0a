// Package setup wires configuration into the running client core.
package setup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imgr-dev/imgr/client/internal/account"
	"github.com/imgr-dev/imgr/client/internal/apiclient"
	"github.com/imgr-dev/imgr/client/internal/compose"
	"github.com/imgr-dev/imgr/client/internal/detail"
	"github.com/imgr-dev/imgr/client/internal/feed"
	"github.com/imgr-dev/imgr/client/internal/handler"
	"github.com/imgr-dev/imgr/client/internal/service"
	"github.com/imgr-dev/imgr/client/internal/session"
	"github.com/imgr-dev/imgr/client/internal/storage/fs"
	pgstorage "github.com/imgr-dev/imgr/client/internal/storage/pg"
	"github.com/imgr-dev/imgr/client/internal/storage/s3"
	"github.com/imgr-dev/imgr/shared/config"
	"github.com/imgr-dev/imgr/shared/crypto"
	"github.com/imgr-dev/imgr/shared/domain"
	"github.com/imgr-dev/imgr/shared/logger"
	"github.com/imgr-dev/imgr/shared/middleware/ratelimiter"
	"github.com/imgr-dev/imgr/shared/storage/pg"
	"github.com/imgr-dev/imgr/shared/validation"
)

// rateLimiterExpiration is how long an idle client's bucket is kept.
const rateLimiterExpiration = time.Hour

// Both data planes must satisfy what the services and the provider expect.
var (
	_ service.ThreadStorage = (*apiclient.APIClient)(nil)
	_ service.ThreadStorage = (*pgstorage.Storage)(nil)
	_ session.ProfileLoader = (*apiclient.APIClient)(nil)
	_ session.ProfileLoader = (*pgstorage.Storage)(nil)
)

// Dependencies holds everything main and the router need.
type Dependencies struct {
	Config      *config.Config
	Client      *apiclient.APIClient
	Sessions    *session.Provider
	Feed        *feed.Feed
	Detail      *detail.Detail
	Compose     *compose.Compose
	Account     *account.Account
	Handler     *handler.Handler
	RateLimiter *ratelimiter.UserRateLimiter

	closers []func() error
}

// identityFunc lets the pg data plane read the identity of a provider that
// is built after it.
type identityFunc func() domain.Identity

func (f identityFunc) Identity() domain.Identity { return f() }

// SetupDependencies builds the client from cfg. Call Close when done.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg}
	public := cfg.Public

	client := apiclient.New(public.BaaS, cfg.Private.BaaSKey, public.Storage.Bucket)
	deps.Client = client

	store, err := newSessionStore(ctx, public.Session, cfg.Private.SessionKey)
	if err != nil {
		return nil, err
	}
	deps.closers = append(deps.closers, store.Close)

	var provider *session.Provider
	var data service.ThreadStorage = client
	var profiles session.ProfileLoader = client
	if public.DataSource == "pg" {
		db, err := pg.Connect(ctx, pg.DSN(public.Pg, cfg.Private.PgPassword), pg.LightweightConnectionConfig())
		if err != nil {
			deps.Close()
			return nil, err
		}
		storage := pgstorage.New(db, identityFunc(func() domain.Identity { return provider.Identity() }), public.Pg.RlsRole)
		deps.closers = append(deps.closers, storage.Close)
		data, profiles = storage, storage
	}

	provider = session.NewProvider(store, client, profiles, public.Session.RefreshSkew)
	client.SetTokenSource(provider)
	deps.Sessions = provider

	images, media, err := newImageStorage(cfg, client)
	if err != nil {
		deps.Close()
		return nil, err
	}

	validator := validation.New(public.Limits)
	threads := service.NewThreads(data, images, provider, validator)
	auth := service.NewAuth(client, provider, validator)

	deps.Feed = feed.New(threads, public.Feed.PageSize)
	deps.Detail = detail.New(threads)
	deps.Compose = compose.New(threads, validator, public.Image)
	deps.Account = account.New(auth, provider)

	provider.Subscribe(func(identity domain.Identity) {
		deps.Feed.OnIdentityChanged(identity)
		deps.Detail.OnIdentityChanged(identity)
		deps.Account.OnIdentityChanged(identity)
	})

	deps.RateLimiter = ratelimiter.New(public.Bridge.RateLimit, public.Bridge.RateBurst, rateLimiterExpiration)
	deps.closers = append(deps.closers, func() error { deps.RateLimiter.Stop(); return nil })

	deps.Handler = handler.New(deps.Feed, deps.Detail, deps.Compose, deps.Account, media)

	logger.Log.Info("dependencies ready",
		"data_source", public.DataSource,
		"storage", public.Storage.Driver,
		"session_store", public.Session.Driver)
	return deps, nil
}

// Start restores the cached session, loads the account preferences and
// the first feed page.
func (d *Dependencies) Start(ctx context.Context) error {
	if err := d.Sessions.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	if err := d.Account.LoadPreferences(ctx); err != nil {
		return fmt.Errorf("failed to load preferences: %w", err)
	}
	d.Feed.Load(ctx)
	return nil
}

// Close releases stores and pools in reverse order of creation.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// sealable is a session store that can encrypt what it caches.
type sealable interface {
	session.Store
	UseSealer(*crypto.Sealer)
}

func newSessionStore(ctx context.Context, cfg config.Session, sessionKey string) (session.Store, error) {
	var store sealable
	if cfg.Driver == "redis" {
		redisStore, err := session.NewRedisStore(ctx, cfg.RedisUrl, cfg.DeviceId)
		if err != nil {
			return nil, err
		}
		store = redisStore
	} else {
		boltStore, err := session.NewBoltStore(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		store = boltStore
	}

	if sessionKey != "" {
		sealer, err := crypto.NewSealer(sessionKey)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("invalid session key: %w", err)
		}
		store.UseSealer(sealer)
	}
	return store, nil
}

// newImageStorage picks the upload target. media is non-nil only for the
// fs driver, whose files the bridge serves itself.
func newImageStorage(cfg *config.Config, client *apiclient.APIClient) (service.ImageStorage, handler.MediaReader, error) {
	storage := cfg.Public.Storage
	switch storage.Driver {
	case "s3":
		s, err := s3.New(storage.S3, storage.Bucket, cfg.Private.S3AccessKey, cfg.Private.S3SecretKey)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case "fs":
		s, err := fs.New(storage.Fs.Root, storage.Fs.PublicBaseUrl)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return client, nil, nil
	}
}
