package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imgr-dev/imgr/shared/crypto"
	"github.com/imgr-dev/imgr/shared/domain"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions for devices that share a redis instance.
// Sessions expire with their refresh window; preferences never expire.
type RedisStore struct {
	client   *redis.Client
	deviceId string
	ttl      time.Duration
	codec    codec
}

// defaultSessionTTL is how long a cached session survives without being
// saved again.
const defaultSessionTTL = 30 * 24 * time.Hour

func NewRedisStore(ctx context.Context, redisURL, deviceId string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, deviceId), nil
}

func NewRedisStoreWithClient(client *redis.Client, deviceId string) *RedisStore {
	return &RedisStore{client: client, deviceId: deviceId, ttl: defaultSessionTTL}
}

func (s *RedisStore) UseSealer(sealer *crypto.Sealer) {
	s.codec.sealer = sealer
}

func (s *RedisStore) sessionKey() string {
	return "imgr:session:" + s.deviceId
}

func (s *RedisStore) stayLoggedInKey() string {
	return "imgr:pref:" + s.deviceId + ":stay_logged_in"
}

func (s *RedisStore) LoadSession(ctx context.Context) (*domain.Session, error) {
	data, err := s.client.Get(ctx, s.sessionKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s.codec.decode(data)
}

// SaveSession keeps the session for the refresh window. The refresh token
// outlives the access token, so the TTL is not tied to ExpiresAt.
func (s *RedisStore) SaveSession(ctx context.Context, session domain.Session) error {
	data, err := s.codec.encode(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.sessionKey(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearSession(ctx context.Context) error {
	if err := s.client.Del(ctx, s.sessionKey()).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *RedisStore) StayLoggedIn(ctx context.Context) (bool, error) {
	data, err := s.client.Get(ctx, s.stayLoggedInKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("load stay logged in: %w", err)
	}
	return decodeBool(data), nil
}

func (s *RedisStore) SetStayLoggedIn(ctx context.Context, stay bool) error {
	if err := s.client.Set(ctx, s.stayLoggedInKey(), encodeBool(stay), 0).Err(); err != nil {
		return fmt.Errorf("save stay logged in: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
