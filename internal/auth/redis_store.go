package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisSession struct {
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisSessionStore keeps sessions in Redis so they survive restarts. Each
// token is a key with a TTL matching the session lifetime.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionStore connects to redisURL and pings it.
func NewRedisSessionStore(redisURL string) (*RedisSessionStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisSessionStoreWithClient(client), nil
}

// NewRedisSessionStoreWithClient wraps an existing client.
func NewRedisSessionStoreWithClient(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: "admin_session:"}
}

func (s *RedisSessionStore) key(token string) string {
	return s.prefix + token
}

// SaveSession stores the token until its expiry.
func (s *RedisSessionStore) SaveSession(ctx context.Context, session Session) error {
	data, err := json.Marshal(redisSession{ExpiresAt: session.ExpiresAt, CreatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if err := s.client.Set(ctx, s.key(session.Token), data, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SessionExists reports whether the token is still stored.
func (s *RedisSessionStore) SessionExists(ctx context.Context, token string) (bool, error) {
	err := s.client.Get(ctx, s.key(token)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup session: %w", err)
	}
	return true, nil
}

// RevokeSession deletes the token. Deleting an unknown token succeeds.
func (s *RedisSessionStore) RevokeSession(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
