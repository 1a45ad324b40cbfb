// Package session keeps portal login sessions in Redis. Only the auth flows
// write the backend token; everything else reads it at call time.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/certportal/certportal/internal/domain"
)

// ErrNotFound is returned for a missing or expired session.
var ErrNotFound = errors.New("session not found or expired")

// DefaultTTL applies when the backend token carries no expiry.
const DefaultTTL = 12 * time.Hour

// Session is the server-side replacement for the browser's session storage.
type Session struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	IsAuthenticated bool            `json:"is_authenticated"`
	AuthToken       string          `json:"auth_token"`
	UserType        domain.UserType `json:"user_type"`
	UserData        json.RawMessage `json:"user_data,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	ExpiresAt       time.Time       `json:"expires_at"`
}

// RedisStore implements session storage using Redis
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed session store
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "session:",
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Save stores sess until its ExpiresAt, or for DefaultTTL when unset.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		return fmt.Errorf("save session: empty id")
	}
	ttl := time.Until(sess.ExpiresAt)
	if sess.ExpiresAt.IsZero() || ttl <= 0 {
		ttl = DefaultTTL
		sess.ExpiresAt = time.Now().Add(ttl)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get loads session id.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// UpdateToken replaces the backend token of an existing session, keeping its
// remaining lifetime.
func (s *RedisStore) UpdateToken(ctx context.Context, id, token string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.AuthToken = token
	return s.Save(ctx, sess)
}

// Clear removes every trace of session id.
func (s *RedisStore) Clear(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Client returns the underlying Redis client for components sharing the
// connection.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
