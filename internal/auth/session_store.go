package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks the single active token per user in Redis. Issuing a
// new token replaces the previous one, so a fresh login invalidates any
// older session for the same account.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(addr string, db int, ttl time.Duration) *SessionStore {
	return NewSessionStoreWithClient(redis.NewClient(&redis.Options{Addr: addr, DB: db}), ttl)
}

// NewSessionStoreWithClient is the seam tests use to inject a miniredis
// backed client.
func NewSessionStoreWithClient(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(username string) string {
	return fmt.Sprintf("session:user:%s", username)
}

// Put records the user's current token, displacing any previous one.
func (s *SessionStore) Put(ctx context.Context, username, token string) error {
	return s.rdb.Set(ctx, sessionKey(username), token, s.ttl).Err()
}

// Validate reports whether the token is the user's current session token.
func (s *SessionStore) Validate(ctx context.Context, username, token string) (bool, error) {
	current, err := s.rdb.Get(ctx, sessionKey(username)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return current == token, nil
}

// Delete removes the user's session, logging them out everywhere.
func (s *SessionStore) Delete(ctx context.Context, username string) error {
	return s.rdb.Del(ctx, sessionKey(username)).Err()
}

// Ping checks Redis connectivity at startup.
func (s *SessionStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.rdb.Ping(ctx).Err()
}
