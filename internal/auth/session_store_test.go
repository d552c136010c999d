package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionStoreWithClient(rdb, time.Hour), mr
}

func TestSessionPutValidate(t *testing.T) {
	s, _ := newTestSessionStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "alice", "token-1"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ok, err := s.Validate(ctx, "alice", "token-1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !ok {
		t.Error("current token rejected")
	}
	ok, _ = s.Validate(ctx, "alice", "token-2")
	if ok {
		t.Error("unknown token accepted")
	}
	ok, _ = s.Validate(ctx, "bob", "token-1")
	if ok {
		t.Error("token accepted for wrong user")
	}
}

func TestSessionNewLoginDisplacesOld(t *testing.T) {
	s, _ := newTestSessionStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "alice", "token-1"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "alice", "token-2"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ok, _ := s.Validate(ctx, "alice", "token-1"); ok {
		t.Error("displaced token still valid")
	}
	if ok, _ := s.Validate(ctx, "alice", "token-2"); !ok {
		t.Error("new token rejected")
	}
}

func TestSessionDelete(t *testing.T) {
	s, _ := newTestSessionStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "alice", "token-1"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := s.Validate(ctx, "alice", "token-1"); ok {
		t.Error("deleted session still valid")
	}
}

func TestSessionExpires(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "alice", "token-1"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	mr.FastForward(2 * time.Hour)
	if ok, _ := s.Validate(ctx, "alice", "token-1"); ok {
		t.Error("expired session still valid")
	}
}
