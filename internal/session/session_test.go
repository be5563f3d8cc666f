package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, time.Hour), mr
}

func TestCreateAndResolve(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	token, err := store.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	userID, ok, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !ok || userID != "u1" {
		t.Errorf("Resolve = (%q, %v), want (u1, true)", userID, ok)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, ok, err := store.Resolve(ctx, "not-a-token")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ok {
		t.Error("unknown token must not resolve")
	}

	_, ok, err = store.Resolve(ctx, "")
	if err != nil || ok {
		t.Errorf("empty token: (ok=%v, err=%v), want (false, nil)", ok, err)
	}
}

func TestDestroyKillsToken(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	token, err := store.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Destroy(ctx, token); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	_, ok, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ok {
		t.Error("destroyed token must not resolve")
	}
}

func TestTokenExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	token, err := store.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	_, ok, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ok {
		t.Error("expired token must not resolve")
	}
}
