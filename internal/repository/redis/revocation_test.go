package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestRevocationCache_MarkAndCheck(t *testing.T) {
	client, _ := newTestRedis(t)
	cache := NewRevocationCache(client, "revoked")

	ctx := context.Background()

	if err := cache.MarkRevoked(ctx, "jti-123", "user_logout", 2*time.Minute); err != nil {
		t.Fatalf("MarkRevoked returned error: %v", err)
	}

	revoked, reason, err := cache.IsRevoked(ctx, "jti-123")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if !revoked {
		t.Fatal("expected jti to be marked revoked")
	}
	if reason != "user_logout" {
		t.Fatalf("expected stored reason, got %q", reason)
	}
}

func TestRevocationCache_MissIsClean(t *testing.T) {
	client, _ := newTestRedis(t)
	cache := NewRevocationCache(client, "revoked")

	revoked, reason, err := cache.IsRevoked(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if revoked || reason != "" {
		t.Fatalf("expected clean miss, got revoked=%v reason=%q", revoked, reason)
	}
}

func TestRevocationCache_EntryExpires(t *testing.T) {
	client, server := newTestRedis(t)
	cache := NewRevocationCache(client, "revoked")

	ctx := context.Background()

	if err := cache.MarkRevoked(ctx, "jti-ttl", "rotation", time.Minute); err != nil {
		t.Fatalf("MarkRevoked returned error: %v", err)
	}

	server.FastForward(2 * time.Minute)

	revoked, _, err := cache.IsRevoked(ctx, "jti-ttl")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if revoked {
		t.Fatal("expected entry to expire with the token window")
	}
}

func TestRevocationCache_RejectsEmptyJTI(t *testing.T) {
	client, _ := newTestRedis(t)
	cache := NewRevocationCache(client, "revoked")

	if err := cache.MarkRevoked(context.Background(), "  ", "reason", time.Minute); err == nil {
		t.Fatal("expected error for empty jti")
	}
	if _, _, err := cache.IsRevoked(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty jti")
	}
}

func TestRateLimitStore_Increment(t *testing.T) {
	client, server := newTestRedis(t)
	store := NewRateLimitStore(client, "ratelimit")

	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := store.Increment(ctx, "login:1.2.3.4", time.Minute)
		if err != nil {
			t.Fatalf("Increment returned error: %v", err)
		}
		if got != want {
			t.Fatalf("count = %d, want %d", got, want)
		}
	}

	// The window resets once the key expires.
	server.FastForward(2 * time.Minute)

	got, err := store.Increment(ctx, "login:1.2.3.4", time.Minute)
	if err != nil {
		t.Fatalf("Increment returned error: %v", err)
	}
	if got != 1 {
		t.Fatalf("count after window = %d, want 1", got)
	}
}
