package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/sweetworks/sweetshop-api/internal/core/port"
)

// RateLimitStore counts attempts per key within a fixed window using INCR
// with an expiry set on first increment.
type RateLimitStore struct {
	client *red.Client
	prefix string
}

// NewRateLimitStore wires a Redis client into a rate-limit counter.
func NewRateLimitStore(client *red.Client, keyPrefix string) *RateLimitStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = "sweetshop:ratelimit"
	}

	return &RateLimitStore{client: client, prefix: prefix}
}

// Increment bumps the counter for the key and returns the new count. The
// expiry is only attached when the key is created, fixing the window start.
func (r *RateLimitStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return 0, errors.New("rate limit key must not be empty")
	}
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	fullKey := fmt.Sprintf("%s:%s", r.prefix, trimmed)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis rate limit incr: %w", err)
	}

	return incr.Val(), nil
}

var _ port.RateLimitStore = (*RateLimitStore)(nil)
