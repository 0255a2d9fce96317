// Package redis implements the revocation cache and rate-limit ports on Redis.
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

const defaultRevocationPrefix = "sweetshop:revoked"

// RevocationCache fronts the durable token blacklist with Redis lookups.
// Entries are written synchronously on revoke, so a hit is always a true
// positive; misses fall through to the database.
type RevocationCache struct {
	client *red.Client
	prefix string
}

// NewRevocationCache wires a Redis client into a revocation cache.
func NewRevocationCache(client *red.Client, keyPrefix string) *RevocationCache {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultRevocationPrefix
	}

	return &RevocationCache{client: client, prefix: prefix}
}

// MarkRevoked stores the supplied JTI with reason and TTL matching the
// remaining token lifetime, so the key evicts itself once the token would
// have expired anyway.
func (r *RevocationCache) MarkRevoked(ctx context.Context, jti string, reason string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	key := r.key(jti)
	if key == "" {
		return errors.New("jti must not be empty")
	}

	if err := r.client.Set(ctx, key, reason, ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked jti: %w", err)
	}

	return nil
}

// IsRevoked reports whether the JTI is cached as revoked and returns the
// stored reason when present.
func (r *RevocationCache) IsRevoked(ctx context.Context, jti string) (bool, string, error) {
	key := r.key(jti)
	if key == "" {
		return false, "", errors.New("jti must not be empty")
	}

	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("redis get revoked jti: %w", err)
	}

	return true, value, nil
}

func (r *RevocationCache) key(jti string) string {
	trimmed := strings.TrimSpace(jti)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", r.prefix, trimmed)
}

var _ port.RevocationCache = (*RevocationCache)(nil)
