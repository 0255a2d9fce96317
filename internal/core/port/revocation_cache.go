package port

import (
	"context"
	"time"
)

// RevocationCache fronts the durable blacklist with a fast lookup. Entries
// are written synchronously on revoke, so a cache hit is always a true
// positive; a miss must fall through to the durable store.
type RevocationCache interface {
	MarkRevoked(ctx context.Context, jti string, reason string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, string, error)
}

// RateLimitStore tracks request attempts within a sliding window.
type RateLimitStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}
