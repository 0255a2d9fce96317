package domain

import "time"

// RefreshToken represents a long-lived session credential with rotation support.
// The raw secret is never persisted; only its SHA-256 hash is stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	UserAgent *string
	IP        *string
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// IsExpired reports whether the token has elapsed its validity window.
func (t RefreshToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// IsValid reports whether the token can still be presented for rotation.
func (t RefreshToken) IsValid(at time.Time) bool {
	return !t.Revoked && !t.IsExpired(at)
}

// BlacklistedToken models a revoked access token identifier (JTI).
// ExpiresAt mirrors the expiry of the token it blocks so that entries can be
// pruned once the token would have died of old age anyway.
type BlacklistedToken struct {
	JTI           string
	ExpiresAt     time.Time
	BlacklistedAt time.Time
	Reason        string
}

// IsExpired reports whether the blacklist entry can be pruned.
func (b BlacklistedToken) IsExpired(at time.Time) bool {
	return !b.ExpiresAt.After(at)
}

// ClientContext carries informational request metadata attached to sessions.
type ClientContext struct {
	UserAgent string
	IP        string
}
