package domain

import "time"

// UserRegisteredEvent announces a newly created account.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Email        string
	RegisteredAt time.Time
}

// TokenRevokedEvent announces that an access token was blacklisted.
type TokenRevokedEvent struct {
	EventID   string
	UserID    string
	JTI       string
	Reason    string
	RevokedAt time.Time
}

// SessionsRevokedEvent announces a bulk refresh-token revocation for a user.
type SessionsRevokedEvent struct {
	EventID   string
	UserID    string
	Reason    string
	Count     int
	RevokedAt time.Time
}

// SweetPurchasedEvent announces a completed purchase.
type SweetPurchasedEvent struct {
	EventID         string
	UserID          string
	SweetID         string
	Quantity        int
	TotalPriceCents int64
	PurchasedAt     time.Time
}
