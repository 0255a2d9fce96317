package domain

import "time"

// Purchase records a completed checkout of a single product line.
type Purchase struct {
	ID              string
	UserID          string
	SweetID         string
	SweetName       string
	Quantity        int
	UnitPriceCents  int64
	TotalPriceCents int64
	PurchasedAt     time.Time
}
