package domain

import "time"

// UserRole partitions accounts into customers and shop administrators.
type UserRole string

const (
	// RoleUser can browse, search, and purchase sweets.
	RoleUser UserRole = "user"
	// RoleAdmin can additionally manage inventory.
	RoleAdmin UserRole = "admin"
)

// User represents a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
