package port

import (
	"context"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
)

// UserRepository exposes persistence behavior for accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
