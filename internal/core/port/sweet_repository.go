package port

import (
	"context"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
)

// SweetRepository exposes persistence behavior for catalog products.
type SweetRepository interface {
	Create(ctx context.Context, sweet domain.Sweet) error
	GetByID(ctx context.Context, id string) (*domain.Sweet, error)
	List(ctx context.Context, page domain.Page) ([]domain.Sweet, int, error)
	Search(ctx context.Context, filter domain.SweetFilter, page domain.Page) ([]domain.Sweet, int, error)
	Update(ctx context.Context, sweet domain.Sweet) error
	Delete(ctx context.Context, id string) error
	// AdjustQuantity atomically applies the delta, refusing to take the
	// quantity below zero. Reports whether the update was applied.
	AdjustQuantity(ctx context.Context, id string, delta int) (bool, error)
}
