package port

import (
	"context"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
)

// PurchaseRepository persists purchase history records.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase domain.Purchase) error
	ListByUser(ctx context.Context, userID string, page domain.Page) ([]domain.Purchase, int, error)
}
