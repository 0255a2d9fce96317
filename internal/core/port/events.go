package port

import (
	"context"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
)

// EventPublisher delivers domain lifecycle events to downstream consumers.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error
	PublishSessionsRevoked(ctx context.Context, event domain.SessionsRevokedEvent) error
	PublishSweetPurchased(ctx context.Context, event domain.SweetPurchasedEvent) error
}
