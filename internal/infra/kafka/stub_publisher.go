package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
	"github.com/sweetworks/sweetshop-api/internal/core/port"
	"github.com/sweetworks/sweetshop-api/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(lg *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: lg}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs shop.user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	payload := map[string]any{
		"user_id":       event.UserID,
		"email":         logger.MaskEmail(event.Email),
		"registered_at": event.RegisteredAt,
	}
	p.logEvent("shop.user.registered", event.UserID, event.RegisteredAt, payload)
	return nil
}

// PublishTokenRevoked logs shop.token.revoked events.
func (p *StubPublisher) PublishTokenRevoked(_ context.Context, event domain.TokenRevokedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"jti":        event.JTI,
		"reason":     event.Reason,
		"revoked_at": event.RevokedAt,
	}
	p.logEvent("shop.token.revoked", event.UserID, event.RevokedAt, payload)
	return nil
}

// PublishSessionsRevoked logs shop.sessions.revoked events.
func (p *StubPublisher) PublishSessionsRevoked(_ context.Context, event domain.SessionsRevokedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"reason":     event.Reason,
		"count":      event.Count,
		"revoked_at": event.RevokedAt,
	}
	p.logEvent("shop.sessions.revoked", event.UserID, event.RevokedAt, payload)
	return nil
}

// PublishSweetPurchased logs shop.sweet.purchased events.
func (p *StubPublisher) PublishSweetPurchased(_ context.Context, event domain.SweetPurchasedEvent) error {
	payload := map[string]any{
		"user_id":           event.UserID,
		"sweet_id":          event.SweetID,
		"quantity":          event.Quantity,
		"total_price_cents": event.TotalPriceCents,
		"purchased_at":      event.PurchasedAt,
	}
	p.logEvent("shop.sweet.purchased", event.UserID, event.PurchasedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
