package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
	"github.com/sweetworks/sweetshop-api/internal/core/port"
	"github.com/sweetworks/sweetshop-api/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserRegistered publishes shop.user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		UserID       string    `json:"user_id"`
		Email        string    `json:"email"`
		RegisteredAt time.Time `json:"registered_at"`
	}{
		UserID:       event.UserID,
		Email:        event.Email,
		RegisteredAt: event.RegisteredAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "shop.user.registered", event.UserID, event.RegisteredAt, payload)
}

// PublishTokenRevoked publishes shop.token.revoked events.
func (p *EventPublisher) PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error {
	payload := struct {
		UserID    string    `json:"user_id"`
		JTI       string    `json:"jti"`
		Reason    string    `json:"reason"`
		RevokedAt time.Time `json:"revoked_at"`
	}{
		UserID:    event.UserID,
		JTI:       event.JTI,
		Reason:    event.Reason,
		RevokedAt: event.RevokedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "shop.token.revoked", event.UserID, event.RevokedAt, payload)
}

// PublishSessionsRevoked publishes shop.sessions.revoked events.
func (p *EventPublisher) PublishSessionsRevoked(ctx context.Context, event domain.SessionsRevokedEvent) error {
	payload := struct {
		UserID    string    `json:"user_id"`
		Reason    string    `json:"reason"`
		Count     int       `json:"count"`
		RevokedAt time.Time `json:"revoked_at"`
	}{
		UserID:    event.UserID,
		Reason:    event.Reason,
		Count:     event.Count,
		RevokedAt: event.RevokedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "shop.sessions.revoked", event.UserID, event.RevokedAt, payload)
}

// PublishSweetPurchased publishes shop.sweet.purchased events.
func (p *EventPublisher) PublishSweetPurchased(ctx context.Context, event domain.SweetPurchasedEvent) error {
	payload := struct {
		UserID          string    `json:"user_id"`
		SweetID         string    `json:"sweet_id"`
		Quantity        int       `json:"quantity"`
		TotalPriceCents int64     `json:"total_price_cents"`
		PurchasedAt     time.Time `json:"purchased_at"`
	}{
		UserID:          event.UserID,
		SweetID:         event.SweetID,
		Quantity:        event.Quantity,
		TotalPriceCents: event.TotalPriceCents,
		PurchasedAt:     event.PurchasedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "shop.sweet.purchased", event.UserID, event.PurchasedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
