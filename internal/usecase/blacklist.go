package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
	"github.com/sweetworks/sweetshop-api/internal/core/port"
)

// BlacklistService tracks revoked access tokens by JTI. PostgreSQL is the
// authoritative store; Redis fronts it as a write-through cache so the hot
// path rarely touches the database.
type BlacklistService struct {
	tokens    port.TokenRepository
	cache     port.RevocationCache
	publisher port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewBlacklistService constructs a BlacklistService. The cache and publisher
// are optional.
func NewBlacklistService(
	tokens port.TokenRepository,
	cache port.RevocationCache,
	publisher port.EventPublisher,
	logger *zap.Logger,
) *BlacklistService {
	if logger == nil {
		logger = zap.NewNop()
	}

	service := &BlacklistService{
		tokens:    tokens,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the service clock for deterministic tests.
func (s *BlacklistService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Revoke blacklists the JTI until the token's own expiry. Revoking an
// already-revoked JTI is a no-op, so retries and double logouts are safe.
func (s *BlacklistService) Revoke(ctx context.Context, userID, jti string, expiresAt time.Time, reason string) error {
	if strings.TrimSpace(jti) == "" {
		return ErrInvalidAccessToken
	}

	now := s.now()

	entry := domain.BlacklistedToken{
		JTI:           jti,
		ExpiresAt:     expiresAt,
		BlacklistedAt: now,
		Reason:        reason,
	}

	if err := s.tokens.BlacklistJTI(ctx, entry); err != nil {
		return fmt.Errorf("blacklist jti: %w", err)
	}

	// Written after the durable insert succeeds so a cache hit is always a
	// true positive. The TTL tracks the token's remaining lifetime.
	if s.cache != nil {
		if ttl := expiresAt.Sub(now); ttl > 0 {
			if err := s.cache.MarkRevoked(ctx, jti, reason, ttl); err != nil {
				s.logger.Warn("Failed to cache revoked jti",
					zap.String("jti", jti),
					zap.Error(err),
				)
			}
		}
	}

	if s.publisher != nil {
		event := domain.TokenRevokedEvent{
			EventID:   uuid.NewString(),
			UserID:    userID,
			JTI:       jti,
			Reason:    reason,
			RevokedAt: now,
		}
		if err := s.publisher.PublishTokenRevoked(ctx, event); err != nil {
			s.logger.Warn("Failed to publish token revoked event", zap.Error(err))
		}
	}

	return nil
}

// IsRevoked reports whether the JTI has been revoked. The cache is consulted
// first; a miss or cache failure falls through to the database.
func (s *BlacklistService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, ErrInvalidAccessToken
	}

	if s.cache != nil {
		revoked, _, err := s.cache.IsRevoked(ctx, jti)
		if err != nil {
			s.logger.Warn("Revocation cache lookup failed, falling back to database",
				zap.Error(err),
			)
		} else if revoked {
			return true, nil
		}
	}

	revoked, err := s.tokens.IsJTIBlacklisted(ctx, jti)
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return revoked, nil
}

// SweepExpired prunes blacklist entries whose tokens have expired on their
// own. Returns the number of rows removed.
func (s *BlacklistService) SweepExpired(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}

	total := 0
	for {
		deleted, err := s.tokens.DeleteExpiredBlacklistEntries(ctx, s.now(), batchSize)
		if err != nil {
			return total, fmt.Errorf("sweep blacklist: %w", err)
		}

		total += deleted
		if deleted < batchSize {
			return total, nil
		}
	}
}
