package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
	"github.com/sweetworks/sweetshop-api/internal/core/port"
	"github.com/sweetworks/sweetshop-api/internal/infra/security"
	"github.com/sweetworks/sweetshop-api/internal/repository"
)

const defaultSweepBatchSize = 500

// RefreshTokenService manages the lifecycle of opaque refresh tokens:
// issuance under a per-user session ceiling, single-use consumption during
// rotation, and bulk revocation.
type RefreshTokenService struct {
	tokens     port.TokenRepository
	ttl        time.Duration
	maxActive  int
	logger     *zap.Logger
	now        func() time.Time
}

// NewRefreshTokenService constructs a RefreshTokenService.
func NewRefreshTokenService(
	tokens port.TokenRepository,
	ttl time.Duration,
	maxActive int,
	logger *zap.Logger,
) *RefreshTokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxActive <= 0 {
		maxActive = 5
	}

	service := &RefreshTokenService{
		tokens:    tokens,
		ttl:       ttl,
		maxActive: maxActive,
		logger:    logger,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the service clock for deterministic tests.
func (s *RefreshTokenService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Issue creates a refresh token for the user and returns the raw secret.
// When the user is already at the session ceiling, every existing session is
// revoked before the new one is created: a sixth login leaves exactly one
// active session.
func (s *RefreshTokenService) Issue(ctx context.Context, userID string, client domain.ClientContext) (string, error) {
	now := s.now()

	count, err := s.tokens.CountValidRefreshTokens(ctx, userID, now)
	if err != nil {
		return "", fmt.Errorf("count refresh tokens: %w", err)
	}

	if count >= s.maxActive {
		revoked, err := s.tokens.RevokeAllRefreshTokensForUser(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("evict refresh tokens: %w", err)
		}
		s.logger.Info("Session ceiling reached, revoked all sessions",
			zap.String("user_id", userID),
			zap.Int("revoked", revoked),
		)
	}

	secret, err := security.GenerateRefreshSecret()
	if err != nil {
		return "", err
	}

	token := domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: security.HashToken(secret),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if ua := strings.TrimSpace(client.UserAgent); ua != "" {
		token.UserAgent = &ua
	}
	if ip := strings.TrimSpace(client.IP); ip != "" {
		token.IP = &ip
	}

	if err := s.tokens.CreateRefreshToken(ctx, token); err != nil {
		return "", fmt.Errorf("create refresh token: %w", err)
	}

	return secret, nil
}

// Consume validates and atomically spends a refresh token, returning the
// record when this caller won. Under N concurrent presentations of the same
// secret, exactly one call succeeds; the rest get ErrInvalidRefreshToken.
func (s *RefreshTokenService) Consume(ctx context.Context, rawSecret string) (*domain.RefreshToken, error) {
	if strings.TrimSpace(rawSecret) == "" {
		return nil, ErrInvalidRefreshToken
	}

	hash := security.HashToken(rawSecret)

	token, err := s.tokens.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("load refresh token: %w", err)
	}

	now := s.now()
	if token.Revoked {
		return nil, ErrInvalidRefreshToken
	}
	if token.IsExpired(now) {
		return nil, ErrExpiredRefreshToken
	}

	won, err := s.tokens.RevokeRefreshToken(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	if !won {
		// Another request spent the token between our read and the
		// compare-and-set. Treat it as already used.
		s.logger.Warn("Refresh token lost rotation race",
			zap.String("user_id", token.UserID),
		)
		return nil, ErrInvalidRefreshToken
	}

	return token, nil
}

// Revoke spends a refresh token without issuing a replacement, used on
// logout. Unknown or already-revoked secrets are not an error so that
// logout stays idempotent.
func (s *RefreshTokenService) Revoke(ctx context.Context, rawSecret string) error {
	if strings.TrimSpace(rawSecret) == "" {
		return nil
	}

	hash := security.HashToken(rawSecret)

	if _, err := s.tokens.RevokeRefreshToken(ctx, hash); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return nil
}

// RevokeAllForUser revokes every active session of the user and reports how
// many were affected.
func (s *RefreshTokenService) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	revoked, err := s.tokens.RevokeAllRefreshTokensForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke all refresh tokens: %w", err)
	}

	return revoked, nil
}

// SweepExpired deletes expired refresh token rows in batches. Returns the
// number of rows removed.
func (s *RefreshTokenService) SweepExpired(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}

	total := 0
	for {
		deleted, err := s.tokens.DeleteExpiredRefreshTokens(ctx, s.now(), batchSize)
		if err != nil {
			return total, fmt.Errorf("sweep refresh tokens: %w", err)
		}

		total += deleted
		if deleted < batchSize {
			return total, nil
		}
	}
}
