package port

import (
	"context"
	"time"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
)

// TokenRepository manages refresh token records and the access-token blacklist.
type TokenRepository interface {
	CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (*domain.RefreshToken, error)
	// RevokeRefreshToken flips the revoked flag only when it is currently
	// false and reports whether the swap happened. A false result with a nil
	// error means another caller won the race (or the token was already
	// revoked), which is what makes rotation single-use under concurrency.
	RevokeRefreshToken(ctx context.Context, hash string) (bool, error)
	CountValidRefreshTokens(ctx context.Context, userID string, now time.Time) (int, error)
	RevokeAllRefreshTokensForUser(ctx context.Context, userID string) (int, error)
	DeleteExpiredRefreshTokens(ctx context.Context, expiresBefore time.Time, batchSize int) (int, error)

	// BlacklistJTI inserts an entry keyed by JTI; inserting a duplicate is a no-op.
	BlacklistJTI(ctx context.Context, entry domain.BlacklistedToken) error
	IsJTIBlacklisted(ctx context.Context, jti string) (bool, error)
	DeleteExpiredBlacklistEntries(ctx context.Context, expiresBefore time.Time, batchSize int) (int, error)
}
