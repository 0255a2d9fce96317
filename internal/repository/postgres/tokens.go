package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
	"github.com/sweetworks/sweetshop-api/internal/core/port"
	"github.com/sweetworks/sweetshop-api/internal/repository"
)

// TokenRepository implements port.TokenRepository using the refresh_tokens
// and token_blacklist tables.
type TokenRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTokenRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewTokenRepository(exec pgExecutor) *TokenRepository {
	return &TokenRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateRefreshToken inserts a new refresh token record.
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error {
	stmt, args, err := r.builder.Insert("refresh_tokens").
		Columns("id", "user_id", "token_hash", "user_agent", "ip", "created_at", "expires_at", "revoked").
		Values(token.ID, token.UserID, token.TokenHash, token.UserAgent, token.IP, token.CreatedAt, token.ExpiresAt, token.Revoked).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert refresh token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// GetRefreshTokenByHash retrieves a refresh token by its hashed secret.
func (r *TokenRepository) GetRefreshTokenByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	stmt, args, err := r.builder.Select(
		"id", "user_id", "token_hash", "user_agent", "ip", "created_at", "expires_at", "revoked",
	).
		From("refresh_tokens").
		Where(squirrel.Eq{"token_hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select refresh token sql: %w", err)
	}

	var (
		token     domain.RefreshToken
		userAgent sql.NullString
		ip        sql.NullString
	)

	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&userAgent,
		&ip,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.Revoked,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}

	if userAgent.Valid {
		token.UserAgent = &userAgent.String
	}
	if ip.Valid {
		token.IP = &ip.String
	}

	return &token, nil
}

// RevokeRefreshToken flips the revoked flag with a compare-and-set on its
// current value. Exactly one concurrent caller observes an affected row,
// which keeps rotation single-use.
func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, hash string) (bool, error) {
	stmt, args, err := r.builder.Update("refresh_tokens").
		Set("revoked", true).
		Where(squirrel.Eq{"token_hash": hash}).
		Where(squirrel.Eq{"revoked": false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build revoke refresh token sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// CountValidRefreshTokens counts unrevoked, unexpired tokens for a user.
func (r *TokenRepository) CountValidRefreshTokens(ctx context.Context, userID string, now time.Time) (int, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").
		From("refresh_tokens").
		Where(squirrel.Eq{"user_id": userID, "revoked": false}).
		Where(squirrel.Gt{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count refresh tokens sql: %w", err)
	}

	var count int
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan refresh token count: %w", err)
	}

	return count, nil
}

// RevokeAllRefreshTokensForUser revokes every active token of a user and
// reports how many rows were affected.
func (r *TokenRepository) RevokeAllRefreshTokensForUser(ctx context.Context, userID string) (int, error) {
	stmt, args, err := r.builder.Update("refresh_tokens").
		Set("revoked", true).
		Where(squirrel.Eq{"user_id": userID, "revoked": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke all refresh tokens sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke all refresh tokens: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// DeleteExpiredRefreshTokens removes a bounded batch of expired rows so the
// sweep never holds long locks on a large table.
func (r *TokenRepository) DeleteExpiredRefreshTokens(ctx context.Context, expiresBefore time.Time, batchSize int) (int, error) {
	stmt := `DELETE FROM refresh_tokens
		WHERE id IN (
			SELECT id FROM refresh_tokens WHERE expires_at < $1 LIMIT $2
		)`

	tag, err := r.exec.Exec(ctx, stmt, expiresBefore, batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// BlacklistJTI inserts a blacklist entry. A duplicate JTI is treated as
// already-revoked and reported as success.
func (r *TokenRepository) BlacklistJTI(ctx context.Context, entry domain.BlacklistedToken) error {
	stmt, args, err := r.builder.Insert("token_blacklist").
		Columns("jti", "expires_at", "blacklisted_at", "reason").
		Values(entry.JTI, entry.ExpiresAt, entry.BlacklistedAt, entry.Reason).
		Suffix("ON CONFLICT (jti) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert blacklist sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert blacklist entry: %w", err)
	}

	return nil
}

// IsJTIBlacklisted reports whether the JTI has been revoked.
func (r *TokenRepository) IsJTIBlacklisted(ctx context.Context, jti string) (bool, error) {
	stmt, args, err := r.builder.Select("1").
		From("token_blacklist").
		Where(squirrel.Eq{"jti": jti}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select blacklist sql: %w", err)
	}

	var one int
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("scan blacklist entry: %w", err)
	}

	return true, nil
}

// DeleteExpiredBlacklistEntries removes a bounded batch of entries whose
// tokens have outlived their own expiry.
func (r *TokenRepository) DeleteExpiredBlacklistEntries(ctx context.Context, expiresBefore time.Time, batchSize int) (int, error) {
	stmt := `DELETE FROM token_blacklist
		WHERE jti IN (
			SELECT jti FROM token_blacklist WHERE expires_at < $1 LIMIT $2
		)`

	tag, err := r.exec.Exec(ctx, stmt, expiresBefore, batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete expired blacklist entries: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

var _ port.TokenRepository = (*TokenRepository)(nil)
