package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
	"github.com/sweetworks/sweetshop-api/internal/repository"
)

func TestTokenRepository_RevokeRefreshToken_Wins(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	mock.ExpectExec(`UPDATE refresh_tokens SET revoked = \$1 WHERE token_hash = \$2 AND revoked = \$3`).
		WithArgs(true, "hash-1", false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.RevokeRefreshToken(context.Background(), "hash-1")
	if err != nil {
		t.Fatalf("RevokeRefreshToken returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected revoke to win the compare-and-set")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTokenRepository_RevokeRefreshToken_LostRace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	// Zero rows affected: another caller already flipped the flag.
	mock.ExpectExec(`UPDATE refresh_tokens SET revoked = \$1 WHERE token_hash = \$2 AND revoked = \$3`).
		WithArgs(true, "hash-1", false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.RevokeRefreshToken(context.Background(), "hash-1")
	if err != nil {
		t.Fatalf("RevokeRefreshToken returned error: %v", err)
	}
	if ok {
		t.Fatal("expected revoke to report lost race")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTokenRepository_GetRefreshTokenByHash_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	mock.ExpectQuery(`SELECT id, user_id, token_hash, user_agent, ip, created_at, expires_at, revoked FROM refresh_tokens`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "token_hash", "user_agent", "ip", "created_at", "expires_at", "revoked",
		}))

	_, err = repo.GetRefreshTokenByHash(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTokenRepository_BlacklistJTI_DuplicateIsNoOp(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	entry := domain.BlacklistedToken{
		JTI:           "jti-1",
		ExpiresAt:     now.Add(time.Hour),
		BlacklistedAt: now,
		Reason:        "logout",
	}

	// ON CONFLICT DO NOTHING reports zero rows for the duplicate; the call
	// still succeeds.
	mock.ExpectExec(`INSERT INTO token_blacklist .* ON CONFLICT \(jti\) DO NOTHING`).
		WithArgs(entry.JTI, entry.ExpiresAt, entry.BlacklistedAt, entry.Reason).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	if err := repo.BlacklistJTI(context.Background(), entry); err != nil {
		t.Fatalf("BlacklistJTI returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTokenRepository_IsJTIBlacklisted(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	mock.ExpectQuery(`SELECT 1 FROM token_blacklist WHERE jti = \$1`).
		WithArgs("jti-1").
		WillReturnRows(pgxmock.NewRows([]string{"1"}).AddRow(1))

	revoked, err := repo.IsJTIBlacklisted(context.Background(), "jti-1")
	if err != nil {
		t.Fatalf("IsJTIBlacklisted returned error: %v", err)
	}
	if !revoked {
		t.Fatal("expected JTI to be reported revoked")
	}

	mock.ExpectQuery(`SELECT 1 FROM token_blacklist WHERE jti = \$1`).
		WithArgs("jti-2").
		WillReturnRows(pgxmock.NewRows([]string{"1"}))

	revoked, err = repo.IsJTIBlacklisted(context.Background(), "jti-2")
	if err != nil {
		t.Fatalf("IsJTIBlacklisted returned error: %v", err)
	}
	if revoked {
		t.Fatal("expected unknown JTI to be reported clean")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTokenRepository_DeleteExpiredRefreshTokens(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	cutoff := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM refresh_tokens`).
		WithArgs(cutoff, 100).
		WillReturnResult(pgxmock.NewResult("DELETE", 42))

	deleted, err := repo.DeleteExpiredRefreshTokens(context.Background(), cutoff, 100)
	if err != nil {
		t.Fatalf("DeleteExpiredRefreshTokens returned error: %v", err)
	}
	if deleted != 42 {
		t.Fatalf("expected 42 deleted, got %d", deleted)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
