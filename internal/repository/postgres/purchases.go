package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
	"github.com/sweetworks/sweetshop-api/internal/core/port"
)

// PurchaseRepository implements port.PurchaseRepository backed by PostgreSQL.
type PurchaseRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPurchaseRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewPurchaseRepository(exec pgExecutor) *PurchaseRepository {
	return &PurchaseRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a purchase history record.
func (r *PurchaseRepository) Create(ctx context.Context, purchase domain.Purchase) error {
	stmt, args, err := r.builder.Insert("purchases").
		Columns("id", "user_id", "sweet_id", "sweet_name", "quantity", "unit_price_cents", "total_price_cents", "purchased_at").
		Values(
			purchase.ID, purchase.UserID, purchase.SweetID, purchase.SweetName,
			purchase.Quantity, purchase.UnitPriceCents, purchase.TotalPriceCents, purchase.PurchasedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert purchase sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}

	return nil
}

// ListByUser returns a page of the user's purchase history, newest first.
func (r *PurchaseRepository) ListByUser(ctx context.Context, userID string, page domain.Page) ([]domain.Purchase, int, error) {
	countSQL, countArgs, err := r.builder.Select("COUNT(*)").
		From("purchases").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count purchases sql: %w", err)
	}

	var total int
	if err := r.exec.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("scan purchases count: %w", err)
	}

	sel := r.builder.Select(
		"id", "user_id", "sweet_id", "sweet_name", "quantity", "unit_price_cents", "total_price_cents", "purchased_at",
	).
		From("purchases").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("purchased_at DESC")

	if page.Size > 0 {
		sel = sel.Limit(uint64(page.Size)).Offset(uint64(page.Offset()))
	}

	stmt, args, err := sel.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build select purchases sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.SweetID,
			&p.SweetName,
			&p.Quantity,
			&p.UnitPriceCents,
			&p.TotalPriceCents,
			&p.PurchasedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan purchase row: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate purchases: %w", err)
	}

	return purchases, total, nil
}

var _ port.PurchaseRepository = (*PurchaseRepository)(nil)
