package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
	"github.com/sweetworks/sweetshop-api/internal/core/port"
	"github.com/sweetworks/sweetshop-api/internal/repository"
)

var sweetColumns = []string{
	"id", "name", "category", "price_cents", "quantity",
	"description", "image_url", "created_at", "updated_at",
}

// SweetRepository implements port.SweetRepository backed by PostgreSQL.
type SweetRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSweetRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewSweetRepository(exec pgExecutor) *SweetRepository {
	return &SweetRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new catalog product.
func (r *SweetRepository) Create(ctx context.Context, sweet domain.Sweet) error {
	stmt, args, err := r.builder.Insert("sweets").
		Columns(sweetColumns...).
		Values(
			sweet.ID, sweet.Name, sweet.Category, sweet.PriceCents, sweet.Quantity,
			sweet.Description, sweet.ImageURL, sweet.CreatedAt, sweet.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert sweet sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert sweet: %w", err)
	}

	return nil
}

// GetByID retrieves a product by primary key.
func (r *SweetRepository) GetByID(ctx context.Context, id string) (*domain.Sweet, error) {
	stmt, args, err := r.builder.Select(sweetColumns...).
		From("sweets").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select sweet sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	sweet, err := scanSweet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan sweet: %w", err)
	}

	return sweet, nil
}

// List returns a page of the catalog ordered by name, plus the total count.
func (r *SweetRepository) List(ctx context.Context, page domain.Page) ([]domain.Sweet, int, error) {
	return r.query(ctx, r.builder.Select(sweetColumns...).From("sweets"),
		r.builder.Select("COUNT(*)").From("sweets"), page)
}

// Search returns products matching the filter, plus the total match count.
func (r *SweetRepository) Search(ctx context.Context, filter domain.SweetFilter, page domain.Page) ([]domain.Sweet, int, error) {
	sel := r.builder.Select(sweetColumns...).From("sweets")
	cnt := r.builder.Select("COUNT(*)").From("sweets")

	if name := strings.TrimSpace(filter.Name); name != "" {
		like := squirrel.ILike{"name": "%" + name + "%"}
		sel = sel.Where(like)
		cnt = cnt.Where(like)
	}
	if filter.Category != nil {
		eq := squirrel.Eq{"category": *filter.Category}
		sel = sel.Where(eq)
		cnt = cnt.Where(eq)
	}
	if filter.MinPriceCents != nil {
		gte := squirrel.GtOrEq{"price_cents": *filter.MinPriceCents}
		sel = sel.Where(gte)
		cnt = cnt.Where(gte)
	}
	if filter.MaxPriceCents != nil {
		lte := squirrel.LtOrEq{"price_cents": *filter.MaxPriceCents}
		sel = sel.Where(lte)
		cnt = cnt.Where(lte)
	}

	return r.query(ctx, sel, cnt, page)
}

func (r *SweetRepository) query(ctx context.Context, sel, cnt squirrel.SelectBuilder, page domain.Page) ([]domain.Sweet, int, error) {
	countSQL, countArgs, err := cnt.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count sweets sql: %w", err)
	}

	var total int
	if err := r.exec.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("scan sweets count: %w", err)
	}

	sel = sel.OrderBy("name ASC")
	if page.Size > 0 {
		sel = sel.Limit(uint64(page.Size)).Offset(uint64(page.Offset()))
	}

	stmt, args, err := sel.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build select sweets sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query sweets: %w", err)
	}
	defer rows.Close()

	var sweets []domain.Sweet
	for rows.Next() {
		sweet, err := scanSweet(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan sweet row: %w", err)
		}
		sweets = append(sweets, *sweet)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate sweets: %w", err)
	}

	return sweets, total, nil
}

// Update overwrites the mutable fields of a product.
func (r *SweetRepository) Update(ctx context.Context, sweet domain.Sweet) error {
	stmt, args, err := r.builder.Update("sweets").
		Set("name", sweet.Name).
		Set("category", sweet.Category).
		Set("price_cents", sweet.PriceCents).
		Set("quantity", sweet.Quantity).
		Set("description", sweet.Description).
		Set("image_url", sweet.ImageURL).
		Set("updated_at", sweet.UpdatedAt).
		Where(squirrel.Eq{"id": sweet.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update sweet sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("update sweet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a product from the catalog.
func (r *SweetRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("sweets").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete sweet sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete sweet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AdjustQuantity applies the delta in a single statement guarded against
// going negative, so two concurrent purchases cannot oversell stock.
func (r *SweetRepository) AdjustQuantity(ctx context.Context, id string, delta int) (bool, error) {
	stmt := `UPDATE sweets
		SET quantity = quantity + $1, updated_at = now()
		WHERE id = $2 AND quantity + $1 >= 0`

	tag, err := r.exec.Exec(ctx, stmt, delta, id)
	if err != nil {
		return false, fmt.Errorf("adjust sweet quantity: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func scanSweet(row pgx.Row) (*domain.Sweet, error) {
	var sweet domain.Sweet
	if err := row.Scan(
		&sweet.ID,
		&sweet.Name,
		&sweet.Category,
		&sweet.PriceCents,
		&sweet.Quantity,
		&sweet.Description,
		&sweet.ImageURL,
		&sweet.CreatedAt,
		&sweet.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &sweet, nil
}

var _ port.SweetRepository = (*SweetRepository)(nil)
