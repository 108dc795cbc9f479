package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harbor-erp/harbor-erp/internal/shared"
)

// Repository persists catalog data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Variant, int, error) {
	pagination := shared.NewPagination(filter.Page, filter.PerPage, 0)
	perPage := pagination.PerPage
	offset := pagination.Offset()

	where := "WHERE 1=1"
	args := []any{}
	if filter.OnlyActive {
		where += " AND active"
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where += fmt.Sprintf(" AND (sku ILIKE $%d OR name ILIKE $%d)", len(args), len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM product_variants `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, perPage, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT id, sku, name, active, created_at
FROM product_variants %s
ORDER BY sku ASC
LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var variants []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.SKU, &v.Name, &v.Active, &v.CreatedAt); err != nil {
			return nil, 0, err
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return variants, total, nil
}

func (r *Repository) Get(ctx context.Context, variantID int64) (Variant, error) {
	var v Variant
	err := r.pool.QueryRow(ctx, `SELECT id, sku, name, active, created_at FROM product_variants WHERE id=$1`, variantID).
		Scan(&v.ID, &v.SKU, &v.Name, &v.Active, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Variant{}, fmt.Errorf("%w: variant %d", ErrNotFound, variantID)
		}
		return Variant{}, err
	}
	return v, nil
}
