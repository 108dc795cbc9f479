package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/harbor-erp/harbor-erp/internal/platform/db"
)

// Repository persists fulfillment data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
// Serialization failures surface as ErrConcurrencyConflict so the caller can
// retry the whole unit of work.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("fulfillment repository not initialised")
	}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
	if err != nil && db.IsSerializationFailure(err) {
		return fmt.Errorf("%w: %v", ErrConcurrencyConflict, err)
	}
	return err
}

func (r *Repository) GetOrder(ctx context.Context, orderID int64) (Order, error) {
	return scanOrder(ctx, r.pool, orderID, "")
}

func (r *Repository) VariantBatches(ctx context.Context, variantID int64) ([]Batch, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, variant_id, original_qty, remaining_qty, unit_cost::text, received_at, finalized
FROM purchase_batches
WHERE variant_id=$1 AND finalized
ORDER BY received_at ASC, id ASC`, variantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBatches(rows)
}

func (r *Repository) BookedQuantity(ctx context.Context, variantID int64) (int64, error) {
	statuses := BookingStatuses()
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	var booked int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(l.qty), 0)
FROM sales_order_lines l
JOIN sales_orders o ON o.id = l.order_id
WHERE l.variant_id=$1 AND o.status = ANY($2)`, variantID, names).Scan(&booked)
	return booked, err
}

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *txRepository) GetOrderForUpdate(ctx context.Context, orderID int64) (Order, error) {
	return scanOrder(ctx, r.tx, orderID, " FOR UPDATE")
}

func (r *txRepository) EligibleBatches(ctx context.Context, variantID int64) ([]Batch, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, variant_id, original_qty, remaining_qty, unit_cost::text, received_at, finalized
FROM purchase_batches
WHERE variant_id=$1 AND finalized AND remaining_qty > 0
ORDER BY received_at ASC, id ASC
FOR UPDATE`, variantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBatches(rows)
}

func (r *txRepository) DeductBatch(ctx context.Context, batchID, take int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE purchase_batches
SET remaining_qty = remaining_qty - $2
WHERE id=$1 AND remaining_qty >= $2`, batchID, take)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: batch %d depleted concurrently", ErrConcurrencyConflict, batchID)
	}
	return nil
}

func (r *txRepository) SetLineCost(ctx context.Context, lineID int64, cost decimal.Decimal) error {
	tag, err := r.tx.Exec(ctx, `UPDATE sales_order_lines
SET cost_price=$2
WHERE id=$1 AND cost_price IS NULL`, lineID, cost.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: cost already assigned for line %d", ErrConcurrencyConflict, lineID)
	}
	return nil
}

func (r *txRepository) UpdateOrderStatus(ctx context.Context, orderID int64, status OrderStatus, actorID int64) error {
	var err error
	if status == OrderStatusCompleted {
		_, err = r.tx.Exec(ctx, `UPDATE sales_orders
SET status=$2, completed_by=$3, completed_at=NOW(), updated_at=NOW()
WHERE id=$1`, orderID, string(status), nullInt(actorID))
	} else {
		_, err = r.tx.Exec(ctx, `UPDATE sales_orders SET status=$2, updated_at=NOW() WHERE id=$1`, orderID, string(status))
	}
	return err
}

func scanOrder(ctx context.Context, q rowQuerier, orderID int64, lock string) (Order, error) {
	var order Order
	var status string
	err := q.QueryRow(ctx, `SELECT id, number, status, COALESCE(completed_by, 0), completed_at, created_at, updated_at
FROM sales_orders WHERE id=$1`+lock, orderID).
		Scan(&order.ID, &order.Number, &status, &order.CompletedBy, &order.CompletedAt, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return Order{}, err
	}
	order.Status = OrderStatus(status)

	rows, err := q.Query(ctx, `SELECT id, order_id, variant_id, qty, sale_price::text, cost_price::text
FROM sales_order_lines WHERE order_id=$1 ORDER BY id ASC`, orderID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line OrderLine
		var salePrice string
		var costPrice *string
		if err := rows.Scan(&line.ID, &line.OrderID, &line.VariantID, &line.Quantity, &salePrice, &costPrice); err != nil {
			return Order{}, err
		}
		line.SalePrice, err = decimal.NewFromString(salePrice)
		if err != nil {
			return Order{}, fmt.Errorf("fulfillment: parse sale price: %w", err)
		}
		if costPrice != nil {
			cost, err := decimal.NewFromString(*costPrice)
			if err != nil {
				return Order{}, fmt.Errorf("fulfillment: parse cost price: %w", err)
			}
			line.CostPrice = &cost
		}
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return Order{}, err
	}
	return order, nil
}

func scanBatches(rows pgx.Rows) ([]Batch, error) {
	var batches []Batch
	for rows.Next() {
		var batch Batch
		var unitCost string
		if err := rows.Scan(&batch.ID, &batch.VariantID, &batch.OriginalQty, &batch.RemainingQty, &unitCost, &batch.ReceivedAt, &batch.Finalized); err != nil {
			return nil, err
		}
		cost, err := decimal.NewFromString(unitCost)
		if err != nil {
			return nil, fmt.Errorf("fulfillment: parse unit cost: %w", err)
		}
		batch.UnitCost = cost
		batches = append(batches, batch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return batches, nil
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
