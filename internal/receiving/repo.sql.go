package receiving

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/harbor-erp/harbor-erp/internal/platform/db"
)

// Repository persists receiving data in PostgreSQL.
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
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("receiving repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *Repository) GetReceipt(ctx context.Context, id int64) (Receipt, error) {
	return scanReceipt(ctx, r.pool, id, "")
}

func (r *txRepository) CreateReceipt(ctx context.Context, receipt Receipt) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchase_receipts (number, supplier_id, status, received_at, note, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW()) RETURNING id`,
		receipt.Number, nullInt(receipt.SupplierID), string(receipt.Status), receipt.ReceivedAt, receipt.Note, nullInt(receipt.CreatedBy)).Scan(&id)
	return id, err
}

func (r *txRepository) InsertLines(ctx context.Context, receiptID int64, lines []ReceiptLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO purchase_receipt_lines (receipt_id, variant_id, qty, unit_cost)
VALUES ($1,$2,$3,$4)`, receiptID, line.VariantID, line.Qty, line.UnitCost.String()); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetReceiptForUpdate(ctx context.Context, id int64) (Receipt, error) {
	return scanReceipt(ctx, r.tx, id, " FOR UPDATE")
}

func (r *txRepository) UpdateReceiptStatus(ctx context.Context, id int64, status ReceiptStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE purchase_receipts SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status))
	return err
}

func (r *txRepository) InsertBatches(ctx context.Context, receipt Receipt) error {
	for _, line := range receipt.Lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO purchase_batches (receipt_id, variant_id, original_qty, remaining_qty, unit_cost, received_at, finalized)
VALUES ($1,$2,$3,$3,$4,$5,TRUE)`, receipt.ID, line.VariantID, line.Qty, line.UnitCost.String(), receipt.ReceivedAt); err != nil {
			return err
		}
	}
	return nil
}

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanReceipt(ctx context.Context, q rowQuerier, id int64, lock string) (Receipt, error) {
	var receipt Receipt
	var status string
	err := q.QueryRow(ctx, `SELECT id, number, COALESCE(supplier_id, 0), status, received_at, note, COALESCE(created_by, 0), created_at, updated_at
FROM purchase_receipts WHERE id=$1`+lock, id).
		Scan(&receipt.ID, &receipt.Number, &receipt.SupplierID, &status, &receipt.ReceivedAt, &receipt.Note, &receipt.CreatedBy, &receipt.CreatedAt, &receipt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Receipt{}, fmt.Errorf("%w: receipt %d", ErrNotFound, id)
		}
		return Receipt{}, err
	}
	receipt.Status = ReceiptStatus(status)

	rows, err := q.Query(ctx, `SELECT id, receipt_id, variant_id, qty, unit_cost::text
FROM purchase_receipt_lines WHERE receipt_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return Receipt{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line ReceiptLine
		var unitCost string
		if err := rows.Scan(&line.ID, &line.ReceiptID, &line.VariantID, &line.Qty, &unitCost); err != nil {
			return Receipt{}, err
		}
		cost, err := decimal.NewFromString(unitCost)
		if err != nil {
			return Receipt{}, fmt.Errorf("receiving: parse unit cost: %w", err)
		}
		line.UnitCost = cost
		receipt.Lines = append(receipt.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
