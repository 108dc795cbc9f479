package fulfillment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/harbor-erp/harbor-erp/internal/shared"
)

// RepositoryPort abstracts persistence for the fulfillment engine.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, orderID int64) (Order, error)
	// VariantBatches lists all finalized batches of a variant, depleted ones
	// included, ordered by received_at then id.
	VariantBatches(ctx context.Context, variantID int64) ([]Batch, error)
	// BookedQuantity sums line quantities of orders in a booking-phase status.
	BookedQuantity(ctx context.Context, variantID int64) (int64, error)
}

// TxRepository exposes the transactional operations used during completion.
type TxRepository interface {
	GetOrderForUpdate(ctx context.Context, orderID int64) (Order, error)
	// EligibleBatches lists finalized batches with remaining stock for the
	// variant, locked for update, ordered by received_at then id. The ordering
	// is the FIFO contract the allocator depends on.
	EligibleBatches(ctx context.Context, variantID int64) ([]Batch, error)
	// DeductBatch decrements remaining quantity by take. It fails with
	// ErrConcurrencyConflict when the batch no longer holds take units.
	DeductBatch(ctx context.Context, batchID, take int64) error
	// SetLineCost assigns the write-once cost price. It fails with
	// ErrConcurrencyConflict when the cost was already populated.
	SetLineCost(ctx context.Context, lineID int64, cost decimal.Decimal) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status OrderStatus, actorID int64) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}
