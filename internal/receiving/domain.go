package receiving

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Receipt lifecycle statuses. Only lines of FINISHED receipts become eligible
// purchase batches.
type ReceiptStatus string

const (
	ReceiptStatusDraft     ReceiptStatus = "DRAFT"
	ReceiptStatusFinished  ReceiptStatus = "FINISHED"
	ReceiptStatusCancelled ReceiptStatus = "CANCELLED"
)

// Receipt is a purchase receipt header.
type Receipt struct {
	ID         int64
	Number     string
	SupplierID int64
	Status     ReceiptStatus
	ReceivedAt time.Time
	Note       string
	CreatedBy  int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Lines      []ReceiptLine
}

// ReceiptLine describes one received lot of a product variant.
type ReceiptLine struct {
	ID        int64
	ReceiptID int64
	VariantID int64
	Qty       int64
	UnitCost  decimal.Decimal
}

var (
	// ErrInvalidState occurs when action violates status workflow.
	ErrInvalidState = errors.New("receiving: invalid state transition")
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("receiving: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("receiving: invalid input")
)
