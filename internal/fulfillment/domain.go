package fulfillment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Batch is one finalized purchase lot of a product variant. RemainingQty only
// ever decreases after creation and never drops below zero.
type Batch struct {
	ID           int64
	VariantID    int64
	OriginalQty  int64
	RemainingQty int64
	UnitCost     decimal.Decimal
	ReceivedAt   time.Time
	Finalized    bool
}

// Order aggregates the sale lifecycle state the engine operates on. The engine
// only ever writes Status and line cost prices, never quantities or sale prices.
type Order struct {
	ID          int64
	Number      string
	Status      OrderStatus
	Lines       []OrderLine
	CompletedBy int64
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderLine is a single sold item. CostPrice is nil until the order first
// reaches the completed status, after which it is write-once.
type OrderLine struct {
	ID        int64
	OrderID   int64
	VariantID int64
	Quantity  int64
	SalePrice decimal.Decimal
	CostPrice *decimal.Decimal
}

// StockTag is the coarse in/out-of-stock flag derived from availability.
type StockTag string

const (
	StockTagInStock    StockTag = "in_stock"
	StockTagOutOfStock StockTag = "out_of_stock"
)

// Availability is the derived stock snapshot for one variant. Available may be
// negative when bookings exceed remaining stock; that is a signal, not an error.
type Availability struct {
	VariantID      int64    `json:"variant_id"`
	TotalRemaining int64    `json:"total_remaining"`
	Booked         int64    `json:"booked"`
	Available      int64    `json:"available"`
	StatusTag      StockTag `json:"status_tag"`
}

var (
	// ErrInvalidTransition occurs when a status change violates the transition table.
	ErrInvalidTransition = errors.New("fulfillment: invalid status transition")
	// ErrInsufficientStock occurs when eligible batches cannot cover a requested quantity.
	ErrInsufficientStock = errors.New("fulfillment: insufficient stock")
	// ErrConcurrencyConflict occurs when a batch or order changed between read and write.
	ErrConcurrencyConflict = errors.New("fulfillment: concurrent modification")
	// ErrInvalidQuantity indicates a non-positive allocation quantity.
	ErrInvalidQuantity = errors.New("fulfillment: quantity must be positive")
	// ErrNotFound indicates the order does not exist.
	ErrNotFound = errors.New("fulfillment: not found")
)
