package catalog

import (
	"errors"
	"time"

	"github.com/harbor-erp/harbor-erp/internal/fulfillment"
)

// Variant is a sellable product variant exposed to listings.
type Variant struct {
	ID        int64     `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// VariantListing pairs a variant with its derived stock snapshot.
type VariantListing struct {
	Variant
	Stock fulfillment.Availability `json:"stock"`
}

// ListFilter narrows variant listings.
type ListFilter struct {
	Query      string
	OnlyActive bool
	Page       int
	PerPage    int
}

// ErrNotFound indicates record missing.
var ErrNotFound = errors.New("catalog: not found")
