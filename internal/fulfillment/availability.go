package fulfillment

import (
	"context"
	"fmt"
)

// AvailabilityCalculator reconciles total remaining batch quantity against
// quantities reserved by orders in a booking phase. It is a read path only and
// is never consulted by the completion flow.
type AvailabilityCalculator struct {
	repo RepositoryPort
}

// NewAvailabilityCalculator constructs the calculator.
func NewAvailabilityCalculator(repo RepositoryPort) *AvailabilityCalculator {
	return &AvailabilityCalculator{repo: repo}
}

// Compute derives the stock snapshot for one variant. Depleted batches still
// contribute zero to the total, so completions already show up there.
func (c *AvailabilityCalculator) Compute(ctx context.Context, variantID int64) (Availability, error) {
	batches, err := c.repo.VariantBatches(ctx, variantID)
	if err != nil {
		return Availability{}, fmt.Errorf("fulfillment: variant batches: %w", err)
	}

	var total int64
	for _, batch := range batches {
		total += batch.RemainingQty
	}

	booked, err := c.repo.BookedQuantity(ctx, variantID)
	if err != nil {
		return Availability{}, fmt.Errorf("fulfillment: booked quantity: %w", err)
	}

	available := total - booked
	tag := StockTagOutOfStock
	if available > 0 {
		tag = StockTagInStock
	}
	return Availability{
		VariantID:      variantID,
		TotalRemaining: total,
		Booked:         booked,
		Available:      available,
		StatusTag:      tag,
	}, nil
}
