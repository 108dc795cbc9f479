package fulfillment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// AllocationPolicy decides what happens when eligible batches cannot cover a
// requested quantity.
type AllocationPolicy int

const (
	// AllocationStrict aborts the allocation with ErrInsufficientStock.
	AllocationStrict AllocationPolicy = iota
	// AllocationPartial allocates whatever is available and reports the
	// shortfall. This mirrors the historical behavior of the sales back office
	// and is kept selectable until product decides otherwise.
	AllocationPartial
)

// AllocationResult reports the outcome of a FIFO walk.
type AllocationResult struct {
	// UnitCost is the weighted-average cost over the quantity actually taken.
	UnitCost  decimal.Decimal
	Allocated int64
	Shortfall int64
}

// Allocator deducts cost-of-goods-sold quantities from purchase batches,
// strictly oldest-first. All batch depletion goes through here so the FIFO and
// non-negativity invariants live in one place.
type Allocator struct {
	policy AllocationPolicy
}

// NewAllocator builds an Allocator with the given under-supply policy.
func NewAllocator(policy AllocationPolicy) *Allocator {
	return &Allocator{policy: policy}
}

// Allocate walks the variant's eligible batches in received order, deducting
// from each until qty is satisfied. Each deduction is persisted through tx so
// the surrounding transaction owns atomicity.
func (a *Allocator) Allocate(ctx context.Context, tx TxRepository, variantID, qty int64) (AllocationResult, error) {
	if qty <= 0 {
		return AllocationResult{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}

	batches, err := tx.EligibleBatches(ctx, variantID)
	if err != nil {
		return AllocationResult{}, fmt.Errorf("fulfillment: eligible batches: %w", err)
	}

	needed := qty
	var allocated int64
	totalCost := decimal.Zero
	for _, batch := range batches {
		if needed == 0 {
			break
		}
		take := batch.RemainingQty
		if take > needed {
			take = needed
		}
		if take <= 0 {
			continue
		}
		if err := tx.DeductBatch(ctx, batch.ID, take); err != nil {
			return AllocationResult{}, fmt.Errorf("fulfillment: deduct batch %d: %w", batch.ID, err)
		}
		totalCost = totalCost.Add(batch.UnitCost.Mul(decimal.NewFromInt(take)))
		allocated += take
		needed -= take
	}

	if needed > 0 && a.policy == AllocationStrict {
		return AllocationResult{}, fmt.Errorf("%w: variant=%d requested=%d missing=%d", ErrInsufficientStock, variantID, qty, needed)
	}

	result := AllocationResult{Allocated: allocated, Shortfall: needed}
	if allocated > 0 {
		result.UnitCost = totalCost.Div(decimal.NewFromInt(allocated))
	}
	return result, nil
}
