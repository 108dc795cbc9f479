package fulfillment

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAvailability(t *testing.T) {
	repo := newMemoryRepo()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	repo.addBatch(Batch{ID: 1, VariantID: 7, OriginalQty: 10, RemainingQty: 10, UnitCost: decimal.NewFromInt(10), ReceivedAt: base, Finalized: true})
	repo.addBatch(Batch{ID: 2, VariantID: 7, OriginalQty: 5, RemainingQty: 5, UnitCost: decimal.NewFromInt(12), ReceivedAt: base.Add(time.Hour), Finalized: true})

	// One order booking 4 units, one already completed (not booking).
	repo.addOrder(Order{ID: 1, Status: OrderStatusDelivering, Lines: []OrderLine{
		{ID: 1, OrderID: 1, VariantID: 7, Quantity: 4, SalePrice: decimal.NewFromInt(20)},
	}})
	repo.addOrder(Order{ID: 2, Status: OrderStatusCompleted, Lines: []OrderLine{
		{ID: 2, OrderID: 2, VariantID: 7, Quantity: 2, SalePrice: decimal.NewFromInt(20)},
	}})

	calc := NewAvailabilityCalculator(repo)
	snapshot, err := calc.Compute(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(15), snapshot.TotalRemaining)
	assert.Equal(t, int64(4), snapshot.Booked)
	assert.Equal(t, int64(11), snapshot.Available)
	assert.Equal(t, StockTagInStock, snapshot.StatusTag)
}

func TestComputeAvailabilityCountsDepletedBatches(t *testing.T) {
	repo := newMemoryRepo()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	repo.addBatch(Batch{ID: 1, VariantID: 7, OriginalQty: 10, RemainingQty: 0, UnitCost: decimal.NewFromInt(10), ReceivedAt: base, Finalized: true})
	repo.addBatch(Batch{ID: 2, VariantID: 7, OriginalQty: 5, RemainingQty: 3, UnitCost: decimal.NewFromInt(12), ReceivedAt: base.Add(time.Hour), Finalized: true})
	repo.addBatch(Batch{ID: 3, VariantID: 7, OriginalQty: 4, RemainingQty: 4, UnitCost: decimal.NewFromInt(9), ReceivedAt: base.Add(2 * time.Hour), Finalized: false})

	calc := NewAvailabilityCalculator(repo)
	snapshot, err := calc.Compute(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(3), snapshot.TotalRemaining, "unfinalized batch excluded, depleted included")
}

func TestComputeAvailabilityOverbooked(t *testing.T) {
	repo := newMemoryRepo()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	repo.addBatch(Batch{ID: 1, VariantID: 7, OriginalQty: 2, RemainingQty: 2, UnitCost: decimal.NewFromInt(10), ReceivedAt: base, Finalized: true})
	repo.addOrder(Order{ID: 1, Status: OrderStatusConfirmedCOD, Lines: []OrderLine{
		{ID: 1, OrderID: 1, VariantID: 7, Quantity: 5, SalePrice: decimal.NewFromInt(20)},
	}})

	calc := NewAvailabilityCalculator(repo)
	snapshot, err := calc.Compute(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(-3), snapshot.Available, "over-booking is a signal, not an error")
	assert.Equal(t, StockTagOutOfStock, snapshot.StatusTag)
}

func TestComputeAvailabilityZeroAvailableIsOutOfStock(t *testing.T) {
	repo := newMemoryRepo()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	repo.addBatch(Batch{ID: 1, VariantID: 7, OriginalQty: 4, RemainingQty: 4, UnitCost: decimal.NewFromInt(10), ReceivedAt: base, Finalized: true})
	repo.addOrder(Order{ID: 1, Status: OrderStatusWaitingPickup, Lines: []OrderLine{
		{ID: 1, OrderID: 1, VariantID: 7, Quantity: 4, SalePrice: decimal.NewFromInt(20)},
	}})

	calc := NewAvailabilityCalculator(repo)
	snapshot, err := calc.Compute(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), snapshot.Available)
	assert.Equal(t, StockTagOutOfStock, snapshot.StatusTag)
}

func TestComputeAvailabilityUnknownVariant(t *testing.T) {
	repo := newMemoryRepo()
	calc := NewAvailabilityCalculator(repo)
	snapshot, err := calc.Compute(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, Availability{VariantID: 99, StatusTag: StockTagOutOfStock}, snapshot)
}
