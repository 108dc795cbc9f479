package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/harbor-erp/harbor-erp/internal/fulfillment"
	"github.com/harbor-erp/harbor-erp/internal/shared"
)

type warmupStockRepo struct {
	batches map[int64][]fulfillment.Batch
	booked  map[int64]int64
}

func (r *warmupStockRepo) WithTx(ctx context.Context, fn func(context.Context, fulfillment.TxRepository) error) error {
	return nil
}

func (r *warmupStockRepo) GetOrder(context.Context, int64) (fulfillment.Order, error) {
	return fulfillment.Order{}, fulfillment.ErrNotFound
}

func (r *warmupStockRepo) VariantBatches(_ context.Context, variantID int64) ([]fulfillment.Batch, error) {
	return r.batches[variantID], nil
}

func (r *warmupStockRepo) BookedQuantity(_ context.Context, variantID int64) (int64, error) {
	return r.booked[variantID], nil
}

func TestStockWarmupCachesSnapshots(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := &warmupStockRepo{
		batches: map[int64][]fulfillment.Batch{
			7: {
				{ID: 1, VariantID: 7, OriginalQty: 10, RemainingQty: 10, UnitCost: decimal.NewFromInt(3), ReceivedAt: time.Now(), Finalized: true},
				{ID: 2, VariantID: 7, OriginalQty: 5, RemainingQty: 5, UnitCost: decimal.NewFromInt(4), ReceivedAt: time.Now(), Finalized: true},
			},
		},
		booked: map[int64]int64{7: 4},
	}
	calc := fulfillment.NewAvailabilityCalculator(repo)
	job := NewStockWarmupJob(calc, nil, rdb, nil, nil, time.Minute)

	task, err := NewStockWarmupTask(StockWarmupPayload{VariantIDs: []int64{7}})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	raw, err := rdb.Get(context.Background(), shared.StockSnapshotKey(7)).Result()
	require.NoError(t, err)

	var snapshot fulfillment.Availability
	require.NoError(t, json.Unmarshal([]byte(raw), &snapshot))
	require.Equal(t, int64(15), snapshot.TotalRemaining)
	require.Equal(t, int64(4), snapshot.Booked)
	require.Equal(t, int64(11), snapshot.Available)
	require.Equal(t, fulfillment.StockTagInStock, snapshot.StatusTag)

	mr.FastForward(2 * time.Minute)
	_, err = rdb.Get(context.Background(), shared.StockSnapshotKey(7)).Result()
	require.ErrorIs(t, err, redis.Nil)
}

func TestStockWarmupRejectsBadPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	calc := fulfillment.NewAvailabilityCalculator(&warmupStockRepo{})
	job := NewStockWarmupJob(calc, nil, rdb, nil, nil, time.Minute)

	task := asynq.NewTask(TaskStockWarmup, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
