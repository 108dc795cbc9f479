package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/harbor-erp/harbor-erp/internal/fulfillment"
	jobmetrics "github.com/harbor-erp/harbor-erp/internal/jobs"
	"github.com/harbor-erp/harbor-erp/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// StockWarmupJob refreshes cached availability snapshots so listing reads do
// not hit the batch ledger on every request.
type StockWarmupJob struct {
	Calculator *fulfillment.AvailabilityCalculator
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	TTL        time.Duration
}

// NewStockWarmupJob wires dependencies for the warmup handler.
func NewStockWarmupJob(calc *fulfillment.AvailabilityCalculator, pool *pgxpool.Pool, rdb *redis.Client, logger *slog.Logger, metrics *jobmetrics.Metrics, ttl time.Duration) *StockWarmupJob {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StockWarmupJob{
		Calculator: calc,
		Pool:       pool,
		Redis:      rdb,
		Logger:     logger,
		Metrics:    metrics,
		TTL:        ttl,
	}
}

// Handle processes stock warmup tasks.
func (j *StockWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Calculator == nil || j.Redis == nil {
		return errors.New("stock warmup: handler not configured")
	}
	var payload StockWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskStockWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	variantIDs := payload.VariantIDs
	if len(variantIDs) == 0 {
		ids, err := j.listVariantIDs(ctx)
		if err != nil {
			resultErr = err
			return resultErr
		}
		variantIDs = ids
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(4)
	for _, variantID := range variantIDs {
		group.Go(func() error {
			return j.warmVariant(groupCtx, variantID)
		})
	}
	if err := group.Wait(); err != nil {
		resultErr = err
		return resultErr
	}

	j.logger().Info("stock warmup finished", slog.Int("variants", len(variantIDs)))
	return nil
}

func (j *StockWarmupJob) warmVariant(ctx context.Context, variantID int64) error {
	availability, err := j.Calculator.Compute(ctx, variantID)
	if err != nil {
		return err
	}
	body, err := json.Marshal(availability)
	if err != nil {
		return err
	}
	return j.Redis.Set(ctx, shared.StockSnapshotKey(variantID), body, j.TTL).Err()
}

func (j *StockWarmupJob) listVariantIDs(ctx context.Context) ([]int64, error) {
	if j.Pool == nil {
		return nil, errors.New("stock warmup: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `SELECT DISTINCT variant_id FROM purchase_batches WHERE finalized ORDER BY variant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (j *StockWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *StockWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
