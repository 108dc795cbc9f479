package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockWarmup refreshes cached availability snapshots.
	TaskStockWarmup = "stock:warmup"
	// TaskIdempotencyCleanup prunes aged idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// StockWarmupPayload scopes a warmup run. An empty VariantIDs slice means
// every variant with batches on record.
type StockWarmupPayload struct {
	VariantIDs []int64 `json:"variant_ids,omitempty"`
}

// NewStockWarmupTask constructs an Asynq task for availability warmup.
func NewStockWarmupTask(payload StockWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockWarmup, data), nil
}

// IdempotencyCleanupPayload configures retention for the cleanup run.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours,omitempty"`
}

// NewIdempotencyCleanupTask constructs an Asynq task for key cleanup.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
