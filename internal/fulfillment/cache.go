package fulfillment

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harbor-erp/harbor-erp/internal/shared"
)

// AvailabilityReader serves stock snapshots for one variant.
type AvailabilityReader interface {
	Compute(ctx context.Context, variantID int64) (Availability, error)
}

// AvailabilityCache serves snapshots from Redis and falls back to the
// underlying calculator on a miss, repopulating the key so the warmup job and
// request-path reads share the same entries.
type AvailabilityCache struct {
	inner  AvailabilityReader
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewAvailabilityCache builds the cache. A nil client degrades to direct
// computation.
func NewAvailabilityCache(inner AvailabilityReader, client *redis.Client, ttl time.Duration, logger *slog.Logger) *AvailabilityCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AvailabilityCache{inner: inner, client: client, ttl: ttl, logger: logger}
}

// Compute returns the cached snapshot when present, otherwise recomputes and
// stores it. Redis failures never fail the read, only downgrade it.
func (c *AvailabilityCache) Compute(ctx context.Context, variantID int64) (Availability, error) {
	if c == nil || c.client == nil {
		return c.inner.Compute(ctx, variantID)
	}
	key := shared.StockSnapshotKey(variantID)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var snapshot Availability
		if err := json.Unmarshal(payload, &snapshot); err == nil {
			return snapshot, nil
		}
		// Corrupt entry, recompute and overwrite below.
	} else if err != redis.Nil {
		c.log().Warn("availability cache read", slog.Int64("variant_id", variantID), slog.Any("error", err))
	}

	snapshot, err := c.inner.Compute(ctx, variantID)
	if err != nil {
		return Availability{}, err
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return snapshot, nil
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log().Warn("availability cache write", slog.Int64("variant_id", variantID), slog.Any("error", err))
	}
	return snapshot, nil
}

func (c *AvailabilityCache) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}
