package fulfillment

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/harbor-erp/harbor-erp/internal/shared"
)

type countingReader struct {
	snapshot Availability
	calls    int
}

func (r *countingReader) Compute(_ context.Context, variantID int64) (Availability, error) {
	r.calls++
	snapshot := r.snapshot
	snapshot.VariantID = variantID
	return snapshot, nil
}

func newCacheFixture(t *testing.T, reader *countingReader, ttl time.Duration) (*AvailabilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewAvailabilityCache(reader, rdb, ttl, nil), mr
}

func TestAvailabilityCacheServesWarmedSnapshot(t *testing.T) {
	reader := &countingReader{}
	cache, mr := newCacheFixture(t, reader, time.Minute)

	warmed := Availability{VariantID: 7, TotalRemaining: 15, Booked: 4, Available: 11, StatusTag: StockTagInStock}
	body, err := json.Marshal(warmed)
	require.NoError(t, err)
	require.NoError(t, mr.Set(shared.StockSnapshotKey(7), string(body)))

	got, err := cache.Compute(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, warmed, got)
	require.Zero(t, reader.calls, "cached snapshot must not trigger recomputation")
}

func TestAvailabilityCacheMissComputesAndRepopulates(t *testing.T) {
	reader := &countingReader{snapshot: Availability{TotalRemaining: 9, Booked: 2, Available: 7, StatusTag: StockTagInStock}}
	cache, mr := newCacheFixture(t, reader, time.Minute)

	first, err := cache.Compute(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, int64(7), first.Available)
	require.Equal(t, 1, reader.calls)

	key := shared.StockSnapshotKey(3)
	require.True(t, mr.Exists(key))
	require.Greater(t, mr.TTL(key), time.Duration(0))

	second, err := cache.Compute(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, reader.calls, "repeat read must come from the cache")
}

func TestAvailabilityCacheRecomputesAfterExpiry(t *testing.T) {
	reader := &countingReader{snapshot: Availability{TotalRemaining: 5, Available: 5, StatusTag: StockTagInStock}}
	cache, mr := newCacheFixture(t, reader, time.Minute)

	_, err := cache.Compute(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, 1, reader.calls)

	mr.FastForward(2 * time.Minute)

	_, err = cache.Compute(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, 2, reader.calls)
}

func TestAvailabilityCacheOverwritesCorruptEntry(t *testing.T) {
	reader := &countingReader{snapshot: Availability{TotalRemaining: 2, Available: 2, StatusTag: StockTagInStock}}
	cache, mr := newCacheFixture(t, reader, time.Minute)

	key := shared.StockSnapshotKey(9)
	require.NoError(t, mr.Set(key, "{not json"))

	got, err := cache.Compute(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Available)
	require.Equal(t, 1, reader.calls)

	stored, err := mr.Get(key)
	require.NoError(t, err)
	var snapshot Availability
	require.NoError(t, json.Unmarshal([]byte(stored), &snapshot))
	require.Equal(t, got, snapshot)
}

func TestAvailabilityCacheNilClientDelegates(t *testing.T) {
	reader := &countingReader{snapshot: Availability{TotalRemaining: 1, Available: 1, StatusTag: StockTagInStock}}
	cache := NewAvailabilityCache(reader, nil, time.Minute, nil)

	got, err := cache.Compute(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, int64(2), got.VariantID)
	require.Equal(t, 1, reader.calls)
}
