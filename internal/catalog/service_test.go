package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harbor-erp/harbor-erp/internal/fulfillment"
)

type memoryRepo struct {
	variants []Variant
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]Variant, int, error) {
	var matched []Variant
	for _, v := range m.variants {
		if filter.OnlyActive && !v.Active {
			continue
		}
		matched = append(matched, v)
	}
	total := len(matched)

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *memoryRepo) Get(_ context.Context, variantID int64) (Variant, error) {
	for _, v := range m.variants {
		if v.ID == variantID {
			return v, nil
		}
	}
	return Variant{}, ErrNotFound
}

type stubAvailability struct {
	byVariant map[int64]fulfillment.Availability
}

func (s *stubAvailability) Compute(_ context.Context, variantID int64) (fulfillment.Availability, error) {
	return s.byVariant[variantID], nil
}

func TestListDecoratesWithStock(t *testing.T) {
	repo := &memoryRepo{variants: []Variant{
		{ID: 1, SKU: "TEE-S", Name: "T-Shirt S", Active: true, CreatedAt: time.Now()},
		{ID: 2, SKU: "TEE-M", Name: "T-Shirt M", Active: true, CreatedAt: time.Now()},
	}}
	stock := &stubAvailability{byVariant: map[int64]fulfillment.Availability{
		1: {VariantID: 1, TotalRemaining: 15, Booked: 4, Available: 11, StatusTag: fulfillment.StockTagInStock},
		2: {VariantID: 2, TotalRemaining: 2, Booked: 5, Available: -3, StatusTag: fulfillment.StockTagOutOfStock},
	}}
	svc := NewService(repo, stock)

	items, pagination, err := svc.List(context.Background(), ListFilter{Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 2, pagination.Total)
	require.Equal(t, int64(11), items[0].Stock.Available)
	require.Equal(t, fulfillment.StockTagInStock, items[0].Stock.StatusTag)
	require.Equal(t, int64(-3), items[1].Stock.Available)
	require.Equal(t, fulfillment.StockTagOutOfStock, items[1].Stock.StatusTag)
}

func TestListOnlyActiveFilters(t *testing.T) {
	repo := &memoryRepo{variants: []Variant{
		{ID: 1, SKU: "A", Active: true},
		{ID: 2, SKU: "B", Active: false},
	}}
	svc := NewService(repo, &stubAvailability{byVariant: map[int64]fulfillment.Availability{}})

	items, pagination, err := svc.List(context.Background(), ListFilter{OnlyActive: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int64(1), items[0].ID)
	require.Equal(t, 1, pagination.Total)
}

func TestGetUnknownVariant(t *testing.T) {
	svc := NewService(&memoryRepo{}, &stubAvailability{})

	_, err := svc.Get(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}
