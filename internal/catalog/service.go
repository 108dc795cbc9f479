package catalog

import (
	"context"
	"fmt"

	"github.com/harbor-erp/harbor-erp/internal/fulfillment"
	"github.com/harbor-erp/harbor-erp/internal/shared"
)

// RepositoryPort abstracts variant persistence.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter) ([]Variant, int, error)
	Get(ctx context.Context, variantID int64) (Variant, error)
}

// AvailabilityPort is the decoupled read path into the fulfillment engine.
type AvailabilityPort interface {
	Compute(ctx context.Context, variantID int64) (fulfillment.Availability, error)
}

// Service serves catalog listings decorated with stock figures.
type Service struct {
	repo         RepositoryPort
	availability AvailabilityPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, availability AvailabilityPort) *Service {
	return &Service{repo: repo, availability: availability}
}

// List returns one page of variants with their stock snapshots.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]VariantListing, shared.Pagination, error) {
	variants, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("catalog: list variants: %w", err)
	}
	listings := make([]VariantListing, 0, len(variants))
	for _, variant := range variants {
		stock, err := s.availability.Compute(ctx, variant.ID)
		if err != nil {
			return nil, shared.Pagination{}, fmt.Errorf("catalog: availability for variant %d: %w", variant.ID, err)
		}
		listings = append(listings, VariantListing{Variant: variant, Stock: stock})
	}
	return listings, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Get returns one variant with its stock snapshot.
func (s *Service) Get(ctx context.Context, variantID int64) (VariantListing, error) {
	variant, err := s.repo.Get(ctx, variantID)
	if err != nil {
		return VariantListing{}, err
	}
	stock, err := s.availability.Compute(ctx, variantID)
	if err != nil {
		return VariantListing{}, fmt.Errorf("catalog: availability for variant %d: %w", variantID, err)
	}
	return VariantListing{Variant: variant, Stock: stock}, nil
}
