package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/harbor-erp/harbor-erp/internal/shared"
)

// MetricsPort lets the orchestrator report engine counters.
type MetricsPort interface {
	ObserveCompletion(outcome string)
	ObserveAllocation(quantity int64)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// Policy controls under-supply behavior during allocation.
	Policy AllocationPolicy
	// MaxRetries bounds whole-call retries on concurrency conflicts.
	MaxRetries int
}

// Service is the fulfillment orchestrator, the only component that mutates
// order status and batch quantities. Status changes, cost assignments and
// batch deductions of one Complete call commit as a single transaction.
type Service struct {
	repo      RepositoryPort
	machine   *StateMachine
	allocator *Allocator
	audit     AuditPort
	metrics   MetricsPort
	retries   int
}

// NewService builds the orchestrator.
func NewService(repo RepositoryPort, audit AuditPort, metrics MetricsPort, cfg ServiceConfig) *Service {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &Service{
		repo:      repo,
		machine:   NewStateMachine(),
		allocator: NewAllocator(cfg.Policy),
		audit:     audit,
		metrics:   metrics,
		retries:   retries,
	}
}

// StateMachine exposes the transition table for callers validating a status
// change before mutating anything.
func (s *Service) StateMachine() *StateMachine {
	return s.machine
}

// Complete finalizes an order: validates the transition into completed,
// allocates cost against batches for every line, assigns write-once cost
// prices and commits the status change atomically. Conflicting concurrent
// completions are retried as a whole a bounded number of times.
func (s *Service) Complete(ctx context.Context, orderID, actorID int64) (Order, error) {
	var order Order
	var err error
	for attempt := 0; attempt < s.retries; attempt++ {
		order, err = s.complete(ctx, orderID, actorID)
		if err == nil || !errors.Is(err, ErrConcurrencyConflict) {
			break
		}
	}
	if err != nil {
		s.observeCompletion(err)
		return Order{}, err
	}
	s.observeCompletion(nil)
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "fulfillment:complete",
			Entity:   "sales_order",
			EntityID: fmt.Sprintf("%d", orderID),
			Meta: map[string]any{
				"order_id": orderID,
				"lines":    len(order.Lines),
			},
		})
	}
	return order, nil
}

func (s *Service) complete(ctx context.Context, orderID, actorID int64) (Order, error) {
	var out Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !s.machine.CanTransition(order.Status, OrderStatusCompleted) {
			return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, order.Status, OrderStatusCompleted)
		}
		for i := range order.Lines {
			line := &order.Lines[i]
			if line.VariantID == 0 || line.Quantity <= 0 {
				continue
			}
			if line.CostPrice != nil {
				// Cost already assigned on a previous attempt that never
				// reached completed; keep the original basis.
				continue
			}
			result, err := s.allocator.Allocate(ctx, tx, line.VariantID, line.Quantity)
			if err != nil {
				return err
			}
			if err := tx.SetLineCost(ctx, line.ID, result.UnitCost); err != nil {
				return err
			}
			cost := result.UnitCost
			line.CostPrice = &cost
			if s.metrics != nil {
				s.metrics.ObserveAllocation(result.Allocated)
			}
		}
		if err := tx.UpdateOrderStatus(ctx, orderID, OrderStatusCompleted, actorID); err != nil {
			return err
		}
		order.Status = OrderStatusCompleted
		order.CompletedBy = actorID
		out = order
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return out, nil
}

// GetOrder loads an order with its lines.
func (s *Service) GetOrder(ctx context.Context, orderID int64) (Order, error) {
	return s.repo.GetOrder(ctx, orderID)
}

func (s *Service) observeCompletion(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.ObserveCompletion("completed")
	case errors.Is(err, ErrInvalidTransition):
		s.metrics.ObserveCompletion("invalid_transition")
	case errors.Is(err, ErrInsufficientStock):
		s.metrics.ObserveCompletion("insufficient_stock")
	case errors.Is(err, ErrConcurrencyConflict):
		s.metrics.ObserveCompletion("conflict")
	default:
		s.metrics.ObserveCompletion("error")
	}
}
