package fulfillment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expectedTransitions mirrors the documented lifecycle table.
var expectedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusConfirmedCOD, OrderStatusPaidProcessing, OrderStatusWaitingDeposit, OrderStatusCancelled},
	OrderStatusConfirmedCOD:   {OrderStatusDelivering, OrderStatusWaitingPickup, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusPaidProcessing: {OrderStatusDelivering, OrderStatusWaitingPickup, OrderStatusCompleted, OrderStatusRefunding},
	OrderStatusWaitingDeposit: {OrderStatusDepositPaid, OrderStatusCancelled},
	OrderStatusDepositPaid:    {OrderStatusDelivering, OrderStatusWaitingPickup, OrderStatusCompleted, OrderStatusRefunding},
	OrderStatusDelivering:     {OrderStatusCompleted, OrderStatusRefunding},
	OrderStatusWaitingPickup:  {OrderStatusCompleted, OrderStatusRefunding},
	OrderStatusCancelled:      {OrderStatusPending},
	OrderStatusRefunding:      {OrderStatusRefunded, OrderStatusPending},
	OrderStatusRefunded:       {OrderStatusPending},
	OrderStatusCompleted:      {},
}

func TestTransitionTableCompleteness(t *testing.T) {
	sm := NewStateMachine()
	statuses := AllOrderStatuses()
	require.Len(t, statuses, 11)

	for _, from := range statuses {
		assert.ElementsMatch(t, expectedTransitions[from], sm.AllowedTransitions(from), "allowed transitions from %s", from)
	}

	// CanTransition must agree with set membership for every pair.
	for _, from := range statuses {
		allowed := map[OrderStatus]bool{}
		for _, to := range expectedTransitions[from] {
			allowed[to] = true
		}
		for _, to := range statuses {
			assert.Equal(t, allowed[to], sm.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	sm := NewStateMachine()
	require.Empty(t, sm.AllowedTransitions(OrderStatusCompleted))
	for _, to := range AllOrderStatuses() {
		assert.False(t, sm.CanTransition(OrderStatusCompleted, to))
	}
}

func TestUnknownStatusNeverAllowed(t *testing.T) {
	sm := NewStateMachine()
	unknown := OrderStatus("archived")
	assert.False(t, unknown.IsValid())
	assert.Empty(t, sm.AllowedTransitions(unknown))
	assert.False(t, sm.CanTransition(unknown, OrderStatusPending))
	assert.False(t, sm.CanTransition(OrderStatusPending, unknown))
	assert.False(t, sm.CanTransition("", OrderStatusPending))
}

func TestTransitionMutatesOrder(t *testing.T) {
	sm := NewStateMachine()
	order := &Order{ID: 1, Status: OrderStatusPending}

	require.NoError(t, sm.Transition(order, OrderStatusPaidProcessing))
	assert.Equal(t, OrderStatusPaidProcessing, order.Status)

	err := sm.Transition(order, OrderStatusCancelled)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, OrderStatusPaidProcessing, order.Status, "rejected transition must not mutate")
}

func TestBookingStatuses(t *testing.T) {
	booking := map[OrderStatus]bool{
		OrderStatusConfirmedCOD:   true,
		OrderStatusPaidProcessing: true,
		OrderStatusWaitingDeposit: true,
		OrderStatusDepositPaid:    true,
		OrderStatusDelivering:     true,
		OrderStatusWaitingPickup:  true,
	}
	for _, status := range AllOrderStatuses() {
		assert.Equal(t, booking[status], status.IsBooking(), "booking flag for %s", status)
	}
	assert.Len(t, BookingStatuses(), 6)
}
