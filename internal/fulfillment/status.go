package fulfillment

import "fmt"

// OrderStatus enumerates the order lifecycle statuses.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmedCOD   OrderStatus = "confirmed_cod"
	OrderStatusPaidProcessing OrderStatus = "paid_processing"
	OrderStatusWaitingDeposit OrderStatus = "waiting_deposit"
	OrderStatusDepositPaid    OrderStatus = "deposit_paid"
	OrderStatusDelivering     OrderStatus = "delivering"
	OrderStatusWaitingPickup  OrderStatus = "waiting_pickup"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunding      OrderStatus = "refunding"
	OrderStatusRefunded       OrderStatus = "refunded"
)

// AllOrderStatuses returns every known status.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmedCOD,
		OrderStatusPaidProcessing,
		OrderStatusWaitingDeposit,
		OrderStatusDepositPaid,
		OrderStatusDelivering,
		OrderStatusWaitingPickup,
		OrderStatusCompleted,
		OrderStatusCancelled,
		OrderStatusRefunding,
		OrderStatusRefunded,
	}
}

// IsValid reports whether s is a known status.
func (s OrderStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) String() string {
	return string(s)
}

// transitions is the allowed-transition table. Completed is terminal.
var transitions = map[OrderStatus][]OrderStatus{
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

// bookingStatuses are the phases during which ordered quantities count as
// reserved against available stock.
var bookingStatuses = map[OrderStatus]struct{}{
	OrderStatusConfirmedCOD:   {},
	OrderStatusPaidProcessing: {},
	OrderStatusWaitingDeposit: {},
	OrderStatusDepositPaid:    {},
	OrderStatusDelivering:     {},
	OrderStatusWaitingPickup:  {},
}

// IsBooking reports whether quantities in this status are reserved.
func (s OrderStatus) IsBooking() bool {
	_, ok := bookingStatuses[s]
	return ok
}

// BookingStatuses returns the booking-phase statuses in declaration order.
func BookingStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusConfirmedCOD,
		OrderStatusPaidProcessing,
		OrderStatusWaitingDeposit,
		OrderStatusDepositPaid,
		OrderStatusDelivering,
		OrderStatusWaitingPickup,
	}
}

// StateMachine validates order status transitions.
type StateMachine struct{}

// NewStateMachine constructs the state machine over the fixed transition table.
func NewStateMachine() *StateMachine {
	return &StateMachine{}
}

// CanTransition checks if a transition from `from` to `to` is valid. Unknown
// statuses are never allowed.
func (sm *StateMachine) CanTransition(from, to OrderStatus) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	if !to.IsValid() {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns all statuses reachable from `from`.
func (sm *StateMachine) AllowedTransitions(from OrderStatus) []OrderStatus {
	allowed, ok := transitions[from]
	if !ok {
		return []OrderStatus{}
	}
	result := make([]OrderStatus, len(allowed))
	copy(result, allowed)
	return result
}

// Transition mutates the order status after validating the move.
func (sm *StateMachine) Transition(order *Order, to OrderStatus) error {
	if !sm.CanTransition(order.Status, to) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, order.Status, to)
	}
	order.Status = to
	return nil
}
