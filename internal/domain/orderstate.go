package domain

import "time"

// OrderStatus is the lifecycle state of an order. Transitions only move
// forward: INITIAL -> ACCEPTED -> {COMPLETED, CANCELLED, EXPIRED}, or
// INITIAL -> REJECTED. A closed status is terminal.
type OrderStatus string

const (
	StatusInitial   OrderStatus = "INITIAL"
	StatusAccepted  OrderStatus = "ACCEPTED"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusExpired   OrderStatus = "EXPIRED"
	StatusRejected  OrderStatus = "REJECTED"
)

// Closed reports whether the status is terminal.
func (s OrderStatus) Closed() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusExpired, StatusRejected:
		return true
	}
	return false
}

// Open reports whether an order in this status is still working.
func (s OrderStatus) Open() bool {
	return !s.Closed()
}

// OrderState tracks one order through its lifecycle. Values are immutable;
// Update returns a new state and silently refuses transitions out of a
// terminal status, so a closed order can never re-open.
type OrderState struct {
	Order    Order
	Status   OrderStatus
	OpenedAt time.Time
	ClosedAt time.Time
	Reason   string
}

// NewOrderState wraps a freshly placed order in the INITIAL status.
func NewOrderState(order Order) OrderState {
	return OrderState{Order: order, Status: StatusInitial}
}

// Update advances the state to the given status at the given time. The first
// update stamps OpenedAt; a transition into a terminal status stamps
// ClosedAt. Updates on an already-closed state are no-ops.
func (s OrderState) Update(status OrderStatus, at time.Time) OrderState {
	if s.Status.Closed() {
		return s
	}
	next := s
	next.Status = status
	if next.OpenedAt.IsZero() {
		next.OpenedAt = at
	}
	if status.Closed() {
		next.ClosedAt = at
	}
	return next
}

// Reject closes the state as REJECTED with a reason. Like Update it is a
// no-op on an already-closed state.
func (s OrderState) Reject(at time.Time, reason string) OrderState {
	if s.Status.Closed() {
		return s
	}
	next := s.Update(StatusRejected, at)
	next.Reason = reason
	return next
}
