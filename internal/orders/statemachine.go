package orders

import (
	"fmt"

	"github.com/tavolaeats/tavola/internal/domain"
)

// Forward transitions follow the kitchen chain one step at a time.
// Cancellation is allowed from any non-terminal state.
var nextStatus = map[domain.OrderStatus]domain.OrderStatus{
	domain.OrderStatusPending:   domain.OrderStatusPreparing,
	domain.OrderStatusPreparing: domain.OrderStatusReady,
	domain.OrderStatusReady:     domain.OrderStatusCompleted,
}

var knownStatus = map[domain.OrderStatus]bool{
	domain.OrderStatusPending:   true,
	domain.OrderStatusPreparing: true,
	domain.OrderStatusReady:     true,
	domain.OrderStatusCompleted: true,
	domain.OrderStatusCancelled: true,
}

// Transition validates a status change request. It returns
// domain.ErrTerminalState when current is completed or cancelled, and
// domain.ErrInvalidTransition for anything outside current's successor
// set (skipping ahead, moving backwards, or re-requesting the current
// status). The order itself is left untouched; callers persist the new
// status and bump updated_at only on a nil return.
func Transition(current, target domain.OrderStatus) error {
	if current.Terminal() {
		return fmt.Errorf("%w: %s order cannot change to %s", domain.ErrTerminalState, current, target)
	}
	if !knownStatus[target] {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, target)
	}
	if target == domain.OrderStatusCancelled {
		return nil
	}
	if nextStatus[current] != target {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current, target)
	}
	return nil
}
