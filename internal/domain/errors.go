package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the order and promo core. Handlers select response
// codes with errors.Is; messages are safe to show to customers.
var (
	ErrInvalidLineItem   = errors.New("invalid line item")
	ErrPromoNotFound     = errors.New("invalid or expired promo code")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTerminalState     = errors.New("order is in a terminal state")
	ErrOrderNotFound     = errors.New("order not found")
	ErrItemUnavailable   = errors.New("menu item is not available")
	ErrQuoteMismatch     = errors.New("order total does not match the server-computed total")
	ErrDuplicateRequest  = errors.New("duplicate order submission")
)

// PromoMinimumError reports a subtotal below the code's minimum. The
// message must state the required minimum.
type PromoMinimumError struct {
	Minimum int64
}

func (e *PromoMinimumError) Error() string {
	return fmt.Sprintf("minimum order of $%.2f required for this promo", float64(e.Minimum)/100)
}

// PaymentError wraps a failure surfaced by the payment collaborator.
type PaymentError struct {
	Reason string
	Err    error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment failed: %s: %v", e.Reason, e.Err)
	}
	return "payment failed: " + e.Reason
}

func (e *PaymentError) Unwrap() error { return e.Err }
