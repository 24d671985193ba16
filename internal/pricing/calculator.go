// Package pricing derives order totals from cart line items. All inputs
// and outputs are int64 cents; fractional intermediates (tax, percentage
// discounts) are computed in float64 and rounded half-up to cents exactly
// once, so repeated calls with identical inputs always produce identical
// results.
package pricing

import (
	"fmt"
	"math"

	"github.com/tavolaeats/tavola/internal/domain"
	"github.com/tavolaeats/tavola/internal/promo"
)

const (
	TaxRate               = 0.08
	FreeDeliveryThreshold = 2000 // cents; delivery is free strictly above this
	StandardDeliveryFee   = 299  // cents
	MaxItemQuantity       = 99
)

// Quote is the priced breakdown of a cart. Total is always
// Subtotal + Tax + DeliveryFee - Discount, clamped at zero.
type Quote struct {
	Subtotal    int64 `json:"subtotal"`
	Tax         int64 `json:"tax"`
	DeliveryFee int64 `json:"delivery_fee"`
	Discount    int64 `json:"discount"`
	Total       int64 `json:"total"`
}

// Compute prices items for the given order type with an optional validated
// promo. It is a pure function: no side effects, no clock, no store.
func Compute(items []domain.LineItem, orderType domain.OrderType, applied *promo.Result) (Quote, error) {
	var subtotal int64
	for i, item := range items {
		if item.UnitPrice < 0 {
			return Quote{}, fmt.Errorf("%w: item %d has negative unit price %d", domain.ErrInvalidLineItem, i, item.UnitPrice)
		}
		if item.Quantity < 1 || item.Quantity > MaxItemQuantity {
			return Quote{}, fmt.Errorf("%w: item %d has quantity %d, want 1..%d", domain.ErrInvalidLineItem, i, item.Quantity, MaxItemQuantity)
		}
		subtotal += item.UnitPrice * int64(item.Quantity)
	}

	tax := roundCents(float64(subtotal) * TaxRate)

	var deliveryFee int64
	if orderType == domain.OrderTypeDelivery && subtotal <= FreeDeliveryThreshold {
		if applied == nil || applied.Type != domain.DiscountDelivery {
			deliveryFee = StandardDeliveryFee
		}
	}

	var discount int64
	if applied != nil {
		discount = applied.Discount
		if discount > subtotal {
			discount = subtotal
		}
	}

	total := subtotal + tax + deliveryFee - discount
	if total < 0 {
		total = 0
	}

	return Quote{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: deliveryFee,
		Discount:    discount,
		Total:       total,
	}, nil
}

// roundCents rounds half away from zero, which is half-up for the
// non-negative amounts handled here.
func roundCents(v float64) int64 {
	return int64(math.Round(v))
}
