package promo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/tavolaeats/tavola/internal/domain"
)

// Store is the promo slice of the persistence collaborator. FindPromo
// returns nil without an error when no eligible code matches: the row must
// be active, not expired at now, and under its usage limit. Expired and
// exhausted codes are therefore indistinguishable from unknown ones here.
type Store interface {
	FindPromo(ctx context.Context, code string, now time.Time) (*domain.PromoCode, error)
	IncrementPromoUsage(ctx context.Context, promoID int64) error
}

// Result is a validated promo application against a specific subtotal.
type Result struct {
	Code        string              `json:"code"`
	Description string              `json:"description"`
	Type        domain.DiscountType `json:"type"`
	Discount    int64               `json:"discount_amount"`
}

type Engine struct {
	store  Store
	logger *slog.Logger
}

func NewEngine(store Store, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// Validate checks code against orderSubtotal (cents) and computes the
// discount it grants. On success the code's usage counter is incremented;
// the increment is best-effort and not atomic with order placement, so a
// validated-but-abandoned checkout still consumes a usage slot.
func (e *Engine) Validate(ctx context.Context, code string, orderSubtotal int64, now time.Time) (*Result, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, domain.ErrPromoNotFound
	}

	promo, err := e.store.FindPromo(ctx, normalized, now)
	if err != nil {
		return nil, fmt.Errorf("find promo: %w", err)
	}
	if promo == nil {
		return nil, domain.ErrPromoNotFound
	}

	// Inclusive boundary: a subtotal equal to the minimum passes.
	if orderSubtotal < promo.MinOrderAmount {
		return nil, &domain.PromoMinimumError{Minimum: promo.MinOrderAmount}
	}

	discount := Discount(promo, orderSubtotal)

	// Two concurrent validations of a near-exhausted code can both pass the
	// usage check before either increments. The limit is soft; a missed
	// increment only costs an extra redemption.
	if err := e.store.IncrementPromoUsage(ctx, promo.ID); err != nil {
		e.logger.Warn("failed to increment promo usage", "error", err, "code", promo.Code)
	}

	return &Result{
		Code:        promo.Code,
		Description: promo.Description,
		Type:        promo.Type,
		Discount:    discount,
	}, nil
}

// Discount computes the cents a code grants against subtotal, before any
// usage accounting. Percentage discounts round half-up; every type is
// clamped to MaxDiscount when set and never exceeds the subtotal.
func Discount(promo *domain.PromoCode, subtotal int64) int64 {
	var discount int64

	switch promo.Type {
	case domain.DiscountPercentage:
		discount = int64(math.Round(float64(subtotal) * promo.DiscountPercent / 100))
	case domain.DiscountFixed, domain.DiscountDelivery, domain.DiscountBuy2Get1:
		// Flat amount. MaxDiscount usually equals DiscountAmount for these
		// types, but the clamp below must not assume that.
		discount = promo.DiscountAmount
	}

	if promo.MaxDiscount != nil && discount > *promo.MaxDiscount {
		discount = *promo.MaxDiscount
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}
