package pricing

import (
	"errors"
	"testing"

	"github.com/tavolaeats/tavola/internal/domain"
	"github.com/tavolaeats/tavola/internal/promo"
)

func TestCompute(t *testing.T) {
	t.Run("pickup order never pays a delivery fee", func(t *testing.T) {
		items := []domain.LineItem{
			{ItemID: 1, Name: "Classic Burger", UnitPrice: 2500, Quantity: 1},
		}

		quote, err := Compute(items, domain.OrderTypePickup, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if quote.Subtotal != 2500 {
			t.Errorf("expected subtotal 2500, got %d", quote.Subtotal)
		}
		if quote.Tax != 200 {
			t.Errorf("expected tax 200, got %d", quote.Tax)
		}
		if quote.DeliveryFee != 0 {
			t.Errorf("expected no delivery fee, got %d", quote.DeliveryFee)
		}
		if quote.Total != 2700 {
			t.Errorf("expected total 2700, got %d", quote.Total)
		}
	})

	t.Run("delivery under the free threshold pays the flat fee", func(t *testing.T) {
		items := []domain.LineItem{
			{ItemID: 1, Name: "Classic Burger", UnitPrice: 1500, Quantity: 1},
		}
		applied := &promo.Result{Code: "FIRSTORDER", Type: domain.DiscountFixed, Discount: 500}

		quote, err := Compute(items, domain.OrderTypeDelivery, applied)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if quote.Tax != 120 {
			t.Errorf("expected tax 120, got %d", quote.Tax)
		}
		if quote.DeliveryFee != StandardDeliveryFee {
			t.Errorf("expected delivery fee %d, got %d", StandardDeliveryFee, quote.DeliveryFee)
		}
		if quote.Discount != 500 {
			t.Errorf("expected discount 500, got %d", quote.Discount)
		}
		if quote.Total != 1419 {
			t.Errorf("expected total 1419, got %d", quote.Total)
		}
	})

	t.Run("delivery exactly at the threshold still pays the fee", func(t *testing.T) {
		items := []domain.LineItem{
			{ItemID: 1, Name: "Combo", UnitPrice: 2000, Quantity: 1},
		}

		quote, err := Compute(items, domain.OrderTypeDelivery, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if quote.DeliveryFee != StandardDeliveryFee {
			t.Errorf("expected delivery fee %d at the threshold, got %d", StandardDeliveryFee, quote.DeliveryFee)
		}
	})

	t.Run("delivery above the threshold is free", func(t *testing.T) {
		items := []domain.LineItem{
			{ItemID: 1, Name: "Combo", UnitPrice: 2001, Quantity: 1},
		}

		quote, err := Compute(items, domain.OrderTypeDelivery, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if quote.DeliveryFee != 0 {
			t.Errorf("expected no delivery fee above the threshold, got %d", quote.DeliveryFee)
		}
	})

	t.Run("delivery promo waives the fee", func(t *testing.T) {
		items := []domain.LineItem{
			{ItemID: 1, Name: "Classic Burger", UnitPrice: 899, Quantity: 1},
		}
		applied := &promo.Result{Code: "FREESHIP", Type: domain.DiscountDelivery, Discount: 399}

		quote, err := Compute(items, domain.OrderTypeDelivery, applied)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if quote.DeliveryFee != 0 {
			t.Errorf("expected delivery fee waived, got %d", quote.DeliveryFee)
		}
		if quote.Discount != 399 {
			t.Errorf("expected discount 399, got %d", quote.Discount)
		}
	})

	t.Run("percentage discount leaves the invariant intact", func(t *testing.T) {
		items := []domain.LineItem{
			{ItemID: 1, Name: "Party Platter", UnitPrice: 10000, Quantity: 1},
		}
		applied := &promo.Result{Code: "SAVE20", Type: domain.DiscountPercentage, Discount: 2000}

		quote, err := Compute(items, domain.OrderTypePickup, applied)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if quote.Discount != 2000 {
			t.Errorf("expected discount 2000, got %d", quote.Discount)
		}
		if quote.Total != quote.Subtotal+quote.Tax+quote.DeliveryFee-quote.Discount {
			t.Errorf("total %d violates the breakdown invariant", quote.Total)
		}
	})

	t.Run("discount never exceeds the subtotal", func(t *testing.T) {
		items := []domain.LineItem{
			{ItemID: 16, Name: "Coke", UnitPrice: 299, Quantity: 1},
		}
		applied := &promo.Result{Code: "BIGFIXED", Type: domain.DiscountFixed, Discount: 1000}

		quote, err := Compute(items, domain.OrderTypePickup, applied)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if quote.Discount != 299 {
			t.Errorf("expected discount clamped to 299, got %d", quote.Discount)
		}
		if quote.Total < 0 {
			t.Errorf("total must never be negative, got %d", quote.Total)
		}
	})

	t.Run("identical inputs produce identical quotes", func(t *testing.T) {
		items := []domain.LineItem{
			{ItemID: 6, Name: "Margherita Pizza", UnitPrice: 1299, Quantity: 3},
			{ItemID: 16, Name: "Coke", UnitPrice: 299, Quantity: 2},
		}
		applied := &promo.Result{Code: "SAVE20", Type: domain.DiscountPercentage, Discount: 899}

		first, err := Compute(items, domain.OrderTypeDelivery, applied)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := Compute(items, domain.OrderTypeDelivery, applied)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if first != second {
			t.Errorf("expected identical quotes, got %+v and %+v", first, second)
		}
	})

	t.Run("tax rounds half-up to cents", func(t *testing.T) {
		// 1231 * 0.08 = 98.48 -> 98; 1232 * 0.08 = 98.56 -> 99.
		for _, tc := range []struct {
			price int64
			tax   int64
		}{
			{1231, 98},
			{1232, 99},
		} {
			items := []domain.LineItem{{ItemID: 1, Name: "Item", UnitPrice: tc.price, Quantity: 1}}
			quote, err := Compute(items, domain.OrderTypePickup, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if quote.Tax != tc.tax {
				t.Errorf("subtotal %d: expected tax %d, got %d", tc.price, tc.tax, quote.Tax)
			}
		}
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		items := []domain.LineItem{{ItemID: 1, Name: "Item", UnitPrice: 899, Quantity: 0}}

		_, err := Compute(items, domain.OrderTypePickup, nil)
		if !errors.Is(err, domain.ErrInvalidLineItem) {
			t.Errorf("expected ErrInvalidLineItem, got %v", err)
		}
	})

	t.Run("rejects quantity above the maximum", func(t *testing.T) {
		items := []domain.LineItem{{ItemID: 1, Name: "Item", UnitPrice: 899, Quantity: MaxItemQuantity + 1}}

		_, err := Compute(items, domain.OrderTypePickup, nil)
		if !errors.Is(err, domain.ErrInvalidLineItem) {
			t.Errorf("expected ErrInvalidLineItem, got %v", err)
		}
	})

	t.Run("rejects negative unit price", func(t *testing.T) {
		items := []domain.LineItem{{ItemID: 1, Name: "Item", UnitPrice: -1, Quantity: 1}}

		_, err := Compute(items, domain.OrderTypePickup, nil)
		if !errors.Is(err, domain.ErrInvalidLineItem) {
			t.Errorf("expected ErrInvalidLineItem, got %v", err)
		}
	})
}
