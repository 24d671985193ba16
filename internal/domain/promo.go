package domain

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
	DiscountDelivery   DiscountType = "delivery"
	DiscountBuy2Get1   DiscountType = "buy2get1"
)

// PromoCode rows are created by administrators and never mutated by the
// pricing engine except for the TimesUsed counter. Codes are matched
// case-insensitively; the canonical form is upper case.
type PromoCode struct {
	ID              int64        `json:"id"`
	Code            string       `json:"code"`
	Description     string       `json:"description"`
	Type            DiscountType `json:"type"`
	DiscountPercent float64      `json:"discount_percent"`
	DiscountAmount  int64        `json:"discount_amount"`
	MinOrderAmount  int64        `json:"min_order_amount"`
	MaxDiscount     *int64       `json:"max_discount,omitempty"`
	IsActive        bool         `json:"is_active"`
	ValidFrom       time.Time    `json:"valid_from"`
	ValidUntil      *time.Time   `json:"valid_until,omitempty"`
	UsageLimit      *int         `json:"usage_limit,omitempty"`
	TimesUsed       int          `json:"times_used"`
}
