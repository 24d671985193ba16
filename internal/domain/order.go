package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// LineItem is the ephemeral cart entry sent by a client. UnitPrice is the
// client's preview price in cents; the server re-reads the catalog price
// when the order is created.
type LineItem struct {
	ItemID    int64  `json:"item_id"`
	Name      string `json:"name,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// OrderItem is a persisted line of an order. Name and UnitPrice are a
// point-in-time snapshot of the menu item, independent of later menu edits.
type OrderItem struct {
	ItemID    int64  `json:"item_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

// Order monetary fields are int64 cents. Invariant:
// TotalPrice == Subtotal + TaxAmount + DeliveryFee - DiscountAmount,
// with TotalPrice >= 0 and DiscountAmount <= Subtotal.
type Order struct {
	ID             int64       `json:"id"`
	CustomerName   string      `json:"customer_name"`
	CustomerEmail  string      `json:"customer_email,omitempty"`
	CustomerPhone  string      `json:"customer_phone,omitempty"`
	Type           OrderType   `json:"order_type"`
	Status         OrderStatus `json:"status"`
	Subtotal       int64       `json:"subtotal"`
	TaxAmount      int64       `json:"tax_amount"`
	DeliveryFee    int64       `json:"delivery_fee"`
	DiscountAmount int64       `json:"discount_amount"`
	TotalPrice     int64       `json:"total_price"`
	PromoCode      string      `json:"promo_code,omitempty"`
	Notes          string      `json:"notes,omitempty"`
	Address        *Address    `json:"delivery_address,omitempty"`
	Items          []OrderItem `json:"items"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
