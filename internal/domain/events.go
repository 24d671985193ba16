package domain

import "time"

type OrderCreatedEvent struct {
	OrderID      int64       `json:"order_id"`
	CustomerName string      `json:"customer_name"`
	OrderType    OrderType   `json:"order_type"`
	TotalPrice   int64       `json:"total_price"`
	Items        []OrderItem `json:"items"`
	Timestamp    time.Time   `json:"timestamp"`
}

type OrderStatusChangedEvent struct {
	OrderID       int64       `json:"order_id"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email,omitempty"`
	OldStatus     OrderStatus `json:"old_status"`
	NewStatus     OrderStatus `json:"new_status"`
	Actor         string      `json:"actor,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}
