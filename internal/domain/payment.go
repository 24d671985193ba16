package domain

import "time"

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCash PaymentMethod = "cash"
)

// Charge is the opaque result of the payment collaborator. The core only
// records it, never interprets it beyond the status.
type Charge struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	CardBrand     string `json:"card_brand"`
	LastFour      string `json:"last_four"`
}

// PaymentTransaction is the audit record written alongside a paid order.
// ResponseHash is an HMAC of the processor response, so the raw payload
// never has to be stored.
type PaymentTransaction struct {
	ID            string        `json:"id"`
	OrderID       int64         `json:"order_id"`
	Amount        int64         `json:"amount"`
	Status        string        `json:"status"`
	Method        PaymentMethod `json:"method"`
	Processor     string        `json:"processor"`
	TransactionID string        `json:"processor_transaction_id"`
	CardBrand     string        `json:"card_brand,omitempty"`
	LastFour      string        `json:"last_four,omitempty"`
	ResponseHash  string        `json:"-"`
	CreatedAt     time.Time     `json:"created_at"`
}
