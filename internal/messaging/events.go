package messaging

import (
	"context"
	"strconv"
	"time"

	"github.com/tavolaeats/tavola/internal/domain"
)

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
)

// OrderEvents publishes order lifecycle events, one topic per event kind,
// keyed by order id so per-order ordering is preserved.
type OrderEvents struct {
	created *Producer
	status  *Producer
}

func NewOrderEvents(brokers []string) *OrderEvents {
	return &OrderEvents{
		created: NewProducer(brokers, TopicOrderCreated),
		status:  NewProducer(brokers, TopicOrderStatusChanged),
	}
}

func (e *OrderEvents) OrderCreated(ctx context.Context, order *domain.Order) error {
	return e.created.Publish(ctx, strconv.FormatInt(order.ID, 10), domain.OrderCreatedEvent{
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		OrderType:    order.Type,
		TotalPrice:   order.TotalPrice,
		Items:        order.Items,
		Timestamp:    time.Now().UTC(),
	})
}

func (e *OrderEvents) OrderStatusChanged(ctx context.Context, order *domain.Order, old domain.OrderStatus, actor string) error {
	return e.status.Publish(ctx, strconv.FormatInt(order.ID, 10), domain.OrderStatusChangedEvent{
		OrderID:       order.ID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		OldStatus:     old,
		NewStatus:     order.Status,
		Actor:         actor,
		Timestamp:     time.Now().UTC(),
	})
}

func (e *OrderEvents) Close() error {
	err := e.created.Close()
	if cerr := e.status.Close(); err == nil {
		err = cerr
	}
	return err
}
