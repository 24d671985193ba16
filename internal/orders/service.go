package orders

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/tavolaeats/tavola/internal/domain"
	"github.com/tavolaeats/tavola/internal/pricing"
	"github.com/tavolaeats/tavola/internal/promo"
)

// Store is the persistence collaborator for orders. InsertOrder persists
// the order, its items, and the optional payment record in one atomic
// unit: an order with items must never be partially persisted. GetOrder
// returns nil without an error when the id is unknown.
type Store interface {
	InsertOrder(ctx context.Context, order *domain.Order, payment *domain.PaymentTransaction) error
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus, at time.Time) (*domain.Order, error)

	promo.Store
}

// Catalog supplies menu lookups used to validate and snapshot line items
// at order-creation time.
type Catalog interface {
	ItemsByIDs(ctx context.Context, ids []int64) (map[int64]domain.MenuItem, error)
}

// PaymentClient charges a card through the external processor. The result
// is opaque; the service only records it.
type PaymentClient interface {
	Charge(ctx context.Context, amountCents int64, sourceToken, note string) (*domain.Charge, error)
}

// EventPublisher emits order lifecycle events. Publication is best-effort;
// failures are logged, never surfaced to the customer.
type EventPublisher interface {
	OrderCreated(ctx context.Context, order *domain.Order) error
	OrderStatusChanged(ctx context.Context, order *domain.Order, old domain.OrderStatus, actor string) error
}

type ListFilter struct {
	Statuses     []domain.OrderStatus
	CustomerName string
}

type ItemInput struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

type CreateOrderInput struct {
	CustomerName  string               `json:"customer_name"`
	CustomerEmail string               `json:"customer_email"`
	CustomerPhone string               `json:"customer_phone"`
	Type          domain.OrderType     `json:"order_type"`
	Address       *domain.Address      `json:"delivery_address"`
	Items         []ItemInput          `json:"items"`
	PromoCode     string               `json:"promo_code"`
	Notes         string               `json:"notes"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	PaymentNonce  string               `json:"payment_nonce"`

	// ClientTotal is the checkout preview total. When present it must
	// match the authoritative total within one cent or the order is
	// rejected.
	ClientTotal *int64 `json:"total_price"`

	// IdempotencyKey guards against double submission when Redis is
	// configured.
	IdempotencyKey string `json:"idempotency_key"`
}

type ServiceConfig struct {
	Store      Store
	Catalog    Catalog
	Promos     *promo.Engine
	Payments   PaymentClient
	Events     EventPublisher
	Redis      *redis.Client
	HashSecret string
	Logger     *slog.Logger
}

type Service struct {
	store      Store
	catalog    Catalog
	promos     *promo.Engine
	payments   PaymentClient
	events     EventPublisher
	rdb        *redis.Client
	hashSecret []byte
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	return &Service{
		store:      cfg.Store,
		catalog:    cfg.Catalog,
		promos:     cfg.Promos,
		payments:   cfg.Payments,
		events:     cfg.Events,
		rdb:        cfg.Redis,
		hashSecret: []byte(cfg.HashSecret),
		logger:     cfg.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and prices the cart, charges card payments, and
// persists the order with status pending. A failed promo validation
// aborts the whole create: the customer fixes or removes the code rather
// than silently losing the discount they expect.
func (s *Service) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if in.CustomerName == "" {
		return nil, fmt.Errorf("%w: customer name is required", domain.ErrInvalidLineItem)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", domain.ErrInvalidLineItem)
	}
	if in.Type != domain.OrderTypeDelivery && in.Type != domain.OrderTypePickup {
		return nil, fmt.Errorf("%w: unknown order type %q", domain.ErrInvalidLineItem, in.Type)
	}
	if in.Type == domain.OrderTypeDelivery && !addressComplete(in.Address) {
		return nil, fmt.Errorf("%w: delivery orders require a complete address", domain.ErrInvalidLineItem)
	}

	if err := s.claimIdempotencyKey(ctx, in.IdempotencyKey); err != nil {
		return nil, err
	}

	lines, err := s.snapshotItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()

	// First pass without a promo validates the line items and yields the
	// subtotal the promo minimum is checked against.
	base, err := pricing.Compute(lines, in.Type, nil)
	if err != nil {
		return nil, err
	}

	var applied *promo.Result
	if in.PromoCode != "" {
		applied, err = s.promos.Validate(ctx, in.PromoCode, base.Subtotal, now)
		if err != nil {
			return nil, err
		}
	}

	quote, err := pricing.Compute(lines, in.Type, applied)
	if err != nil {
		return nil, err
	}

	if in.ClientTotal != nil {
		diff := quote.Total - *in.ClientTotal
		if diff < -1 || diff > 1 {
			return nil, fmt.Errorf("%w: client %d, server %d", domain.ErrQuoteMismatch, *in.ClientTotal, quote.Total)
		}
	}

	var payment *domain.PaymentTransaction
	if in.PaymentMethod == domain.PaymentMethodCard {
		payment, err = s.chargeCard(ctx, in, quote.Total, now)
		if err != nil {
			return nil, err
		}
	}

	order := &domain.Order{
		CustomerName:   in.CustomerName,
		CustomerEmail:  in.CustomerEmail,
		CustomerPhone:  in.CustomerPhone,
		Type:           in.Type,
		Status:         domain.OrderStatusPending,
		Subtotal:       quote.Subtotal,
		TaxAmount:      quote.Tax,
		DeliveryFee:    quote.DeliveryFee,
		DiscountAmount: quote.Discount,
		TotalPrice:     quote.Total,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if applied != nil {
		order.PromoCode = applied.Code
	}
	if in.Type == domain.OrderTypeDelivery {
		order.Address = in.Address
	}
	for _, line := range lines {
		order.Items = append(order.Items, domain.OrderItem{
			ItemID:    line.ItemID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Subtotal:  line.UnitPrice * int64(line.Quantity),
		})
	}

	if err := s.store.InsertOrder(ctx, order, payment); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if s.events != nil {
		if err := s.events.OrderCreated(ctx, order); err != nil {
			s.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	s.logger.Info("order created",
		"order_id", order.ID,
		"order_type", order.Type,
		"total_price", order.TotalPrice,
		"promo_code", order.PromoCode,
	)
	return order, nil
}

// UpdateStatus applies one state-machine transition and persists it.
// actor identifies the view driving the change (kitchen, business,
// customer) and is carried on the emitted event.
func (s *Service) UpdateStatus(ctx context.Context, id int64, target domain.OrderStatus, actor string) (*domain.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}

	if err := Transition(order.Status, target); err != nil {
		return nil, err
	}

	old := order.Status
	updated, err := s.store.UpdateOrderStatus(ctx, id, target, s.now())
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrOrderNotFound
	}

	if s.events != nil {
		if err := s.events.OrderStatusChanged(ctx, updated, old, actor); err != nil {
			s.logger.Error("failed to publish status changed event", "error", err, "order_id", id)
		}
	}

	s.logger.Info("order status updated", "order_id", id, "from", old, "to", target, "actor", actor)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]domain.Order, error) {
	return s.store.ListOrders(ctx, filter)
}

func (s *Service) snapshotItems(ctx context.Context, inputs []ItemInput) ([]domain.LineItem, error) {
	ids := make([]int64, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ItemID)
	}

	menu, err := s.catalog.ItemsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load menu items: %w", err)
	}

	lines := make([]domain.LineItem, 0, len(inputs))
	for _, in := range inputs {
		item, ok := menu[in.ItemID]
		if !ok || !item.IsAvailable {
			return nil, fmt.Errorf("%w: item %d", domain.ErrItemUnavailable, in.ItemID)
		}
		lines = append(lines, domain.LineItem{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  in.Quantity,
		})
	}
	return lines, nil
}

func (s *Service) chargeCard(ctx context.Context, in CreateOrderInput, amount int64, now time.Time) (*domain.PaymentTransaction, error) {
	if s.payments == nil {
		return nil, &domain.PaymentError{Reason: "card payments are not configured"}
	}
	if in.PaymentNonce == "" {
		return nil, &domain.PaymentError{Reason: "payment information required"}
	}

	charge, err := s.payments.Charge(ctx, amount, in.PaymentNonce, "Order - "+in.CustomerName)
	if err != nil {
		return nil, &domain.PaymentError{Reason: "processor rejected the charge", Err: err}
	}

	return &domain.PaymentTransaction{
		ID:            uuid.New().String(),
		Amount:        amount,
		Status:        "completed",
		Method:        domain.PaymentMethodCard,
		Processor:     "square",
		TransactionID: charge.TransactionID,
		CardBrand:     charge.CardBrand,
		LastFour:      charge.LastFour,
		ResponseHash:  s.hashChargeResponse(charge, amount, now),
		CreatedAt:     now,
	}, nil
}

// hashChargeResponse keeps an HMAC audit trail of the processor response
// without storing the raw payload.
func (s *Service) hashChargeResponse(charge *domain.Charge, amount int64, at time.Time) string {
	mac := hmac.New(sha256.New, s.hashSecret)
	fmt.Fprintf(mac, "%s|%d|%s", charge.TransactionID, amount, at.Format(time.RFC3339Nano))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Service) claimIdempotencyKey(ctx context.Context, key string) error {
	if s.rdb == nil || key == "" {
		return nil
	}
	ok, err := s.rdb.SetNX(ctx, "order-idempotency:"+key, 1, 24*time.Hour).Result()
	if err != nil {
		// The guard is an extra; a Redis outage must not block checkout.
		s.logger.Warn("idempotency check unavailable", "error", err)
		return nil
	}
	if !ok {
		return domain.ErrDuplicateRequest
	}
	return nil
}

func addressComplete(a *domain.Address) bool {
	return a != nil && a.Street != "" && a.City != "" && a.State != "" && a.Zip != ""
}
