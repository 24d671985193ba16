package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tavolaeats/tavola/internal/domain"
	"github.com/tavolaeats/tavola/internal/promo"
)

type fakeStore struct {
	nextID    int64
	orders    map[int64]*domain.Order
	payments  map[int64]*domain.PaymentTransaction
	promos    map[string]*domain.PromoCode
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:   1,
		orders:   make(map[int64]*domain.Order),
		payments: make(map[int64]*domain.PaymentTransaction),
		promos:   make(map[string]*domain.PromoCode),
	}
}

func (f *fakeStore) InsertOrder(_ context.Context, order *domain.Order, payment *domain.PaymentTransaction) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	order.ID = f.nextID
	f.nextID++
	f.orders[order.ID] = order
	if payment != nil {
		payment.OrderID = order.ID
		f.payments[order.ID] = payment
	}
	return nil
}

func (f *fakeStore) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	return f.orders[id], nil
}

func (f *fakeStore) ListOrders(_ context.Context, filter ListFilter) ([]domain.Order, error) {
	var out []domain.Order
	for _, order := range f.orders {
		if len(filter.Statuses) > 0 {
			matched := false
			for _, s := range filter.Statuses {
				if s == order.Status {
					matched = true
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, *order)
	}
	return out, nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, id int64, status domain.OrderStatus, at time.Time) (*domain.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	order.Status = status
	order.UpdatedAt = at
	return order, nil
}

func (f *fakeStore) FindPromo(_ context.Context, code string, _ time.Time) (*domain.PromoCode, error) {
	return f.promos[code], nil
}

func (f *fakeStore) IncrementPromoUsage(_ context.Context, promoID int64) error {
	for _, p := range f.promos {
		if p.ID == promoID {
			p.TimesUsed++
		}
	}
	return nil
}

type fakeCatalog struct {
	items map[int64]domain.MenuItem
}

func (f *fakeCatalog) ItemsByIDs(_ context.Context, ids []int64) (map[int64]domain.MenuItem, error) {
	out := make(map[int64]domain.MenuItem)
	for _, id := range ids {
		if item, ok := f.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

type fakePayments struct {
	charge    *domain.Charge
	err       error
	amount    int64
	callCount int
}

func (f *fakePayments) Charge(_ context.Context, amountCents int64, _, _ string) (*domain.Charge, error) {
	f.callCount++
	f.amount = amountCents
	if f.err != nil {
		return nil, f.err
	}
	return f.charge, nil
}

type fakeEvents struct {
	created       []int64
	statusChanges []struct {
		orderID int64
		old     domain.OrderStatus
		new     domain.OrderStatus
		actor   string
	}
}

func (f *fakeEvents) OrderCreated(_ context.Context, order *domain.Order) error {
	f.created = append(f.created, order.ID)
	return nil
}

func (f *fakeEvents) OrderStatusChanged(_ context.Context, order *domain.Order, old domain.OrderStatus, actor string) error {
	f.statusChanges = append(f.statusChanges, struct {
		orderID int64
		old     domain.OrderStatus
		new     domain.OrderStatus
		actor   string
	}{order.ID, old, order.Status, actor})
	return nil
}

type serviceFixture struct {
	service  *Service
	store    *fakeStore
	catalog  *fakeCatalog
	payments *fakePayments
	events   *fakeEvents
}

func newServiceFixture() *serviceFixture {
	store := newFakeStore()
	store.promos["FIRSTORDER"] = &domain.PromoCode{
		ID: 2, Code: "FIRSTORDER", Type: domain.DiscountFixed,
		DiscountAmount: 500, MinOrderAmount: 1500, IsActive: true,
	}

	catalog := &fakeCatalog{items: map[int64]domain.MenuItem{
		1:  {ID: 1, Name: "Classic Burger", Price: 899, IsAvailable: true},
		6:  {ID: 6, Name: "Margherita Pizza", Price: 1299, IsAvailable: true},
		16: {ID: 16, Name: "Coke", Price: 299, IsAvailable: true},
		99: {ID: 99, Name: "Seasonal Special", Price: 1500, IsAvailable: false},
	}}

	payments := &fakePayments{charge: &domain.Charge{
		TransactionID: "txn-1", Status: "COMPLETED", CardBrand: "VISA", LastFour: "1111",
	}}
	events := &fakeEvents{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewService(ServiceConfig{
		Store:      store,
		Catalog:    catalog,
		Promos:     promo.NewEngine(store, logger),
		Payments:   payments,
		Events:     events,
		HashSecret: "test-secret",
		Logger:     logger,
	})
	service.now = func() time.Time {
		return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	}

	return &serviceFixture{service: service, store: store, catalog: catalog, payments: payments, events: events}
}

func validPickupInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerName:  "Ada",
		Type:          domain.OrderTypePickup,
		Items:         []ItemInput{{ItemID: 1, Quantity: 2}, {ItemID: 16, Quantity: 1}},
		PaymentMethod: domain.PaymentMethodCash,
	}
}

func TestService_Create(t *testing.T) {
	t.Run("prices and persists a cash pickup order", func(t *testing.T) {
		fx := newServiceFixture()

		order, err := fx.service.Create(context.Background(), validPickupInput())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// 2*899 + 299 = 2097 subtotal, 8% tax = 168.
		if order.Subtotal != 2097 {
			t.Errorf("expected subtotal 2097, got %d", order.Subtotal)
		}
		if order.TaxAmount != 168 {
			t.Errorf("expected tax 168, got %d", order.TaxAmount)
		}
		if order.DeliveryFee != 0 {
			t.Errorf("expected no delivery fee for pickup, got %d", order.DeliveryFee)
		}
		if order.TotalPrice != 2265 {
			t.Errorf("expected total 2265, got %d", order.TotalPrice)
		}
		if order.Status != domain.OrderStatusPending {
			t.Errorf("expected status pending, got %s", order.Status)
		}
		if len(order.Items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(order.Items))
		}
		if order.Items[0].Name != "Classic Burger" || order.Items[0].UnitPrice != 899 {
			t.Errorf("expected menu snapshot on the line item, got %+v", order.Items[0])
		}
		if len(fx.events.created) != 1 || fx.events.created[0] != order.ID {
			t.Errorf("expected one created event for order %d, got %v", order.ID, fx.events.created)
		}
		if fx.payments.callCount != 0 {
			t.Errorf("cash orders must not hit the payment processor")
		}
	})

	t.Run("applies a validated promo", func(t *testing.T) {
		fx := newServiceFixture()

		in := validPickupInput()
		in.PromoCode = "firstorder"

		order, err := fx.service.Create(context.Background(), in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if order.PromoCode != "FIRSTORDER" {
			t.Errorf("expected promo FIRSTORDER, got %q", order.PromoCode)
		}
		if order.DiscountAmount != 500 {
			t.Errorf("expected discount 500, got %d", order.DiscountAmount)
		}
		if order.TotalPrice != 1765 {
			t.Errorf("expected total 1765, got %d", order.TotalPrice)
		}
		if fx.store.promos["FIRSTORDER"].TimesUsed != 1 {
			t.Errorf("expected promo usage incremented once, got %d", fx.store.promos["FIRSTORDER"].TimesUsed)
		}
	})

	t.Run("promo failure aborts the order", func(t *testing.T) {
		fx := newServiceFixture()

		in := validPickupInput()
		in.PromoCode = "NOPE"

		_, err := fx.service.Create(context.Background(), in)
		if !errors.Is(err, domain.ErrPromoNotFound) {
			t.Fatalf("expected ErrPromoNotFound, got %v", err)
		}
		if len(fx.store.orders) != 0 {
			t.Errorf("no order may be persisted when the promo is rejected")
		}
		if len(fx.events.created) != 0 {
			t.Errorf("no event may be published when the promo is rejected")
		}
	})

	t.Run("promo below minimum aborts the order", func(t *testing.T) {
		fx := newServiceFixture()

		in := CreateOrderInput{
			CustomerName:  "Ada",
			Type:          domain.OrderTypePickup,
			Items:         []ItemInput{{ItemID: 16, Quantity: 1}},
			PromoCode:     "FIRSTORDER",
			PaymentMethod: domain.PaymentMethodCash,
		}

		_, err := fx.service.Create(context.Background(), in)
		var minErr *domain.PromoMinimumError
		if !errors.As(err, &minErr) {
			t.Fatalf("expected PromoMinimumError, got %v", err)
		}
		if len(fx.store.orders) != 0 {
			t.Errorf("no order may be persisted when the promo is rejected")
		}
	})

	t.Run("rejects unavailable menu items", func(t *testing.T) {
		fx := newServiceFixture()

		in := validPickupInput()
		in.Items = []ItemInput{{ItemID: 99, Quantity: 1}}

		_, err := fx.service.Create(context.Background(), in)
		if !errors.Is(err, domain.ErrItemUnavailable) {
			t.Errorf("expected ErrItemUnavailable, got %v", err)
		}
	})

	t.Run("rejects unknown menu items", func(t *testing.T) {
		fx := newServiceFixture()

		in := validPickupInput()
		in.Items = []ItemInput{{ItemID: 12345, Quantity: 1}}

		_, err := fx.service.Create(context.Background(), in)
		if !errors.Is(err, domain.ErrItemUnavailable) {
			t.Errorf("expected ErrItemUnavailable, got %v", err)
		}
	})

	t.Run("rejects a stale client total", func(t *testing.T) {
		fx := newServiceFixture()

		in := validPickupInput()
		stale := int64(1999)
		in.ClientTotal = &stale

		_, err := fx.service.Create(context.Background(), in)
		if !errors.Is(err, domain.ErrQuoteMismatch) {
			t.Fatalf("expected ErrQuoteMismatch, got %v", err)
		}
		if len(fx.store.orders) != 0 {
			t.Errorf("no order may be persisted on a quote mismatch")
		}
	})

	t.Run("tolerates a one-cent client rounding difference", func(t *testing.T) {
		fx := newServiceFixture()

		in := validPickupInput()
		offByOne := int64(2266)
		in.ClientTotal = &offByOne

		if _, err := fx.service.Create(context.Background(), in); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("charges the card for the authoritative total", func(t *testing.T) {
		fx := newServiceFixture()

		in := validPickupInput()
		in.PaymentMethod = domain.PaymentMethodCard
		in.PaymentNonce = "cnon:card-nonce"

		order, err := fx.service.Create(context.Background(), in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if fx.payments.callCount != 1 {
			t.Fatalf("expected one charge, got %d", fx.payments.callCount)
		}
		if fx.payments.amount != order.TotalPrice {
			t.Errorf("expected charge of %d, got %d", order.TotalPrice, fx.payments.amount)
		}

		payment := fx.store.payments[order.ID]
		if payment == nil {
			t.Fatal("expected a payment transaction to be persisted")
		}
		if payment.Processor != "square" || payment.TransactionID != "txn-1" {
			t.Errorf("unexpected payment record: %+v", payment)
		}
		if payment.ResponseHash == "" {
			t.Error("expected a response hash on the payment record")
		}
	})

	t.Run("card without a nonce fails before persisting", func(t *testing.T) {
		fx := newServiceFixture()

		in := validPickupInput()
		in.PaymentMethod = domain.PaymentMethodCard

		_, err := fx.service.Create(context.Background(), in)
		var payErr *domain.PaymentError
		if !errors.As(err, &payErr) {
			t.Fatalf("expected PaymentError, got %v", err)
		}
		if len(fx.store.orders) != 0 {
			t.Errorf("no order may be persisted when payment fails")
		}
	})

	t.Run("declined charge aborts the order", func(t *testing.T) {
		fx := newServiceFixture()
		fx.payments.err = errors.New("payment declined: CARD_DECLINED")

		in := validPickupInput()
		in.PaymentMethod = domain.PaymentMethodCard
		in.PaymentNonce = "cnon:card-nonce"

		_, err := fx.service.Create(context.Background(), in)
		var payErr *domain.PaymentError
		if !errors.As(err, &payErr) {
			t.Fatalf("expected PaymentError, got %v", err)
		}
		if len(fx.store.orders) != 0 {
			t.Errorf("no order may be persisted when the charge is declined")
		}
	})

	t.Run("delivery requires a complete address", func(t *testing.T) {
		fx := newServiceFixture()

		in := validPickupInput()
		in.Type = domain.OrderTypeDelivery
		in.Address = &domain.Address{Street: "1 Main St", City: "Springfield"}

		_, err := fx.service.Create(context.Background(), in)
		if !errors.Is(err, domain.ErrInvalidLineItem) {
			t.Errorf("expected ErrInvalidLineItem, got %v", err)
		}
	})

	t.Run("delivery keeps the address on the order", func(t *testing.T) {
		fx := newServiceFixture()

		in := validPickupInput()
		in.Type = domain.OrderTypeDelivery
		in.Address = &domain.Address{Street: "1 Main St", City: "Springfield", State: "IL", Zip: "62701"}

		order, err := fx.service.Create(context.Background(), in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.Address == nil || order.Address.Zip != "62701" {
			t.Errorf("expected delivery address on the order, got %+v", order.Address)
		}
		if order.DeliveryFee != 0 {
			t.Errorf("expected free delivery above the threshold, got %d", order.DeliveryFee)
		}
	})

	t.Run("rejects empty carts and missing names", func(t *testing.T) {
		fx := newServiceFixture()

		for _, in := range []CreateOrderInput{
			{CustomerName: "", Type: domain.OrderTypePickup, Items: []ItemInput{{ItemID: 1, Quantity: 1}}},
			{CustomerName: "Ada", Type: domain.OrderTypePickup},
			{CustomerName: "Ada", Type: domain.OrderType("drone"), Items: []ItemInput{{ItemID: 1, Quantity: 1}}},
		} {
			if _, err := fx.service.Create(context.Background(), in); !errors.Is(err, domain.ErrInvalidLineItem) {
				t.Errorf("input %+v: expected ErrInvalidLineItem, got %v", in, err)
			}
		}
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		fx := newServiceFixture()
		fx.store.insertErr = errors.New("connection reset")

		_, err := fx.service.Create(context.Background(), validPickupInput())
		if err == nil {
			t.Fatal("expected an error")
		}
		if len(fx.events.created) != 0 {
			t.Errorf("no event may be published when persistence fails")
		}
	})
}

func TestService_UpdateStatus(t *testing.T) {
	t.Run("moves the order one step and publishes the change", func(t *testing.T) {
		fx := newServiceFixture()
		order, err := fx.service.Create(context.Background(), validPickupInput())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		updated, err := fx.service.UpdateStatus(context.Background(), order.ID, domain.OrderStatusPreparing, "kitchen")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if updated.Status != domain.OrderStatusPreparing {
			t.Errorf("expected status preparing, got %s", updated.Status)
		}
		if len(fx.events.statusChanges) != 1 {
			t.Fatalf("expected one status event, got %d", len(fx.events.statusChanges))
		}
		change := fx.events.statusChanges[0]
		if change.old != domain.OrderStatusPending || change.new != domain.OrderStatusPreparing || change.actor != "kitchen" {
			t.Errorf("unexpected status event: %+v", change)
		}
	})

	t.Run("rejects skipping a step", func(t *testing.T) {
		fx := newServiceFixture()
		order, _ := fx.service.Create(context.Background(), validPickupInput())

		_, err := fx.service.UpdateStatus(context.Background(), order.ID, domain.OrderStatusReady, "kitchen")
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
		if len(fx.events.statusChanges) != 0 {
			t.Errorf("no event may be published for a rejected transition")
		}
	})

	t.Run("cancels a pending order", func(t *testing.T) {
		fx := newServiceFixture()
		order, _ := fx.service.Create(context.Background(), validPickupInput())

		updated, err := fx.service.UpdateStatus(context.Background(), order.ID, domain.OrderStatusCancelled, "customer")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Status != domain.OrderStatusCancelled {
			t.Errorf("expected status cancelled, got %s", updated.Status)
		}
	})

	t.Run("terminal orders stay terminal", func(t *testing.T) {
		fx := newServiceFixture()
		order, _ := fx.service.Create(context.Background(), validPickupInput())
		_, _ = fx.service.UpdateStatus(context.Background(), order.ID, domain.OrderStatusCancelled, "customer")

		_, err := fx.service.UpdateStatus(context.Background(), order.ID, domain.OrderStatusPreparing, "kitchen")
		if !errors.Is(err, domain.ErrTerminalState) {
			t.Errorf("expected ErrTerminalState, got %v", err)
		}
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		fx := newServiceFixture()

		_, err := fx.service.UpdateStatus(context.Background(), 42, domain.OrderStatusPreparing, "kitchen")
		if !errors.Is(err, domain.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
	})
}

func TestService_Get(t *testing.T) {
	t.Run("unknown order is not found", func(t *testing.T) {
		fx := newServiceFixture()

		_, err := fx.service.Get(context.Background(), 42)
		if !errors.Is(err, domain.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
	})
}
