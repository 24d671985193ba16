// Package memory is an in-memory implementation of the order store and
// catalog, selected explicitly at startup with STORE=memory. It exists
// for local development and tests; it is never a runtime fallback for a
// failing database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tavolaeats/tavola/internal/domain"
	"github.com/tavolaeats/tavola/internal/orders"
)

type Store struct {
	mu       sync.Mutex
	nextID   int64
	orders   map[int64]*domain.Order
	payments map[int64]*domain.PaymentTransaction
	promos   map[string]*domain.PromoCode
	items    map[int64]domain.MenuItem
	cats     []domain.MenuCategory
}

func NewStore() *Store {
	s := &Store{
		nextID:   1,
		orders:   make(map[int64]*domain.Order),
		payments: make(map[int64]*domain.PaymentTransaction),
		promos:   make(map[string]*domain.PromoCode),
		items:    make(map[int64]domain.MenuItem),
	}
	s.seed()
	return s
}

func (s *Store) InsertOrder(_ context.Context, order *domain.Order, payment *domain.PaymentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order.ID = s.nextID
	s.nextID++

	clone := cloneOrder(order)
	s.orders[order.ID] = clone
	if payment != nil {
		payment.OrderID = order.ID
		p := *payment
		s.payments[order.ID] = &p
	}
	return nil
}

func (s *Store) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(order), nil
}

func (s *Store) ListOrders(_ context.Context, filter orders.ListFilter) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Order
	for _, order := range s.orders {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, order.Status) {
			continue
		}
		if filter.CustomerName != "" &&
			!strings.Contains(strings.ToLower(order.CustomerName), strings.ToLower(filter.CustomerName)) {
			continue
		}
		out = append(out, *cloneOrder(order))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if out == nil {
		out = []domain.Order{}
	}
	return out, nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, id int64, status domain.OrderStatus, at time.Time) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	order.Status = status
	order.UpdatedAt = at
	return cloneOrder(order), nil
}

func (s *Store) FindPromo(_ context.Context, code string, now time.Time) (*domain.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	promo, ok := s.promos[code]
	if !ok || !promo.IsActive {
		return nil, nil
	}
	if promo.ValidUntil != nil && !promo.ValidUntil.After(now) {
		return nil, nil
	}
	if promo.UsageLimit != nil && promo.TimesUsed >= *promo.UsageLimit {
		return nil, nil
	}
	p := *promo
	return &p, nil
}

func (s *Store) IncrementPromoUsage(_ context.Context, promoID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, promo := range s.promos {
		if promo.ID == promoID {
			promo.TimesUsed++
			return nil
		}
	}
	return nil
}

// AddPromo registers or replaces a promo code. Used by tests and by the
// seeded development catalog.
func (s *Store) AddPromo(promo domain.PromoCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promos[strings.ToUpper(promo.Code)] = &promo
}

// AddMenuItem registers or replaces a menu item.
func (s *Store) AddMenuItem(item domain.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

func (s *Store) ItemsByIDs(_ context.Context, ids []int64) (map[int64]domain.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int64]domain.MenuItem, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (s *Store) ListItems(_ context.Context) ([]domain.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.MenuItem
	for _, item := range s.items {
		if item.IsAvailable {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CategoryID == out[j].CategoryID {
			return out[i].Name < out[j].Name
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.MenuCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.MenuCategory, len(s.cats))
	copy(out, s.cats)
	return out, nil
}

func (s *Store) ItemsByCategory(_ context.Context, categoryID int64) ([]domain.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.MenuItem
	for _, item := range s.items {
		if item.CategoryID == categoryID && item.IsAvailable {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if out == nil {
		out = []domain.MenuItem{}
	}
	return out, nil
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.Items = make([]domain.OrderItem, len(order.Items))
	copy(clone.Items, order.Items)
	if order.Address != nil {
		addr := *order.Address
		clone.Address = &addr
	}
	return &clone
}

func containsStatus(statuses []domain.OrderStatus, status domain.OrderStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
