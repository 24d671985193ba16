package memory

import "github.com/tavolaeats/tavola/internal/domain"

// seed loads the standing promo codes and a small menu so a memory-backed
// instance is usable out of the box.
func (s *Store) seed() {
	maxCents := func(c int64) *int64 { return &c }

	promos := []domain.PromoCode{
		{ID: 1, Code: "SAVE20", Description: "20% off your order", Type: domain.DiscountPercentage, DiscountPercent: 20, MinOrderAmount: 2500, MaxDiscount: maxCents(5000), IsActive: true},
		{ID: 2, Code: "FIRSTORDER", Description: "$5 off your first order", Type: domain.DiscountFixed, DiscountAmount: 500, MinOrderAmount: 1500, MaxDiscount: maxCents(500), IsActive: true},
		{ID: 3, Code: "FREESHIP", Description: "Free delivery", Type: domain.DiscountDelivery, DiscountAmount: 399, MinOrderAmount: 0, MaxDiscount: maxCents(399), IsActive: true},
		{ID: 4, Code: "PIZZA2FOR1", Description: "Buy 2 large pizzas, get 1 medium free", Type: domain.DiscountBuy2Get1, DiscountAmount: 1299, MinOrderAmount: 3000, MaxDiscount: maxCents(1299), IsActive: true},
	}
	for _, p := range promos {
		s.promos[p.Code] = &domain.PromoCode{
			ID: p.ID, Code: p.Code, Description: p.Description, Type: p.Type,
			DiscountPercent: p.DiscountPercent, DiscountAmount: p.DiscountAmount,
			MinOrderAmount: p.MinOrderAmount, MaxDiscount: p.MaxDiscount, IsActive: p.IsActive,
		}
	}

	s.cats = []domain.MenuCategory{
		{ID: 1, Name: "Burgers", DisplayOrder: 1},
		{ID: 2, Name: "Pizzas", DisplayOrder: 2},
		{ID: 3, Name: "Pasta", DisplayOrder: 3},
		{ID: 4, Name: "Drinks", DisplayOrder: 4},
		{ID: 5, Name: "Desserts", DisplayOrder: 5},
		{ID: 6, Name: "Salads", DisplayOrder: 6},
	}

	items := []domain.MenuItem{
		{ID: 1, Name: "Classic Burger", Description: "Juicy beef burger with lettuce and tomato", Price: 899, Category: "Burgers", CategoryID: 1, IsAvailable: true},
		{ID: 2, Name: "Cheese Burger", Description: "Beef burger with melted cheddar cheese", Price: 999, Category: "Burgers", CategoryID: 1, IsAvailable: true},
		{ID: 6, Name: "Margherita Pizza", Description: "Fresh mozzarella, tomato, and basil", Price: 1299, Category: "Pizzas", CategoryID: 2, IsAvailable: true},
		{ID: 7, Name: "Pepperoni Pizza", Description: "Classic pepperoni with extra cheese", Price: 1399, Category: "Pizzas", CategoryID: 2, IsAvailable: true},
		{ID: 11, Name: "Spaghetti Carbonara", Description: "Classic Italian pasta with bacon and cream", Price: 1199, Category: "Pasta", CategoryID: 3, IsAvailable: true},
		{ID: 16, Name: "Coke", Description: "Ice cold Coca-Cola", Price: 299, Category: "Drinks", CategoryID: 4, IsAvailable: true},
		{ID: 18, Name: "Lemonade", Description: "Fresh homemade lemonade", Price: 349, Category: "Drinks", CategoryID: 4, IsAvailable: true},
		{ID: 21, Name: "Chocolate Cake", Description: "Rich chocolate cake with frosting", Price: 599, Category: "Desserts", CategoryID: 5, IsAvailable: true},
		{ID: 26, Name: "Caesar Salad", Description: "Romaine, parmesan, croutons, caesar dressing", Price: 999, Category: "Salads", CategoryID: 6, IsAvailable: true},
	}
	for _, item := range items {
		s.items[item.ID] = item
	}
}
