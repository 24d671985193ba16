// Package catalog serves menu reads and the price-snapshot lookup used
// at order creation.
package catalog

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/tavolaeats/tavola/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListItems(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT mi.id, mi.name, mi.description, mi.price, mc.name, mi.category_id, mi.is_available, COALESCE(mi.image_url, '')
		FROM menu_items mi
		JOIN menu_categories mc ON mi.category_id = mc.id
		WHERE mi.is_available = TRUE
		ORDER BY mc.display_order, mi.name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanItems(rows)
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.MenuCategory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, display_order
		FROM menu_categories
		WHERE is_active = TRUE
		ORDER BY display_order
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cats []domain.MenuCategory
	for rows.Next() {
		var c domain.MenuCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.DisplayOrder); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *Repository) ItemsByCategory(ctx context.Context, categoryID int64) ([]domain.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT mi.id, mi.name, mi.description, mi.price, mc.name, mi.category_id, mi.is_available, COALESCE(mi.image_url, '')
		FROM menu_items mi
		JOIN menu_categories mc ON mi.category_id = mc.id
		WHERE mi.category_id = $1 AND mi.is_available = TRUE
		ORDER BY mi.name
	`, categoryID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanItems(rows)
}

// ItemsByIDs returns the current catalog rows for the requested ids,
// including unavailable ones; callers decide whether unavailable items
// are an error. Unknown ids are simply absent from the map.
func (r *Repository) ItemsByIDs(ctx context.Context, ids []int64) (map[int64]domain.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT mi.id, mi.name, mi.description, mi.price, mc.name, mi.category_id, mi.is_available, COALESCE(mi.image_url, '')
		FROM menu_items mi
		JOIN menu_categories mc ON mi.category_id = mc.id
		WHERE mi.id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]domain.MenuItem, len(items))
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

func scanItems(rows *sql.Rows) ([]domain.MenuItem, error) {
	var items []domain.MenuItem
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.Category, &item.CategoryID, &item.IsAvailable, &item.ImageURL); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
