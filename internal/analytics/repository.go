// Package analytics aggregates order data for the business dashboard.
// Cancelled orders are excluded from every revenue figure.
package analytics

import (
	"context"
	"database/sql"
	"time"

	"github.com/tavolaeats/tavola/internal/domain"
)

type ItemStat struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Revenue  int64  `json:"revenue"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type DayAmount struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
}

type HourCount struct {
	Hour   string `json:"hour"`
	Orders int64  `json:"orders"`
}

type BusinessStats struct {
	TotalOrders       int64            `json:"total_orders"`
	TotalRevenue      int64            `json:"total_revenue"`
	AverageOrderValue float64          `json:"average_order_value"`
	OrdersToday       int64            `json:"orders_today"`
	RevenueToday      int64            `json:"revenue_today"`
	OrdersThisWeek    int64            `json:"orders_this_week"`
	RevenueThisWeek   int64            `json:"revenue_this_week"`
	OrdersThisMonth   int64            `json:"orders_this_month"`
	RevenueThisMonth  int64            `json:"revenue_this_month"`
	TopItems          []ItemStat       `json:"top_items"`
	OrdersByDay       []DayCount       `json:"orders_by_day"`
	RevenueByDay      []DayAmount      `json:"revenue_by_day"`
	OrdersByStatus    map[string]int64 `json:"orders_by_status"`
	PeakHours         []HourCount      `json:"peak_hours"`
}

type ExportRow struct {
	OrderID      int64
	CreatedAt    time.Time
	OrderType    domain.OrderType
	Status       domain.OrderStatus
	TotalPrice   int64
	PromoCode    string
	CustomerName string
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) BusinessStats(ctx context.Context) (*BusinessStats, error) {
	stats := &BusinessStats{OrdersByStatus: map[string]int64{}}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_price), 0), COALESCE(AVG(total_price), 0)
		FROM orders
		WHERE status != 'cancelled'
	`).Scan(&stats.TotalOrders, &stats.TotalRevenue, &stats.AverageOrderValue)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_price), 0)
		FROM orders
		WHERE created_at::date = CURRENT_DATE AND status != 'cancelled'
	`).Scan(&stats.OrdersToday, &stats.RevenueToday)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_price), 0)
		FROM orders
		WHERE date_trunc('week', created_at) = date_trunc('week', CURRENT_DATE)
		  AND status != 'cancelled'
	`).Scan(&stats.OrdersThisWeek, &stats.RevenueThisWeek)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_price), 0)
		FROM orders
		WHERE date_trunc('month', created_at) = date_trunc('month', CURRENT_DATE)
		  AND status != 'cancelled'
	`).Scan(&stats.OrdersThisMonth, &stats.RevenueThisMonth)
	if err != nil {
		return nil, err
	}

	if stats.TopItems, err = r.topItems(ctx); err != nil {
		return nil, err
	}
	if stats.OrdersByDay, stats.RevenueByDay, err = r.dailyBreakdown(ctx); err != nil {
		return nil, err
	}
	if err = r.statusBreakdown(ctx, stats.OrdersByStatus); err != nil {
		return nil, err
	}
	if stats.PeakHours, err = r.peakHours(ctx); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *Repository) topItems(ctx context.Context) ([]ItemStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.name, SUM(oi.quantity), SUM(oi.subtotal)
		FROM order_items oi
		JOIN orders o ON oi.order_id = o.id
		WHERE o.status != 'cancelled'
		GROUP BY oi.name
		ORDER BY SUM(oi.quantity) DESC
		LIMIT 5
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ItemStat
	for rows.Next() {
		var s ItemStat
		if err := rows.Scan(&s.Name, &s.Quantity, &s.Revenue); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *Repository) dailyBreakdown(ctx context.Context) ([]DayCount, []DayAmount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(created_at::date, 'Mon DD'), COUNT(*), COALESCE(SUM(total_price), 0)
		FROM orders
		WHERE created_at >= CURRENT_DATE - INTERVAL '7 days' AND status != 'cancelled'
		GROUP BY created_at::date
		ORDER BY created_at::date
	`)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	var counts []DayCount
	var amounts []DayAmount
	for rows.Next() {
		var date string
		var count, amount int64
		if err := rows.Scan(&date, &count, &amount); err != nil {
			return nil, nil, err
		}
		counts = append(counts, DayCount{Date: date, Count: count})
		amounts = append(amounts, DayAmount{Date: date, Amount: amount})
	}
	return counts, amounts, rows.Err()
}

func (r *Repository) statusBreakdown(ctx context.Context, out map[string]int64) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM orders GROUP BY status
	`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return err
		}
		out[status] = count
	}
	return rows.Err()
}

func (r *Repository) peakHours(ctx context.Context) ([]HourCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(created_at, 'HH24'), COUNT(*)
		FROM orders
		WHERE created_at >= NOW() - INTERVAL '30 days' AND status != 'cancelled'
		GROUP BY to_char(created_at, 'HH24')
		ORDER BY to_char(created_at, 'HH24')
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var hours []HourCount
	for rows.Next() {
		var h HourCount
		if err := rows.Scan(&h.Hour, &h.Orders); err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

// ExportOrders returns the last 30 days of orders for the CSV export.
func (r *Repository) ExportOrders(ctx context.Context) ([]ExportRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, order_type, status, total_price, COALESCE(promo_code, ''), customer_name
		FROM orders
		WHERE created_at >= CURRENT_DATE - INTERVAL '30 days'
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ExportRow
	for rows.Next() {
		var row ExportRow
		if err := rows.Scan(&row.OrderID, &row.CreatedAt, &row.OrderType, &row.Status, &row.TotalPrice, &row.PromoCode, &row.CustomerName); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
