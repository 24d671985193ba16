package orders

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/tavolaeats/tavola/internal/domain"
)

// Repository is the postgres implementation of Store.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) InsertOrder(ctx context.Context, order *domain.Order, payment *domain.PaymentTransaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var street, city, state, zip sql.NullString
	if order.Address != nil {
		street = sql.NullString{String: order.Address.Street, Valid: true}
		city = sql.NullString{String: order.Address.City, Valid: true}
		state = sql.NullString{String: order.Address.State, Valid: true}
		zip = sql.NullString{String: order.Address.Zip, Valid: true}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			customer_name, customer_email, customer_phone, order_type, status,
			subtotal, tax_amount, delivery_fee, discount_amount, total_price,
			promo_code, notes,
			delivery_street, delivery_city, delivery_state, delivery_zip,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
		RETURNING id
	`,
		order.CustomerName, order.CustomerEmail, order.CustomerPhone, order.Type, order.Status,
		order.Subtotal, order.TaxAmount, order.DeliveryFee, order.DiscountAmount, order.TotalPrice,
		nullString(order.PromoCode), order.Notes,
		street, city, state, zip,
		order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, item_id, name, unit_price, quantity, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, order.ID, item.ItemID, item.Name, item.UnitPrice, item.Quantity, item.Subtotal)
		if err != nil {
			return err
		}
	}

	if payment != nil {
		payment.OrderID = order.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO payment_transactions (
				id, order_id, amount, status, method, processor,
				processor_transaction_id, card_brand, last_four, response_hash, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			payment.ID, payment.OrderID, payment.Amount, payment.Status, payment.Method,
			payment.Processor, payment.TransactionID, payment.CardBrand, payment.LastFour,
			payment.ResponseHash, payment.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order := &domain.Order{}
	var promoCode, email, phone, notes sql.NullString
	var street, city, state, zip sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_name, customer_email, customer_phone, order_type, status,
		       subtotal, tax_amount, delivery_fee, discount_amount, total_price,
		       promo_code, notes,
		       delivery_street, delivery_city, delivery_state, delivery_zip,
		       created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.CustomerName, &email, &phone, &order.Type, &order.Status,
		&order.Subtotal, &order.TaxAmount, &order.DeliveryFee, &order.DiscountAmount, &order.TotalPrice,
		&promoCode, &notes,
		&street, &city, &state, &zip,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	order.CustomerEmail = email.String
	order.CustomerPhone = phone.String
	order.PromoCode = promoCode.String
	order.Notes = notes.String
	if street.Valid {
		order.Address = &domain.Address{Street: street.String, City: city.String, State: state.String, Zip: zip.String}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id, name, unit_price, quantity, subtotal
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ItemID, &item.Name, &item.UnitPrice, &item.Quantity, &item.Subtotal); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *Repository) ListOrders(ctx context.Context, filter ListFilter) ([]domain.Order, error) {
	query := `
		SELECT id, customer_name, order_type, status,
		       subtotal, tax_amount, delivery_fee, discount_amount, total_price,
		       promo_code, notes, created_at, updated_at
		FROM orders
		WHERE 1=1
	`
	args := []any{}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		query += ` AND status = ANY($1)`
	}
	if filter.CustomerName != "" {
		args = append(args, "%"+filter.CustomerName+"%")
		query += ` AND customer_name ILIKE $` + strconv.Itoa(len(args))
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[int64]*domain.Order)
	var orderIDs []int64

	for rows.Next() {
		var order domain.Order
		var promoCode, notes sql.NullString
		err := rows.Scan(
			&order.ID, &order.CustomerName, &order.Type, &order.Status,
			&order.Subtotal, &order.TaxAmount, &order.DeliveryFee, &order.DiscountAmount, &order.TotalPrice,
			&promoCode, &notes, &order.CreatedAt, &order.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		order.PromoCode = promoCode.String
		order.Notes = notes.String
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	// Single items query instead of one per order.
	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, item_id, name, unit_price, quantity, subtotal
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID int64
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ItemID, &item.Name, &item.UnitPrice, &item.Quantity, &item.Subtotal); err != nil {
			return nil, err
		}
		orderMap[orderID].Items = append(orderMap[orderID].Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

func (r *Repository) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus, at time.Time) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = $2
		WHERE id = $3
	`, status, at, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetOrder(ctx, id)
}

// FindPromo applies the eligibility rules in the query itself: the row
// must be active, not expired at now, and under its usage limit. Codes
// match case-insensitively; callers pass the normalized uppercase form
// and the UPPER(code) comparison reaches rows stored in any case.
func (r *Repository) FindPromo(ctx context.Context, code string, now time.Time) (*domain.PromoCode, error) {
	promo := &domain.PromoCode{}
	var maxDiscount sql.NullInt64
	var validUntil sql.NullTime
	var usageLimit sql.NullInt64

	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, description, type, discount_percent, discount_amount,
		       min_order_amount, max_discount, is_active, valid_from, valid_until,
		       usage_limit, times_used
		FROM promo_codes
		WHERE UPPER(code) = $1
		  AND is_active = TRUE
		  AND (valid_until IS NULL OR valid_until > $2)
		  AND (usage_limit IS NULL OR times_used < usage_limit)
	`, code, now).Scan(
		&promo.ID, &promo.Code, &promo.Description, &promo.Type,
		&promo.DiscountPercent, &promo.DiscountAmount, &promo.MinOrderAmount,
		&maxDiscount, &promo.IsActive, &promo.ValidFrom, &validUntil,
		&usageLimit, &promo.TimesUsed,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if maxDiscount.Valid {
		promo.MaxDiscount = &maxDiscount.Int64
	}
	if validUntil.Valid {
		promo.ValidUntil = &validUntil.Time
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int64)
		promo.UsageLimit = &limit
	}

	return promo, nil
}

func (r *Repository) IncrementPromoUsage(ctx context.Context, promoID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE promo_codes SET times_used = times_used + 1, updated_at = NOW()
		WHERE id = $1
	`, promoID)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
