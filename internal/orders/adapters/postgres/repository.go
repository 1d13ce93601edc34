package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/dejobratic/skinstore/internal/orders/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const orderColumns = `
	id, first_name, last_name, email, phone, street, city, region, postal_code,
	total_cents, currency, COALESCE(session_id, ''), COALESCE(payment_intent_id, ''),
	payment_status, order_status, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, details domain.OrderDetails) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := insertOrderQuery("")
		if _, err := tx.Exec(ctx, query, orderArgs(details.Order)...); err != nil {
			return translateInsertError(err)
		}
		return insertChildren(ctx, tx, details)
	})
}

func (r *Repository) CreateIfAbsent(ctx context.Context, details domain.OrderDetails) (bool, error) {
	created := false
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := insertOrderQuery("ON CONFLICT (session_id) DO NOTHING")
		tag, err := tx.Exec(ctx, query, orderArgs(details.Order)...)
		if err != nil {
			return translateInsertError(err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		if err := insertChildren(ctx, tx, details); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func insertOrderQuery(onConflict string) string {
	return `
		INSERT INTO orders (
			id, first_name, last_name, email, phone, street, city, region, postal_code,
			total_cents, currency, session_id, payment_intent_id, payment_status, order_status,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), NULLIF($13, ''), $14, $15, $16, $17)
		` + onConflict
}

func orderArgs(o domain.Order) []any {
	return []any{
		o.ID,
		o.Customer.FirstName,
		o.Customer.LastName,
		o.Customer.Email,
		o.Customer.Phone,
		o.Shipping.Street,
		o.Shipping.City,
		o.Shipping.Region,
		o.Shipping.PostalCode,
		o.TotalCents,
		o.Currency,
		o.SessionID,
		o.PaymentIntentID,
		o.PaymentStatus,
		o.Status,
		o.CreatedAt,
		o.UpdatedAt,
	}
}

func insertChildren(ctx context.Context, tx pgx.Tx, details domain.OrderDetails) error {
	itemQuery := `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price_cents)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, item := range details.Items {
		if _, err := tx.Exec(ctx, itemQuery,
			details.Order.ID,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.UnitPriceCents,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if details.Tracking == nil {
		return nil
	}

	trackingQuery := `
		INSERT INTO tracking_records (order_id, tracking_number, status, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, trackingQuery,
		details.Order.ID,
		details.Tracking.TrackingNumber,
		details.Tracking.Status,
		details.Tracking.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert tracking record: %w", err)
	}
	return nil
}

func translateInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("insert order: %w", ports.ErrConflict)
	}
	return fmt.Errorf("insert order: %w", err)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.OrderDetails, error) {
	return r.getDetails(ctx, "id", id)
}

func (r *Repository) GetBySessionID(ctx context.Context, sessionID string) (*domain.OrderDetails, error) {
	return r.getDetails(ctx, "session_id", sessionID)
}

func (r *Repository) getDetails(ctx context.Context, column, value string) (*domain.OrderDetails, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + column + ` = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("order", value)
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	items, err := r.getItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	details := &domain.OrderDetails{Order: order, Items: items}

	var tracking domain.TrackingRecord
	err = r.pool.QueryRow(ctx, `
		SELECT order_id, tracking_number, status, updated_at
		FROM tracking_records
		WHERE order_id = $1
	`, order.ID).Scan(&tracking.OrderID, &tracking.TrackingNumber, &tracking.Status, &tracking.UpdatedAt)
	switch {
	case err == nil:
		details.Tracking = &tracking
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, fmt.Errorf("select tracking record: %w", err)
	}

	return details, nil
}

func (r *Repository) getItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT order_id, product_id, product_name, quantity, unit_price_cents
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPriceCents,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::text IS NULL OR order_status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	offset := (page - 1) * pageSize

	rows, err := r.pool.Query(ctx, query, statusFilter, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

func (r *Repository) ConfirmPayment(ctx context.Context, sessionID, paymentIntentID string, at time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = 'paid',
			order_status = 'processing',
			payment_intent_id = COALESCE(payment_intent_id, NULLIF($2, '')),
			updated_at = $3
		WHERE session_id = $1 AND order_status = 'pending'
	`

	result, err := r.pool.Exec(ctx, query, sessionID, paymentIntentID, at)
	if err != nil {
		return false, fmt.Errorf("confirm payment: %w", err)
	}

	if result.RowsAffected() == 1 {
		return true, nil
	}
	return false, r.ensureSessionExists(ctx, sessionID)
}

func (r *Repository) FailPayment(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = 'failed', updated_at = $2
		WHERE session_id = $1
			AND order_status = 'pending'
			AND payment_status IN ('unset', 'pending')
	`

	result, err := r.pool.Exec(ctx, query, sessionID, at)
	if err != nil {
		return false, fmt.Errorf("fail payment: %w", err)
	}

	if result.RowsAffected() == 1 {
		return true, nil
	}
	return false, r.ensureSessionExists(ctx, sessionID)
}

func (r *Repository) ensureSessionExists(ctx context.Context, sessionID string) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE session_id = $1)`, sessionID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check order session: %w", err)
	}
	if !exists {
		return domain.NewNotFoundError("order", sessionID)
	}
	return nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID,
		&o.Customer.FirstName,
		&o.Customer.LastName,
		&o.Customer.Email,
		&o.Customer.Phone,
		&o.Shipping.Street,
		&o.Shipping.City,
		&o.Shipping.Region,
		&o.Shipping.PostalCode,
		&o.TotalCents,
		&o.Currency,
		&o.SessionID,
		&o.PaymentIntentID,
		&o.PaymentStatus,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}
