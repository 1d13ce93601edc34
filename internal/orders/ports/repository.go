package ports

import (
	"context"
	"errors"
	"time"

	"github.com/dejobratic/skinstore/internal/orders/domain"
)

// OrderStore exposes persistence operations required by the application layer.
// Missing rows are reported as *domain.NotFoundError.
type OrderStore interface {
	// Create inserts the order, its items and its tracking record atomically.
	Create(ctx context.Context, details domain.OrderDetails) error
	// CreateIfAbsent behaves like Create but is a no-op when an order already
	// holds the same session reference. It reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, details domain.OrderDetails) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.OrderDetails, error)
	GetBySessionID(ctx context.Context, sessionID string) (*domain.OrderDetails, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	// ConfirmPayment sets (paid, processing) only while the order is pending.
	// It reports whether this call performed the transition.
	ConfirmPayment(ctx context.Context, sessionID, paymentIntentID string, at time.Time) (bool, error)
	// FailPayment marks the payment failed only while the order is pending and unpaid.
	FailPayment(ctx context.Context, sessionID string, at time.Time) (bool, error)
}

// ListFilter narrows list queries by status and pagination.
type ListFilter struct {
	Status   *domain.OrderStatus
	Page     int
	PageSize int
}

// Catalog is the product table sibling to the order tables.
type Catalog interface {
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	// GetProducts returns the products found for ids; unknown ids are absent from the map.
	GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
}

// ErrConflict is returned when an insert collides with an existing order,
// for example a second order for the same session reference.
var ErrConflict = errors.New("order already exists")
