package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/dejobratic/skinstore/internal/orders/ports"
)

// ErrInvalidItem mirrors the quantity and price check constraints of the SQL schema.
var ErrInvalidItem = errors.New("order item violates check constraint")

// Repository provides an in-memory order store useful for local development and tests.
// The mutex stands in for row-level atomicity; every write is all-or-nothing.
type Repository struct {
	mu        sync.RWMutex
	orders    map[string]domain.Order
	items     map[string][]domain.OrderItem
	tracking  map[string]domain.TrackingRecord
	bySession map[string]string
}

// NewRepository constructs a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		orders:    make(map[string]domain.Order),
		items:     make(map[string][]domain.OrderItem),
		tracking:  make(map[string]domain.TrackingRecord),
		bySession: make(map[string]string),
	}
}

// Create stores the order aggregate.
func (r *Repository) Create(_ context.Context, details domain.OrderDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(details)
}

// CreateIfAbsent stores the aggregate unless its session is already taken.
func (r *Repository) CreateIfAbsent(_ context.Context, details domain.OrderDetails) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sid := details.Order.SessionID; sid != "" {
		if _, exists := r.bySession[sid]; exists {
			return false, nil
		}
	}
	if err := r.insertLocked(details); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) insertLocked(details domain.OrderDetails) error {
	order := details.Order
	if _, exists := r.orders[order.ID]; exists {
		return ports.ErrConflict
	}
	if order.SessionID != "" {
		if _, exists := r.bySession[order.SessionID]; exists {
			return ports.ErrConflict
		}
	}

	for _, item := range details.Items {
		if item.Quantity <= 0 || item.UnitPriceCents < 0 {
			return fmt.Errorf("insert order item %q: %w", item.ProductName, ErrInvalidItem)
		}
	}

	items := make([]domain.OrderItem, len(details.Items))
	for i, item := range details.Items {
		item.OrderID = order.ID
		items[i] = item
	}

	r.orders[order.ID] = order
	r.items[order.ID] = items
	if details.Tracking != nil {
		tracking := *details.Tracking
		tracking.OrderID = order.ID
		r.tracking[order.ID] = tracking
	}
	if order.SessionID != "" {
		r.bySession[order.SessionID] = order.ID
	}
	return nil
}

// GetByID fetches a single order by identifier.
func (r *Repository) GetByID(_ context.Context, id string) (*domain.OrderDetails, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.detailsLocked(id)
}

// GetBySessionID fetches the order that holds a payment session reference.
func (r *Repository) GetBySessionID(_ context.Context, sessionID string) (*domain.OrderDetails, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySession[sessionID]
	if !ok {
		return nil, domain.NewNotFoundError("order", sessionID)
	}
	return r.detailsLocked(id)
}

func (r *Repository) detailsLocked(id string) (*domain.OrderDetails, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.NewNotFoundError("order", id)
	}

	items := make([]domain.OrderItem, len(r.items[id]))
	copy(items, r.items[id])

	details := &domain.OrderDetails{Order: order, Items: items}
	if tracking, ok := r.tracking[id]; ok {
		details.Tracking = &tracking
	}
	return details, nil
}

// List returns orders respecting the provided filter, newest first. Pagination is 1-based.
func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Order
	for _, order := range r.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	start := (page - 1) * pageSize
	if start >= len(result) {
		return []domain.Order{}, nil
	}
	end := min(start+pageSize, len(result))

	slice := make([]domain.Order, end-start)
	copy(slice, result[start:end])
	return slice, nil
}

// ConfirmPayment applies the pending -> (paid, processing) transition.
func (r *Repository) ConfirmPayment(_ context.Context, sessionID, paymentIntentID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.bySession[sessionID]
	if !ok {
		return false, domain.NewNotFoundError("order", sessionID)
	}

	order := r.orders[id]
	if !order.ConfirmPayment(at) {
		return false, nil
	}
	if order.PaymentIntentID == "" {
		order.PaymentIntentID = paymentIntentID
	}
	r.orders[id] = order
	return true, nil
}

// FailPayment records a failed payment for a pending, unpaid order.
func (r *Repository) FailPayment(_ context.Context, sessionID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.bySession[sessionID]
	if !ok {
		return false, domain.NewNotFoundError("order", sessionID)
	}

	order := r.orders[id]
	if !order.FailPayment(at) {
		return false, nil
	}
	r.orders[id] = order
	return true, nil
}
