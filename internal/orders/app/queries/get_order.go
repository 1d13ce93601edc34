package queries

import (
	"context"
	"strings"

	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/dejobratic/skinstore/internal/orders/ports"
)

// GetOrderQuery looks an order up by its id or by the checkout session it was paid through.
// Exactly one of the two must be set.
type GetOrderQuery struct {
	OrderID   string
	SessionID string
}

// GetOrderQueryHandler reads stored state only; it never asks the payment gateway.
type GetOrderQueryHandler struct {
	store ports.OrderStore
}

func NewGetOrderQueryHandler(store ports.OrderStore) *GetOrderQueryHandler {
	return &GetOrderQueryHandler{store: store}
}

func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*domain.OrderDetails, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	if sessionID := strings.TrimSpace(query.SessionID); sessionID != "" {
		return h.store.GetBySessionID(ctx, sessionID)
	}
	return h.store.GetByID(ctx, strings.TrimSpace(query.OrderID))
}

func (q GetOrderQuery) Validate() error {
	byID := strings.TrimSpace(q.OrderID) != ""
	bySession := strings.TrimSpace(q.SessionID) != ""

	switch {
	case byID && bySession:
		return domain.NewValidationError("id", "order id and session id are mutually exclusive")
	case !byID && !bySession:
		return domain.NewValidationError("id", "order id is required")
	}
	return nil
}
