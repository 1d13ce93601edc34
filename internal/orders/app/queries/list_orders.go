package queries

import (
	"context"

	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/dejobratic/skinstore/internal/orders/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ListOrdersQuery struct {
	Status   string
	Page     int
	PageSize int
}

type ListOrdersQueryHandler struct {
	store ports.OrderStore
}

func NewListOrdersQueryHandler(store ports.OrderStore) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{store: store}
}

func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	filter, err := query.Filter()
	if err != nil {
		return nil, err
	}
	return h.store.List(ctx, filter)
}

// Filter validates the query and applies paging defaults.
func (q ListOrdersQuery) Filter() (ports.ListFilter, error) {
	filter := ports.ListFilter{Page: q.Page, PageSize: q.PageSize}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	if q.Status != "" {
		status := domain.OrderStatus(q.Status)
		if status.Rank() < 0 {
			return ports.ListFilter{}, domain.NewValidationError("status", "unknown order status "+q.Status)
		}
		filter.Status = &status
	}

	return filter, nil
}
