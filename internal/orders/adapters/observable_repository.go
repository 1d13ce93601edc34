package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/skinstore/internal/database"
	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/dejobratic/skinstore/internal/orders/ports"
	"github.com/dejobratic/skinstore/internal/telemetry"
)

// observeQuery wraps one store call in a span and records its latency.
func observeQuery[T any](
	ctx context.Context,
	metrics *database.Metrics,
	spanName, operation string,
	attrs []attribute.KeyValue,
	call func(ctx context.Context) (T, error),
) (T, error) {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs, attribute.String("operation", operation))...)

	start := time.Now()
	result, err := call(ctx)
	metrics.RecordQuery(ctx, operation, time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return result, err
	}

	telemetry.SetSpanSuccess(span)
	return result, nil
}

type ObservableRepository struct {
	repo    ports.OrderStore
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.OrderStore, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) Create(ctx context.Context, details domain.OrderDetails) error {
	_, err := observeQuery(ctx, r.metrics, "OrderStore.Create", "create_order",
		[]attribute.KeyValue{
			telemetry.AttrOrderID.String(details.Order.ID),
			attribute.Int("order.items", len(details.Items)),
		},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.repo.Create(ctx, details)
		})
	return err
}

func (r *ObservableRepository) CreateIfAbsent(ctx context.Context, details domain.OrderDetails) (bool, error) {
	return observeQuery(ctx, r.metrics, "OrderStore.CreateIfAbsent", "create_order_if_absent",
		[]attribute.KeyValue{
			telemetry.AttrOrderID.String(details.Order.ID),
			telemetry.AttrSessionID.String(details.Order.SessionID),
		},
		func(ctx context.Context) (bool, error) {
			return r.repo.CreateIfAbsent(ctx, details)
		})
}

func (r *ObservableRepository) GetByID(ctx context.Context, id string) (*domain.OrderDetails, error) {
	return observeQuery(ctx, r.metrics, "OrderStore.GetByID", "get_order_by_id",
		[]attribute.KeyValue{telemetry.AttrOrderID.String(id)},
		func(ctx context.Context) (*domain.OrderDetails, error) {
			return r.repo.GetByID(ctx, id)
		})
}

func (r *ObservableRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.OrderDetails, error) {
	return observeQuery(ctx, r.metrics, "OrderStore.GetBySessionID", "get_order_by_session",
		[]attribute.KeyValue{telemetry.AttrSessionID.String(sessionID)},
		func(ctx context.Context) (*domain.OrderDetails, error) {
			return r.repo.GetBySessionID(ctx, sessionID)
		})
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	attrs := []attribute.KeyValue{
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	}
	if filter.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", string(*filter.Status)))
	}

	return observeQuery(ctx, r.metrics, "OrderStore.List", "list_orders", attrs,
		func(ctx context.Context) ([]domain.Order, error) {
			return r.repo.List(ctx, filter)
		})
}

func (r *ObservableRepository) ConfirmPayment(ctx context.Context, sessionID, paymentIntentID string, at time.Time) (bool, error) {
	return observeQuery(ctx, r.metrics, "OrderStore.ConfirmPayment", "confirm_payment",
		[]attribute.KeyValue{telemetry.AttrSessionID.String(sessionID)},
		func(ctx context.Context) (bool, error) {
			return r.repo.ConfirmPayment(ctx, sessionID, paymentIntentID, at)
		})
}

func (r *ObservableRepository) FailPayment(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	return observeQuery(ctx, r.metrics, "OrderStore.FailPayment", "fail_payment",
		[]attribute.KeyValue{telemetry.AttrSessionID.String(sessionID)},
		func(ctx context.Context) (bool, error) {
			return r.repo.FailPayment(ctx, sessionID, at)
		})
}

type ObservableCatalog struct {
	catalog ports.Catalog
	metrics *database.Metrics
}

func NewObservableCatalog(catalog ports.Catalog, metrics *database.Metrics) *ObservableCatalog {
	return &ObservableCatalog{catalog: catalog, metrics: metrics}
}

func (c *ObservableCatalog) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	return observeQuery(ctx, c.metrics, "Catalog.CreateProduct", "create_product",
		[]attribute.KeyValue{attribute.String("product.name", product.Name)},
		func(ctx context.Context) (*domain.Product, error) {
			return c.catalog.CreateProduct(ctx, product)
		})
}

func (c *ObservableCatalog) GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	return observeQuery(ctx, c.metrics, "Catalog.GetProducts", "get_products",
		[]attribute.KeyValue{attribute.Int("product.count", len(ids))},
		func(ctx context.Context) (map[int64]domain.Product, error) {
			return c.catalog.GetProducts(ctx, ids)
		})
}
