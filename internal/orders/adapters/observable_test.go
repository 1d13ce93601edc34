package adapters_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/dejobratic/skinstore/internal/database"
	"github.com/dejobratic/skinstore/internal/kafka"
	"github.com/dejobratic/skinstore/internal/orders/adapters"
	"github.com/dejobratic/skinstore/internal/orders/adapters/memory"
	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/dejobratic/skinstore/internal/orders/metrics"
	"github.com/dejobratic/skinstore/internal/orders/ports"
	"github.com/dejobratic/skinstore/internal/telemetry"
)

func newRecorder(t *testing.T) *telemetry.Recorder {
	t.Helper()

	rec := telemetry.NewRecorder()
	t.Cleanup(rec.Install())
	return rec
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleDetails(id, sessionID string) domain.OrderDetails {
	now := time.Now().UTC()
	return domain.OrderDetails{
		Order: domain.Order{
			ID:            id,
			Customer:      domain.Customer{FirstName: "Ada", Email: "ada@example.com"},
			TotalCents:    1999,
			Currency:      "usd",
			SessionID:     sessionID,
			PaymentStatus: domain.PaymentPending,
			Status:        domain.StatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		Items: []domain.OrderItem{{ProductID: 1, ProductName: "Serum", Quantity: 1, UnitPriceCents: 1999}},
		Tracking: &domain.TrackingRecord{
			TrackingNumber: "SKN-" + id,
			Status:         domain.ShipmentLabelPending,
			UpdatedAt:      now,
		},
	}
}

func TestObservableRepository(t *testing.T) {
	rec := newRecorder(t)
	dbMetrics, err := database.NewMetrics(rec.Meter("test"))
	require.NoError(t, err)

	repo := adapters.NewObservableRepository(memory.NewRepository(), dbMetrics)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleDetails("o1", "cs_1")))

	inserted, err := repo.CreateIfAbsent(ctx, sampleDetails("o2", "cs_1"))
	require.NoError(t, err)
	assert.False(t, inserted)

	confirmed, err := repo.ConfirmPayment(ctx, "cs_1", "pi_1", time.Now())
	require.NoError(t, err)
	assert.True(t, confirmed)

	_, err = repo.GetByID(ctx, "missing")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)

	create, ok := rec.Span("OrderStore.Create")
	require.True(t, ok)
	assert.Equal(t, codes.Ok, create.Status.Code)

	lookup, ok := rec.Span("OrderStore.GetByID")
	require.True(t, ok)
	assert.Equal(t, codes.Error, lookup.Status.Code)

	data, err := rec.Metric(ctx, "db_query_duration_seconds")
	require.NoError(t, err)
	histogram, ok := data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, histogram.DataPoints, 4)

	data, err = rec.Metric(ctx, "db_query_errors_total")
	require.NoError(t, err)
	errorsSum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, errorsSum.DataPoints, 1)
	assert.Equal(t, int64(1), errorsSum.DataPoints[0].Value)
}

func TestObservableCatalog(t *testing.T) {
	rec := newRecorder(t)
	dbMetrics, err := database.NewMetrics(rec.Meter("test"))
	require.NoError(t, err)

	catalog := adapters.NewObservableCatalog(memory.NewCatalog(), dbMetrics)
	ctx := context.Background()

	product, err := catalog.CreateProduct(ctx, domain.Product{Name: "Toner", PriceCents: 1250, Currency: "usd"})
	require.NoError(t, err)

	found, err := catalog.GetProducts(ctx, []int64{product.ID, 999})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, ok := rec.Span("Catalog.GetProducts")
	assert.True(t, ok)
}

type failingBus struct{ err error }

func (b failingBus) PublishOrderCreated(context.Context, string) error { return b.err }
func (b failingBus) PublishOrderPaid(context.Context, string) error    { return b.err }
func (b failingBus) PublishPaymentFailed(context.Context, string, string) error {
	return b.err
}

func TestObservableEventBus(t *testing.T) {
	t.Run("records publishes per topic", func(t *testing.T) {
		rec := newRecorder(t)
		busMetrics, err := kafka.NewMetrics(rec.Meter("test"))
		require.NoError(t, err)

		bus := adapters.NewObservableEventBus(kafka.NewNoopEventBus(discardLogger()), busMetrics)
		ctx := context.Background()

		require.NoError(t, bus.PublishOrderCreated(ctx, "o1"))
		require.NoError(t, bus.PublishOrderPaid(ctx, "o1"))
		require.NoError(t, bus.PublishPaymentFailed(ctx, "o2", "card declined"))

		data, err := rec.Metric(ctx, "events_published_total")
		require.NoError(t, err)
		sum, ok := data.(metricdata.Sum[int64])
		require.True(t, ok)
		assert.Len(t, sum.DataPoints, 3)

		_, ok = rec.Span("EventBus.PublishPaymentFailed")
		assert.True(t, ok)
	})

	t.Run("returns publish errors and marks the span", func(t *testing.T) {
		rec := newRecorder(t)
		busMetrics, err := kafka.NewMetrics(rec.Meter("test"))
		require.NoError(t, err)

		boom := errors.New("broker unavailable")
		bus := adapters.NewObservableEventBus(failingBus{err: boom}, busMetrics)

		err = bus.PublishOrderPaid(context.Background(), "o1")
		require.ErrorIs(t, err, boom)

		span, ok := rec.Span("EventBus.PublishOrderPaid")
		require.True(t, ok)
		assert.Equal(t, codes.Error, span.Status.Code)
	})
}

type stubGateway struct {
	session *ports.CheckoutSession
	err     error
}

func (g stubGateway) CreateCheckoutSession(context.Context, ports.CheckoutSessionRequest) (*ports.CheckoutSession, error) {
	return g.session, g.err
}

func (g stubGateway) GetCheckoutSession(context.Context, string) (*ports.CheckoutSession, error) {
	return g.session, g.err
}

func TestObservableGateway(t *testing.T) {
	t.Run("passes sessions through", func(t *testing.T) {
		rec := newRecorder(t)
		orderMetrics, err := metrics.NewMetrics(rec.Meter("test"))
		require.NoError(t, err)

		want := &ports.CheckoutSession{ID: "cs_1", PaymentStatus: domain.PaymentPaid}
		gateway := adapters.NewObservableGateway(stubGateway{session: want}, discardLogger(), orderMetrics)

		got, err := gateway.GetCheckoutSession(context.Background(), "cs_1")
		require.NoError(t, err)
		assert.Equal(t, want, got)

		_, err = rec.Metric(context.Background(), "payment_gateway_call_duration_seconds")
		require.NoError(t, err)
		span, ok := rec.Span("PaymentGateway.GetCheckoutSession")
		require.True(t, ok)
		assert.Equal(t, codes.Ok, span.Status.Code)
	})

	t.Run("keeps the session-not-found sentinel", func(t *testing.T) {
		rec := newRecorder(t)
		orderMetrics, err := metrics.NewMetrics(rec.Meter("test"))
		require.NoError(t, err)

		gateway := adapters.NewObservableGateway(stubGateway{err: ports.ErrSessionNotFound}, discardLogger(), orderMetrics)

		_, err = gateway.CreateCheckoutSession(context.Background(), ports.CheckoutSessionRequest{Currency: "usd"})
		assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	})
}
