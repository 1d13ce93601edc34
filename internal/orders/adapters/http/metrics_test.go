package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	metrics, err := NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return metrics, reader
}

func collectRequests(t *testing.T, reader *sdkmetric.ManualReader) metricdata.Sum[int64] {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatal("Expected Sum[int64] data type")
			}
			return sum
		}
	}
	t.Fatal("http_requests_total metric not found")
	return metricdata.Sum[int64]{}
}

func TestInitializeMetrics(t *testing.T) {
	metrics, _ := setupMetrics(t)

	if metrics.requestDuration == nil {
		t.Error("requestDuration is nil")
	}
	if metrics.requestsTotal == nil {
		t.Error("requestsTotal is nil")
	}
	if metrics.rateLimited == nil {
		t.Error("rateLimited is nil")
	}
}

func TestRecordRequest(t *testing.T) {
	metrics, reader := setupMetrics(t)
	ctx := context.Background()

	metrics.RecordRequest(ctx, http.MethodPost, "/orders", http.StatusCreated, 0.05)
	metrics.RecordRequest(ctx, http.MethodPost, "/orders", http.StatusBadRequest, 0.01)

	if got := len(collectRequests(t, reader).DataPoints); got != 2 {
		t.Errorf("Expected 2 data points, got %d", got)
	}
}

func TestWithMetricsUsesRoutePattern(t *testing.T) {
	metrics, reader := setupMetrics(t)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler { return WithMetrics(next, metrics) })
	router.Get("/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))
	}

	sum := collectRequests(t, reader)
	if len(sum.DataPoints) != 1 {
		t.Fatalf("Expected 1 data point, got %d", len(sum.DataPoints))
	}
	point := sum.DataPoints[0]
	if point.Value != 3 {
		t.Errorf("Expected count 3, got %d", point.Value)
	}
	if route, ok := point.Attributes.Value("route"); !ok || route.AsString() != "/orders/{id}" {
		t.Errorf("Expected route /orders/{id}, got %v", route)
	}
	if status, ok := point.Attributes.Value("status_code"); !ok || status.AsInt64() != http.StatusNotFound {
		t.Errorf("Expected status 404, got %v", status)
	}
}

func TestWithMaxBodySize(t *testing.T) {
	handler := WithMaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := &Handler{}
		var dst map[string]any
		if h.decode(w, r, &dst) {
			w.WriteHeader(http.StatusOK)
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"far too long"}`)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", rec.Code)
	}
}
