package metrics

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m.Data
			}
		}
	}

	t.Fatalf("%s metric not found", name)
	return nil
}

func TestInitializeMetrics(t *testing.T) {
	t.Run("initializes all metric instruments successfully", func(t *testing.T) {
		metrics, _ := setupMetrics(t)

		if metrics.ordersCreatedTotal == nil {
			t.Error("ordersCreatedTotal is nil")
		}
		if metrics.orderCreationDuration == nil {
			t.Error("orderCreationDuration is nil")
		}
		if metrics.checkoutsTotal == nil {
			t.Error("checkoutsTotal is nil")
		}
		if metrics.reconciliationsTotal == nil {
			t.Error("reconciliationsTotal is nil")
		}
		if metrics.reconcileDuration == nil {
			t.Error("reconcileDuration is nil")
		}
		if metrics.gatewayDuration == nil {
			t.Error("gatewayDuration is nil")
		}
	})
}

func TestRecordOrderCreated(t *testing.T) {
	t.Run("records order creation count per source and status", func(t *testing.T) {
		metrics, reader := setupMetrics(t)
		ctx := context.Background()

		metrics.RecordOrderCreated(ctx, "order", true)
		metrics.RecordOrderCreated(ctx, "order", false)
		metrics.RecordOrderCreated(ctx, "checkout", true)

		sum, ok := collect(t, reader, "orders_created_total").(metricdata.Sum[int64])
		if !ok {
			t.Fatal("Expected Sum[int64] data type")
		}
		if len(sum.DataPoints) != 3 {
			t.Errorf("Expected 3 data points, got %d", len(sum.DataPoints))
		}
	})
}

func TestRecordOrderCreationDuration(t *testing.T) {
	t.Run("records order creation duration", func(t *testing.T) {
		metrics, reader := setupMetrics(t)
		ctx := context.Background()

		metrics.RecordOrderCreationDuration(ctx, "order", 1.5)
		metrics.RecordOrderCreationDuration(ctx, "order", 2.3)

		histogram, ok := collect(t, reader, "order_creation_duration_seconds").(metricdata.Histogram[float64])
		if !ok {
			t.Fatal("Expected Histogram[float64] data type")
		}
		if len(histogram.DataPoints) != 1 {
			t.Fatalf("Expected 1 data point, got %d", len(histogram.DataPoints))
		}
		if histogram.DataPoints[0].Count != 2 {
			t.Errorf("Expected count=2, got %d", histogram.DataPoints[0].Count)
		}
	})
}

func TestRecordCheckout(t *testing.T) {
	t.Run("records one data point per outcome", func(t *testing.T) {
		metrics, reader := setupMetrics(t)
		ctx := context.Background()

		metrics.RecordCheckout(ctx, "success")
		metrics.RecordCheckout(ctx, "success")
		metrics.RecordCheckout(ctx, "upstream")

		sum, ok := collect(t, reader, "checkouts_total").(metricdata.Sum[int64])
		if !ok {
			t.Fatal("Expected Sum[int64] data type")
		}
		if len(sum.DataPoints) != 2 {
			t.Errorf("Expected 2 data points, got %d", len(sum.DataPoints))
		}

		var total int64
		for _, dp := range sum.DataPoints {
			total += dp.Value
		}
		if total != 3 {
			t.Errorf("Expected total=3, got %d", total)
		}
	})
}

func TestRecordReconciliation(t *testing.T) {
	t.Run("records reconciliations and their duration per path", func(t *testing.T) {
		metrics, reader := setupMetrics(t)
		ctx := context.Background()

		metrics.RecordReconciliation(ctx, "session", "confirmed")
		metrics.RecordReconciliation(ctx, "event", "ignored")
		metrics.RecordReconcileDuration(ctx, "session", 0.2)
		metrics.RecordReconcileDuration(ctx, "event", 0.1)

		sum, ok := collect(t, reader, "reconciliations_total").(metricdata.Sum[int64])
		if !ok {
			t.Fatal("Expected Sum[int64] data type")
		}
		if len(sum.DataPoints) != 2 {
			t.Errorf("Expected 2 data points, got %d", len(sum.DataPoints))
		}

		histogram, ok := collect(t, reader, "reconciliation_duration_seconds").(metricdata.Histogram[float64])
		if !ok {
			t.Fatal("Expected Histogram[float64] data type")
		}
		if len(histogram.DataPoints) != 2 {
			t.Errorf("Expected 2 data points, got %d", len(histogram.DataPoints))
		}
	})
}

func TestRecordGatewayCall(t *testing.T) {
	t.Run("records gateway call duration per operation and status", func(t *testing.T) {
		metrics, reader := setupMetrics(t)
		ctx := context.Background()

		metrics.RecordGatewayCall(ctx, "create_checkout_session", 0.4, true)
		metrics.RecordGatewayCall(ctx, "get_checkout_session", 0.1, false)

		histogram, ok := collect(t, reader, "payment_gateway_call_duration_seconds").(metricdata.Histogram[float64])
		if !ok {
			t.Fatal("Expected Histogram[float64] data type")
		}
		if len(histogram.DataPoints) != 2 {
			t.Errorf("Expected 2 data points, got %d", len(histogram.DataPoints))
		}
	})
}
