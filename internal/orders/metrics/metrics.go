package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	ordersCreatedTotal    metric.Int64Counter
	orderCreationDuration metric.Float64Histogram
	checkoutsTotal        metric.Int64Counter
	reconciliationsTotal  metric.Int64Counter
	reconcileDuration     metric.Float64Histogram
	gatewayDuration       metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersCreatedTotal, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	m.orderCreationDuration, err = meter.Float64Histogram(
		"order_creation_duration_seconds",
		metric.WithDescription("Duration of order creation operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_creation_duration histogram: %w", err)
	}

	m.checkoutsTotal, err = meter.Int64Counter(
		"checkouts_total",
		metric.WithDescription("Checkout session attempts by outcome"),
		metric.WithUnit("{checkout}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create checkouts_total counter: %w", err)
	}

	m.reconciliationsTotal, err = meter.Int64Counter(
		"reconciliations_total",
		metric.WithDescription("Payment reconciliations by path and outcome"),
		metric.WithUnit("{reconciliation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reconciliations_total counter: %w", err)
	}

	m.reconcileDuration, err = meter.Float64Histogram(
		"reconciliation_duration_seconds",
		metric.WithDescription("Duration of payment reconciliations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reconciliation_duration histogram: %w", err)
	}

	m.gatewayDuration, err = meter.Float64Histogram(
		"payment_gateway_call_duration_seconds",
		metric.WithDescription("Duration of payment gateway calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create payment_gateway_call_duration histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, source string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ordersCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordOrderCreationDuration(ctx context.Context, source string, durationSeconds float64) {
	m.orderCreationDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("source", source),
	))
}

// RecordCheckout counts checkout attempts. Outcome is one of success,
// validation, upstream, partial_failure or error.
func (m *Metrics) RecordCheckout(ctx context.Context, outcome string) {
	m.checkoutsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordReconciliation counts reconciliations. Path is session or event.
func (m *Metrics) RecordReconciliation(ctx context.Context, path, outcome string) {
	m.reconciliationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("path", path),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordReconcileDuration(ctx context.Context, path string, durationSeconds float64) {
	m.reconcileDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("path", path),
	))
}

func (m *Metrics) RecordGatewayCall(ctx context.Context, operation string, durationSeconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.gatewayDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}
