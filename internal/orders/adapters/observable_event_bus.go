package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/skinstore/internal/kafka"
	"github.com/dejobratic/skinstore/internal/orders/ports"
	"github.com/dejobratic/skinstore/internal/telemetry"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *kafka.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *kafka.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishOrderCreated(ctx context.Context, orderID string) error {
	return e.observe(ctx, "EventBus.PublishOrderCreated", kafka.TopicOrderCreated, orderID, nil,
		func(ctx context.Context) error { return e.bus.PublishOrderCreated(ctx, orderID) })
}

func (e *ObservableEventBus) PublishOrderPaid(ctx context.Context, orderID string) error {
	return e.observe(ctx, "EventBus.PublishOrderPaid", kafka.TopicOrderPaid, orderID, nil,
		func(ctx context.Context) error { return e.bus.PublishOrderPaid(ctx, orderID) })
}

func (e *ObservableEventBus) PublishPaymentFailed(ctx context.Context, orderID string, reason string) error {
	return e.observe(ctx, "EventBus.PublishPaymentFailed", kafka.TopicOrderPaymentFailed, orderID,
		[]attribute.KeyValue{attribute.String("failure.reason", reason)},
		func(ctx context.Context) error { return e.bus.PublishPaymentFailed(ctx, orderID, reason) })
}

func (e *ObservableEventBus) observe(
	ctx context.Context,
	spanName, topic, orderID string,
	extra []attribute.KeyValue,
	publish func(ctx context.Context) error,
) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append([]attribute.KeyValue{
		telemetry.AttrOrderID.String(orderID),
		telemetry.AttrEventType.String(topic),
		attribute.String("topic", topic),
	}, extra...)...)

	start := time.Now()
	err := publish(ctx)
	e.metrics.RecordPublish(ctx, topic, time.Since(start).Seconds(), err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
