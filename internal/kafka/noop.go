package kafka

import (
	"context"
	"log/slog"
)

const (
	TopicOrderCreated       = "order.created"
	TopicOrderPaid          = "order.paid"
	TopicOrderPaymentFailed = "order.payment_failed"
)

// NoopEventBus logs lifecycle events without sending them to a broker.
type NoopEventBus struct {
	logger *slog.Logger
}

// NewNoopEventBus returns a new no-op event publisher.
func NewNoopEventBus(logger *slog.Logger) *NoopEventBus {
	return &NoopEventBus{logger: logger}
}

func (n *NoopEventBus) PublishOrderCreated(ctx context.Context, orderID string) error {
	n.logger.DebugContext(ctx, "event::"+TopicOrderCreated, "order_id", orderID)
	return nil
}

func (n *NoopEventBus) PublishOrderPaid(ctx context.Context, orderID string) error {
	n.logger.DebugContext(ctx, "event::"+TopicOrderPaid, "order_id", orderID)
	return nil
}

func (n *NoopEventBus) PublishPaymentFailed(ctx context.Context, orderID string, reason string) error {
	n.logger.DebugContext(ctx, "event::"+TopicOrderPaymentFailed, "order_id", orderID, "reason", reason)
	return nil
}
