package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/dejobratic/skinstore/internal/orders/ports"
)

// CreateOrderCommand stores an order directly, without a payment session.
type CreateOrderCommand struct {
	OrderInput
}

func (c CreateOrderCommand) Validate() error {
	if err := c.OrderInput.Validate(); err != nil {
		return err
	}
	if domain.SumItems(c.orderItems("")) != c.TotalCents {
		return domain.NewValidationError("totalAmount", "total amount does not match order items")
	}
	return nil
}

type CreateOrderHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.OrderDetails, error)
}

type CreateOrderCommandHandler struct {
	store    ports.OrderStore
	events   ports.EventBus
	audit    ports.AuditLog
	logger   *slog.Logger
	currency string
	now      func() time.Time
}

func NewCreateOrderCommandHandler(
	store ports.OrderStore,
	events ports.EventBus,
	audit ports.AuditLog,
	logger *slog.Logger,
	currency string,
) *CreateOrderCommandHandler {
	return &CreateOrderCommandHandler{
		store:    store,
		events:   events,
		audit:    audit,
		logger:   logger,
		currency: currency,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.OrderDetails, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	details := newOrderDetails(cmd.Customer, cmd.Shipping, cmd.orderItems(""), cmd.TotalCents, h.currency, "", h.now())
	if err := details.Validate(); err != nil {
		return nil, err
	}

	if err := h.store.Create(ctx, details); err != nil {
		return nil, fmt.Errorf("store order: %w", err)
	}

	announceCreated(ctx, h.logger, h.events, h.audit, details, h.now())

	return &details, nil
}

// announceCreated publishes and audits a new order. Failures are logged only.
func announceCreated(
	ctx context.Context,
	logger *slog.Logger,
	events ports.EventBus,
	audit ports.AuditLog,
	details domain.OrderDetails,
	at time.Time,
) {
	if err := events.PublishOrderCreated(ctx, details.Order.ID); err != nil {
		logger.WarnContext(ctx, "failed to publish order created event",
			"order_id", details.Order.ID,
			"error", err,
		)
	}

	recordAudit(ctx, logger, audit, ports.AuditEntry{
		Action:    ports.AuditOrderCreated,
		OrderID:   details.Order.ID,
		SessionID: details.Order.SessionID,
		Data: map[string]any{
			"total_cents": details.Order.TotalCents,
			"items":       len(details.Items),
		},
		CreatedAt: at,
	})
}

func recordAudit(ctx context.Context, logger *slog.Logger, audit ports.AuditLog, entry ports.AuditEntry) {
	if err := audit.Record(ctx, entry); err != nil {
		logger.WarnContext(ctx, "failed to record audit entry",
			"action", entry.Action,
			"order_id", entry.OrderID,
			"session_id", entry.SessionID,
			"error", err,
		)
	}
}
