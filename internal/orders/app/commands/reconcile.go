package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/dejobratic/skinstore/internal/orders/ports"
)

// Outcome describes what a reconciliation did.
type Outcome string

const (
	OutcomeConfirmed   Outcome = "confirmed"
	OutcomeSynthesized Outcome = "synthesized"
	OutcomeFailed      Outcome = "payment_failed"
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomeIgnored     Outcome = "ignored"
)

// ReconcileSessionCommand asks the gateway for the status of a session.
type ReconcileSessionCommand struct {
	SessionID string
}

func (c ReconcileSessionCommand) Validate() error {
	if strings.TrimSpace(c.SessionID) == "" {
		return domain.NewValidationError("session_id", "session_id is required")
	}
	return nil
}

// ReconcileEventCommand applies a verified gateway event.
type ReconcileEventCommand struct {
	Event domain.PaymentEvent
}

type Reconciler interface {
	BySession(ctx context.Context, cmd ReconcileSessionCommand) (*domain.OrderDetails, Outcome, error)
	ByEvent(ctx context.Context, cmd ReconcileEventCommand) (Outcome, error)
}

// ReconcileCommandHandler moves orders to paid or failed. Both paths write
// through conditional updates keyed on the session, so they may run in any
// order and any number of times. Orders synthesized from an event without a
// currency are priced in the store currency.
type ReconcileCommandHandler struct {
	store      ports.OrderStore
	gateway    ports.PaymentGateway
	events     ports.EventBus
	audit      ports.AuditLog
	logger     *slog.Logger
	synthesize bool
	currency   string
	now        func() time.Time
}

func NewReconcileCommandHandler(
	store ports.OrderStore,
	gateway ports.PaymentGateway,
	events ports.EventBus,
	audit ports.AuditLog,
	logger *slog.Logger,
	synthesizeMissingOrders bool,
	currency string,
) *ReconcileCommandHandler {
	return &ReconcileCommandHandler{
		store:      store,
		gateway:    gateway,
		events:     events,
		audit:      audit,
		logger:     logger,
		synthesize: synthesizeMissingOrders,
		currency:   strings.ToLower(currency),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (h *ReconcileCommandHandler) BySession(ctx context.Context, cmd ReconcileSessionCommand) (*domain.OrderDetails, Outcome, error) {
	if err := cmd.Validate(); err != nil {
		return nil, "", err
	}

	details, err := h.store.GetBySessionID(ctx, cmd.SessionID)
	if err != nil {
		return nil, "", err
	}

	session, err := h.gateway.GetCheckoutSession(ctx, cmd.SessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return nil, "", domain.NewNotFoundError("checkout session", cmd.SessionID)
		}
		return nil, "", &domain.UpstreamGatewayError{Op: "get checkout session", Err: err}
	}

	outcome := OutcomeUnchanged
	switch session.PaymentStatus {
	case domain.PaymentPaid:
		changed, err := h.confirm(ctx, details.Order.ID, cmd.SessionID, session.PaymentIntentID, "session")
		if err != nil {
			return nil, "", err
		}
		if changed {
			outcome = OutcomeConfirmed
		}
	case domain.PaymentFailed:
		changed, err := h.fail(ctx, details.Order.ID, cmd.SessionID, "gateway reported failed payment")
		if err != nil {
			return nil, "", err
		}
		if changed {
			outcome = OutcomeFailed
		}
	}

	if outcome == OutcomeUnchanged {
		return details, outcome, nil
	}

	fresh, err := h.store.GetBySessionID(ctx, cmd.SessionID)
	if err != nil {
		return nil, "", fmt.Errorf("reload order for session %s: %w", cmd.SessionID, err)
	}
	return fresh, outcome, nil
}

func (h *ReconcileCommandHandler) ByEvent(ctx context.Context, cmd ReconcileEventCommand) (Outcome, error) {
	event := cmd.Event

	switch event.Kind {
	case domain.EventCheckoutCompleted:
		return h.handleCompleted(ctx, event)
	case domain.EventAsyncPaymentFailed:
		return h.handleFailed(ctx, event)
	default:
		return OutcomeIgnored, nil
	}
}

func (h *ReconcileCommandHandler) handleCompleted(ctx context.Context, event domain.PaymentEvent) (Outcome, error) {
	if event.SessionID == "" {
		return "", domain.NewValidationError("session_id", "event has no checkout session")
	}
	if event.PaymentStatus != domain.PaymentPaid {
		return OutcomeUnchanged, nil
	}

	outcome := OutcomeUnchanged

	var orderID string
	details, err := h.store.GetBySessionID(ctx, event.SessionID)
	switch {
	case err == nil:
		orderID = details.Order.ID
	case errors.Is(err, domain.ErrNotFound):
		synthesized, inserted, err := h.synthesizeOrder(ctx, event)
		if err != nil {
			return "", err
		}
		orderID = synthesized.Order.ID
		if inserted {
			outcome = OutcomeSynthesized
		} else {
			existing, err := h.store.GetBySessionID(ctx, event.SessionID)
			if err != nil {
				h.logPersistenceFailure(ctx, "load order after concurrent insert", event.SessionID, err)
				return "", fmt.Errorf("load order for session %s: %w", event.SessionID, err)
			}
			orderID = existing.Order.ID
		}
	default:
		h.logPersistenceFailure(ctx, "load order", event.SessionID, err)
		return "", fmt.Errorf("load order for session %s: %w", event.SessionID, err)
	}

	changed, err := h.confirm(ctx, orderID, event.SessionID, event.PaymentIntentID, "event")
	if err != nil {
		return "", err
	}
	if changed && outcome == OutcomeUnchanged {
		outcome = OutcomeConfirmed
	}
	return outcome, nil
}

func (h *ReconcileCommandHandler) handleFailed(ctx context.Context, event domain.PaymentEvent) (Outcome, error) {
	if event.SessionID == "" {
		return "", domain.NewValidationError("session_id", "event has no checkout session")
	}

	details, err := h.store.GetBySessionID(ctx, event.SessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logPersistenceFailure(ctx, "load order", event.SessionID, err)
		}
		return "", err
	}

	changed, err := h.fail(ctx, details.Order.ID, event.SessionID, "asynchronous payment failed")
	if err != nil {
		return "", err
	}
	if changed {
		return OutcomeFailed, nil
	}
	return OutcomeUnchanged, nil
}

// synthesizeOrder rebuilds an order for a paid session that has no local row.
// The gateway total becomes a single line so items still sum to the total.
func (h *ReconcileCommandHandler) synthesizeOrder(ctx context.Context, event domain.PaymentEvent) (*domain.OrderDetails, bool, error) {
	if !h.synthesize {
		h.logger.WarnContext(ctx, "paid session has no order and synthesis is disabled",
			"session_id", event.SessionID,
			"event_id", event.ID,
		)
		return nil, false, domain.NewNotFoundError("order for session", event.SessionID)
	}

	if err := event.Metadata.Validate(); err != nil {
		return nil, false, err
	}

	items := []domain.OrderItem{{
		ProductName:    "Checkout session " + event.SessionID,
		Quantity:       1,
		UnitPriceCents: event.AmountTotal,
	}}
	currency := strings.ToLower(event.Currency)
	if currency == "" {
		currency = h.currency
	}
	details := newOrderDetails(event.Metadata.Customer(), event.Metadata.ShippingAddress(), items, event.AmountTotal, currency, event.SessionID, h.now())

	h.logger.WarnContext(ctx, "synthesizing order from payment event",
		"session_id", event.SessionID,
		"event_id", event.ID,
		"order_id", details.Order.ID,
		"customer_email", details.Order.Customer.Email,
		"total_cents", details.Order.TotalCents,
	)

	inserted, err := h.store.CreateIfAbsent(ctx, details)
	if err != nil {
		h.logPersistenceFailure(ctx, "synthesize order", event.SessionID, err)
		return nil, false, fmt.Errorf("synthesize order for session %s: %w", event.SessionID, err)
	}

	if inserted {
		recordAudit(ctx, h.logger, h.audit, ports.AuditEntry{
			Action:    ports.AuditOrderSynthesized,
			OrderID:   details.Order.ID,
			SessionID: event.SessionID,
			Data: map[string]any{
				"event_id":    event.ID,
				"total_cents": event.AmountTotal,
			},
			CreatedAt: h.now(),
		})
	}

	return &details, inserted, nil
}

func (h *ReconcileCommandHandler) confirm(ctx context.Context, orderID, sessionID, paymentIntentID, via string) (bool, error) {
	changed, err := h.store.ConfirmPayment(ctx, sessionID, paymentIntentID, h.now())
	if err != nil {
		h.logPersistenceFailure(ctx, "confirm payment", sessionID, err)
		return false, fmt.Errorf("confirm payment for session %s: %w", sessionID, err)
	}
	if !changed {
		return false, nil
	}

	if err := h.events.PublishOrderPaid(ctx, orderID); err != nil {
		h.logger.WarnContext(ctx, "failed to publish order paid event",
			"order_id", orderID,
			"error", err,
		)
	}

	recordAudit(ctx, h.logger, h.audit, ports.AuditEntry{
		Action:    ports.AuditOrderPaid,
		OrderID:   orderID,
		SessionID: sessionID,
		Data: map[string]any{
			"payment_intent_id": paymentIntentID,
			"via":               via,
		},
		CreatedAt: h.now(),
	})

	return true, nil
}

func (h *ReconcileCommandHandler) fail(ctx context.Context, orderID, sessionID, reason string) (bool, error) {
	changed, err := h.store.FailPayment(ctx, sessionID, h.now())
	if err != nil {
		h.logPersistenceFailure(ctx, "fail payment", sessionID, err)
		return false, fmt.Errorf("fail payment for session %s: %w", sessionID, err)
	}
	if !changed {
		return false, nil
	}

	if err := h.events.PublishPaymentFailed(ctx, orderID, reason); err != nil {
		h.logger.WarnContext(ctx, "failed to publish payment failed event",
			"order_id", orderID,
			"error", err,
		)
	}

	recordAudit(ctx, h.logger, h.audit, ports.AuditEntry{
		Action:    ports.AuditOrderPaymentFailed,
		OrderID:   orderID,
		SessionID: sessionID,
		Data:      map[string]any{"reason": reason},
		CreatedAt: h.now(),
	})

	return true, nil
}

func (h *ReconcileCommandHandler) logPersistenceFailure(ctx context.Context, op, sessionID string, err error) {
	h.logger.ErrorContext(ctx, "order persistence failed during reconciliation",
		"operation", op,
		"session_id", sessionID,
		"error", err,
	)
}
