package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/dejobratic/skinstore/internal/orders/ports"
)

// InitiateCheckoutCommand opens a payment session and stores the pending order.
type InitiateCheckoutCommand struct {
	OrderInput
}

type CheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url,omitempty"`
	OrderID   string `json:"orderId"`
}

type CheckoutHandler interface {
	Handle(ctx context.Context, cmd InitiateCheckoutCommand) (*CheckoutResult, error)
}

type CheckoutConfig struct {
	Currency            string
	PriceToleranceCents int64
}

type InitiateCheckoutCommandHandler struct {
	catalog ports.Catalog
	gateway ports.PaymentGateway
	store   ports.OrderStore
	events  ports.EventBus
	audit   ports.AuditLog
	logger  *slog.Logger
	cfg     CheckoutConfig
	now     func() time.Time
}

func NewInitiateCheckoutCommandHandler(
	catalog ports.Catalog,
	gateway ports.PaymentGateway,
	store ports.OrderStore,
	events ports.EventBus,
	audit ports.AuditLog,
	logger *slog.Logger,
	cfg CheckoutConfig,
) *InitiateCheckoutCommandHandler {
	return &InitiateCheckoutCommandHandler{
		catalog: catalog,
		gateway: gateway,
		store:   store,
		events:  events,
		audit:   audit,
		logger:  logger,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (h *InitiateCheckoutCommandHandler) Handle(ctx context.Context, cmd InitiateCheckoutCommand) (*CheckoutResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	// The client total is checked against the client's own lines. Prices
	// within tolerance are accepted, and the catalog subtotal is what gets
	// charged and stored.
	if domain.SumItems(cmd.orderItems("")) != cmd.TotalCents {
		return nil, domain.NewValidationError("totalAmount", "total amount does not match order items")
	}

	items, err := h.priceItems(ctx, cmd.Items)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateItems(items); err != nil {
		return nil, err
	}
	subtotal := domain.SumItems(items)

	session, err := h.gateway.CreateCheckoutSession(ctx, h.sessionRequest(cmd.OrderInput, items))
	if err != nil {
		return nil, &domain.UpstreamGatewayError{Op: "create checkout session", Err: err}
	}

	details := newOrderDetails(cmd.Customer, cmd.Shipping, items, subtotal, h.cfg.Currency, session.ID, h.now())
	if err := h.store.Create(ctx, details); err != nil {
		h.logger.ErrorContext(ctx, "checkout session created but order was not stored",
			"session_id", session.ID,
			"order_id", details.Order.ID,
			"customer_email", details.Order.Customer.Email,
			"total_cents", details.Order.TotalCents,
			"items", details.Items,
			"error", err,
		)
		recordAudit(ctx, h.logger, h.audit, ports.AuditEntry{
			Action:    ports.AuditCheckoutPartialFailed,
			OrderID:   details.Order.ID,
			SessionID: session.ID,
			Data: map[string]any{
				"customer_email": details.Order.Customer.Email,
				"total_cents":    details.Order.TotalCents,
				"error":          err.Error(),
			},
			CreatedAt: h.now(),
		})
		return nil, &domain.PartialFailureError{SessionID: session.ID, Err: err}
	}

	announceCreated(ctx, h.logger, h.events, h.audit, details, h.now())

	return &CheckoutResult{
		SessionID: session.ID,
		URL:       session.URL,
		OrderID:   details.Order.ID,
	}, nil
}

// priceItems replaces client prices with catalog prices. A client price that
// differs by more than the tolerance is rejected.
func (h *InitiateCheckoutCommandHandler) priceItems(ctx context.Context, input []ItemInput) ([]domain.OrderItem, error) {
	ids := make([]int64, 0, len(input))
	for _, item := range input {
		ids = append(ids, item.ProductID)
	}

	products, err := h.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load catalog prices: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(input))
	for _, item := range input {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, domain.NewValidationError("items.id", fmt.Sprintf("Product %d is not available.", item.ProductID))
		}

		if diff := item.UnitPriceCents - product.PriceCents; diff > h.cfg.PriceToleranceCents || -diff > h.cfg.PriceToleranceCents {
			return nil, domain.NewValidationError("items.price", fmt.Sprintf("The price of %s has changed.", product.Name))
		}

		items = append(items, domain.OrderItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: product.PriceCents,
		})
	}

	return items, nil
}

func (h *InitiateCheckoutCommandHandler) sessionRequest(in OrderInput, items []domain.OrderItem) ports.CheckoutSessionRequest {
	lines := make([]ports.CheckoutLineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, ports.CheckoutLineItem{
			Name:            item.ProductName,
			UnitAmountCents: item.UnitPriceCents,
			Quantity:        item.Quantity,
		})
	}

	return ports.CheckoutSessionRequest{
		Currency:      h.cfg.Currency,
		LineItems:     lines,
		CustomerEmail: in.Customer.Email,
		Metadata:      in.Metadata().Map(),
	}
}
