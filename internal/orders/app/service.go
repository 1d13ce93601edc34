package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dejobratic/skinstore/internal/money"
	"github.com/dejobratic/skinstore/internal/orders/app/commands"
	"github.com/dejobratic/skinstore/internal/orders/app/queries"
	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/dejobratic/skinstore/internal/orders/metrics"
	"github.com/dejobratic/skinstore/internal/orders/ports"
)

// Dependencies are the adapters the service is wired with.
type Dependencies struct {
	Store       ports.OrderStore
	Catalog     ports.Catalog
	Gateway     ports.PaymentGateway
	Events      ports.EventBus
	Audit       ports.AuditLog
	AuditReader ports.AuditReader
	Idempotency ports.IdempotencyStore
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

type Options struct {
	Currency                string
	PriceToleranceCents     int64
	SynthesizeMissingOrders bool
}

// Service bundles use cases for handling orders via the API and shopctl.
type Service struct {
	catalog            ports.Catalog
	auditReader        ports.AuditReader
	idemStore          ports.IdempotencyStore
	currency           string
	createOrderHandler commands.CreateOrderHandler
	checkoutHandler    commands.CheckoutHandler
	reconciler         commands.Reconciler
	getOrderHandler    *queries.GetOrderQueryHandler
	listOrdersHandler  *queries.ListOrdersQueryHandler
}

// NewService wires required dependencies.
func NewService(deps Dependencies, opts Options) *Service {
	createOrder := commands.NewCreateOrderCommandHandler(deps.Store, deps.Events, deps.Audit, deps.Logger, opts.Currency)
	checkout := commands.NewInitiateCheckoutCommandHandler(
		deps.Catalog, deps.Gateway, deps.Store, deps.Events, deps.Audit, deps.Logger,
		commands.CheckoutConfig{Currency: opts.Currency, PriceToleranceCents: opts.PriceToleranceCents},
	)
	reconciler := commands.NewReconcileCommandHandler(
		deps.Store, deps.Gateway, deps.Events, deps.Audit, deps.Logger, opts.SynthesizeMissingOrders, opts.Currency,
	)

	return &Service{
		catalog:            deps.Catalog,
		auditReader:        deps.AuditReader,
		idemStore:          deps.Idempotency,
		currency:           opts.Currency,
		createOrderHandler: commands.NewObservableCreateOrderHandler(createOrder, deps.Logger, deps.Metrics),
		checkoutHandler:    commands.NewObservableCheckoutHandler(checkout, deps.Logger, deps.Metrics),
		reconciler:         commands.NewObservableReconciler(reconciler, deps.Logger, deps.Metrics),
		getOrderHandler:    queries.NewGetOrderQueryHandler(deps.Store),
		listOrdersHandler:  queries.NewListOrdersQueryHandler(deps.Store),
	}
}

// CreateOrder stores an order submitted without a payment session.
func (s *Service) CreateOrder(ctx context.Context, input commands.OrderInput) (*domain.OrderDetails, error) {
	return s.createOrderHandler.Handle(ctx, commands.CreateOrderCommand{OrderInput: input})
}

// InitiateCheckout opens a payment session and stores its pending order.
func (s *Service) InitiateCheckout(ctx context.Context, input commands.OrderInput) (*commands.CheckoutResult, error) {
	return s.checkoutHandler.Handle(ctx, commands.InitiateCheckoutCommand{OrderInput: input})
}

// ReconcileBySession polls the gateway for a session and applies the result.
func (s *Service) ReconcileBySession(ctx context.Context, sessionID string) (*domain.OrderDetails, error) {
	details, _, err := s.reconciler.BySession(ctx, commands.ReconcileSessionCommand{SessionID: sessionID})
	return details, err
}

// ReconcileByEvent applies a verified gateway event.
func (s *Service) ReconcileByEvent(ctx context.Context, event domain.PaymentEvent) (commands.Outcome, error) {
	return s.reconciler.ByEvent(ctx, commands.ReconcileEventCommand{Event: event})
}

// GetOrder retrieves an order with its items and tracking by ID.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.OrderDetails, error) {
	return s.getOrderHandler.Handle(ctx, queries.GetOrderQuery{OrderID: id})
}

// GetOrderBySession reads the stored order for a checkout session without polling the gateway.
func (s *Service) GetOrderBySession(ctx context.Context, sessionID string) (*domain.OrderDetails, error) {
	return s.getOrderHandler.Handle(ctx, queries.GetOrderQuery{SessionID: sessionID})
}

// ListOrders returns orders using a filter.
func (s *Service) ListOrders(ctx context.Context, query queries.ListOrdersQuery) ([]domain.Order, error) {
	return s.listOrdersHandler.Handle(ctx, query)
}

// OrderHistory lists the audit entries recorded for an order, newest first.
func (s *Service) OrderHistory(ctx context.Context, orderID string, limit int64) ([]ports.AuditEntry, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, domain.NewValidationError("id", "order id is required")
	}
	if s.auditReader == nil {
		return []ports.AuditEntry{}, nil
	}
	entries, err := s.auditReader.Entries(ctx, orderID, limit)
	if err != nil {
		return nil, fmt.Errorf("read audit trail: %w", err)
	}
	return entries, nil
}

// CreateProductInput is the admin payload. Price is a decimal string such as "19.99".
type CreateProductInput struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
}

// CreateProduct adds a catalog entry.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	cents, err := money.ParseCents(strings.TrimSpace(input.Price))
	if err != nil {
		return nil, domain.NewValidationError("price", fmt.Sprintf("invalid price %q", input.Price))
	}

	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = s.currency
	}

	product := domain.Product{
		Name:       strings.TrimSpace(input.Name),
		PriceCents: cents,
		Currency:   currency,
		CreatedAt:  time.Now().UTC(),
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	created, err := s.catalog.CreateProduct(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// ReserveIdempotencyKey claims a key before the request runs. It reports false
// when another request holds the key.
func (s *Service) ReserveIdempotencyKey(ctx context.Context, key string) (bool, error) {
	return s.idemStore.Reserve(ctx, key)
}

// ReleaseIdempotencyKey frees a reserved key after a failed request.
func (s *Service) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return s.idemStore.Release(ctx, key)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}
