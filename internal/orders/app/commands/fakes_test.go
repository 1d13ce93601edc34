package commands_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dejobratic/skinstore/internal/orders/adapters/memory"
	"github.com/dejobratic/skinstore/internal/orders/app/commands"
	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/dejobratic/skinstore/internal/orders/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGateway struct {
	mu       sync.Mutex
	createFn func(ctx context.Context, req ports.CheckoutSessionRequest) (*ports.CheckoutSession, error)
	getFn    func(ctx context.Context, sessionID string) (*ports.CheckoutSession, error)
	sessions map[string]ports.CheckoutSession
	requests []ports.CheckoutSessionRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: make(map[string]ports.CheckoutSession)}
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, req ports.CheckoutSessionRequest) (*ports.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)
	if g.createFn != nil {
		return g.createFn(ctx, req)
	}

	var total int64
	for _, line := range req.LineItems {
		total += line.UnitAmountCents * line.Quantity
	}
	session := ports.CheckoutSession{
		ID:            fmt.Sprintf("cs_test_%d", len(g.requests)),
		URL:           fmt.Sprintf("https://checkout.test/%d", len(g.requests)),
		PaymentStatus: domain.PaymentPending,
		AmountTotal:   total,
	}
	g.sessions[session.ID] = session
	return &session, nil
}

func (g *fakeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*ports.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.getFn != nil {
		return g.getFn(ctx, sessionID)
	}
	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, ports.ErrSessionNotFound
	}
	return &session, nil
}

func (g *fakeGateway) setStatus(sessionID string, status domain.PaymentStatus, intentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	session := g.sessions[sessionID]
	session.ID = sessionID
	session.PaymentStatus = status
	session.PaymentIntentID = intentID
	g.sessions[sessionID] = session
}

type recordingEventBus struct {
	mu         sync.Mutex
	created    []string
	paid       []string
	failed     []string
	publishErr error
}

func (b *recordingEventBus) PublishOrderCreated(_ context.Context, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, orderID)
	return b.publishErr
}

func (b *recordingEventBus) PublishOrderPaid(_ context.Context, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paid = append(b.paid, orderID)
	return b.publishErr
}

func (b *recordingEventBus) PublishPaymentFailed(_ context.Context, orderID string, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed = append(b.failed, orderID)
	return b.publishErr
}

func (b *recordingEventBus) paidCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.paid)
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []ports.AuditEntry
	err     error
}

func (a *recordingAudit) Record(_ context.Context, entry ports.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return a.err
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	actions := make([]string, 0, len(a.entries))
	for _, entry := range a.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

// faultyStore injects failures in front of the in-memory store.
type faultyStore struct {
	*memory.Repository
	createErr  error
	confirmErr error
	getErr     error
}

func (s *faultyStore) Create(ctx context.Context, details domain.OrderDetails) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.Repository.Create(ctx, details)
}

func (s *faultyStore) ConfirmPayment(ctx context.Context, sessionID, paymentIntentID string, at time.Time) (bool, error) {
	if s.confirmErr != nil {
		return false, s.confirmErr
	}
	return s.Repository.ConfirmPayment(ctx, sessionID, paymentIntentID, at)
}

func (s *faultyStore) GetBySessionID(ctx context.Context, sessionID string) (*domain.OrderDetails, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.Repository.GetBySessionID(ctx, sessionID)
}

func cleanserInput() commands.OrderInput {
	return commands.OrderInput{
		Customer:   domain.Customer{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "555-0100"},
		Shipping:   domain.Address{Street: "1 Main St", City: "New York", Region: "NY", PostalCode: "10001"},
		Items:      []commands.ItemInput{{ProductID: 1, Name: "Cleanser", UnitPriceCents: 1999, Quantity: 2}},
		TotalCents: 3998,
	}
}

func seededCatalog() *memory.Catalog {
	return memory.NewCatalog(
		domain.Product{ID: 1, Name: "Cleanser", PriceCents: 1999, Currency: "usd"},
		domain.Product{ID: 2, Name: "Serum", PriceCents: 2999, Currency: "usd"},
	)
}
