package commands_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dejobratic/skinstore/internal/orders/adapters/memory"
	"github.com/dejobratic/skinstore/internal/orders/app/commands"
	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/dejobratic/skinstore/internal/orders/ports"
)

func newCreateOrderHandler(store ports.OrderStore, events *recordingEventBus, audit *recordingAudit) *commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(store, events, audit, discardLogger(), "usd")
}

func TestCreateOrder(t *testing.T) {
	t.Run("creates pending order with items and tracking", func(t *testing.T) {
		store := memory.NewRepository()
		events := &recordingEventBus{}
		audit := &recordingAudit{}
		handler := newCreateOrderHandler(store, events, audit)

		details, err := handler.Handle(context.Background(), commands.CreateOrderCommand{OrderInput: cleanserInput()})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if details.Order.Status != domain.StatusPending {
			t.Errorf("expected status pending, got %s", details.Order.Status)
		}
		if details.Order.PaymentStatus != domain.PaymentUnset {
			t.Errorf("expected payment status unset, got %s", details.Order.PaymentStatus)
		}
		if details.Order.SessionID != "" {
			t.Errorf("expected no session, got %s", details.Order.SessionID)
		}
		if details.Order.TotalCents != 3998 {
			t.Errorf("expected total 3998, got %d", details.Order.TotalCents)
		}
		if details.Tracking == nil || !strings.HasPrefix(details.Tracking.TrackingNumber, "SKN-") {
			t.Errorf("expected SKN- tracking number, got %+v", details.Tracking)
		}

		stored, err := store.GetByID(context.Background(), details.Order.ID)
		if err != nil {
			t.Fatalf("expected stored order, got: %v", err)
		}
		if len(stored.Items) != 1 || stored.Items[0].OrderID != details.Order.ID {
			t.Errorf("expected stored item linked to order, got %+v", stored.Items)
		}

		if len(events.created) != 1 || events.created[0] != details.Order.ID {
			t.Errorf("expected order created event, got %v", events.created)
		}
		if got := audit.actions(); len(got) != 1 || got[0] != ports.AuditOrderCreated {
			t.Errorf("expected order.created audit entry, got %v", got)
		}
	})

	t.Run("rejects empty items with the storefront message", func(t *testing.T) {
		handler := newCreateOrderHandler(memory.NewRepository(), &recordingEventBus{}, &recordingAudit{})

		input := cleanserInput()
		input.Items = nil
		input.Customer = domain.Customer{}

		_, err := handler.Handle(context.Background(), commands.CreateOrderCommand{OrderInput: input})

		var validationErr *domain.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("expected ValidationError, got: %v", err)
		}
		if validationErr.Message != "No items in order." {
			t.Errorf("expected 'No items in order.', got %q", validationErr.Message)
		}
	})

	t.Run("rejects totals that do not match the items", func(t *testing.T) {
		handler := newCreateOrderHandler(memory.NewRepository(), &recordingEventBus{}, &recordingAudit{})

		input := cleanserInput()
		input.TotalCents = 3997

		_, err := handler.Handle(context.Background(), commands.CreateOrderCommand{OrderInput: input})

		var validationErr *domain.ValidationError
		if !errors.As(err, &validationErr) || validationErr.Field != "totalAmount" {
			t.Errorf("expected totalAmount ValidationError, got: %v", err)
		}
	})

	t.Run("rejects invalid customer data", func(t *testing.T) {
		handler := newCreateOrderHandler(memory.NewRepository(), &recordingEventBus{}, &recordingAudit{})

		tests := []struct {
			name   string
			mutate func(*commands.OrderInput)
		}{
			{"missing first name", func(in *commands.OrderInput) { in.Customer.FirstName = "" }},
			{"missing email", func(in *commands.OrderInput) { in.Customer.Email = "" }},
			{"invalid email", func(in *commands.OrderInput) { in.Customer.Email = "not-an-email" }},
			{"zero quantity", func(in *commands.OrderInput) { in.Items[0].Quantity = 0 }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				input := cleanserInput()
				tt.mutate(&input)

				_, err := handler.Handle(context.Background(), commands.CreateOrderCommand{OrderInput: input})

				var validationErr *domain.ValidationError
				if !errors.As(err, &validationErr) {
					t.Errorf("expected ValidationError, got: %v", err)
				}
			})
		}
	})

	t.Run("returns store errors", func(t *testing.T) {
		storeErr := errors.New("database unavailable")
		store := &faultyStore{Repository: memory.NewRepository(), createErr: storeErr}
		events := &recordingEventBus{}
		handler := newCreateOrderHandler(store, events, &recordingAudit{})

		_, err := handler.Handle(context.Background(), commands.CreateOrderCommand{OrderInput: cleanserInput()})

		if !errors.Is(err, storeErr) {
			t.Errorf("expected wrapped store error, got: %v", err)
		}
		if len(events.created) != 0 {
			t.Errorf("expected no events, got %v", events.created)
		}
	})

	t.Run("publish and audit failures do not fail the order", func(t *testing.T) {
		events := &recordingEventBus{publishErr: errors.New("bus down")}
		audit := &recordingAudit{err: errors.New("audit down")}
		handler := newCreateOrderHandler(memory.NewRepository(), events, audit)

		details, err := handler.Handle(context.Background(), commands.CreateOrderCommand{OrderInput: cleanserInput()})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if details == nil {
			t.Fatal("expected order to be returned")
		}
	})
}
