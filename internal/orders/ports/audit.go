package ports

import (
	"context"
	"time"
)

const (
	AuditOrderCreated          = "order.created"
	AuditOrderPaid             = "order.paid"
	AuditOrderPaymentFailed    = "order.payment_failed"
	AuditOrderSynthesized      = "order.synthesized"
	AuditCheckoutPartialFailed = "checkout.partial_failure"
)

// AuditEntry is one append-only record of something that happened to an order.
type AuditEntry struct {
	Action    string         `json:"action"`
	OrderID   string         `json:"order_id"`
	SessionID string         `json:"session_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditLog stores audit entries. Implementations never update or delete entries.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// AuditReader lists the entries recorded for one order, newest first.
type AuditReader interface {
	Entries(ctx context.Context, orderID string, limit int64) ([]AuditEntry, error)
}
