package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/skinstore/internal/orders/domain"
)

// ErrSessionNotFound is returned by gateways that do not recognize a session id.
var ErrSessionNotFound = errors.New("checkout session not found")

// CheckoutLineItem is one priced line sent to the gateway.
type CheckoutLineItem struct {
	Name            string
	UnitAmountCents int64
	Quantity        int64
}

// CheckoutSessionRequest describes a payment attempt.
type CheckoutSessionRequest struct {
	Currency      string
	LineItems     []CheckoutLineItem
	CustomerEmail string
	Metadata      map[string]string
}

// CheckoutSession is the gateway's view of a payment attempt.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
	PaymentStatus   domain.PaymentStatus
	AmountTotal     int64
}

// PaymentGateway creates checkout sessions and reports their payment status.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}
