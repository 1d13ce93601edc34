// Package webhook authenticates inbound payment gateway notifications and
// parses them into domain payment events.
package webhook

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	stripewebhook "github.com/stripe/stripe-go/v76/webhook"

	"github.com/dejobratic/skinstore/internal/orders/domain"
)

// SignatureHeader carries "t=<unix>,v1=<hex>" for every delivery.
const SignatureHeader = "Stripe-Signature"

const (
	typeCheckoutCompleted             = "checkout.session.completed"
	typeCheckoutAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	typeCheckoutAsyncPaymentFailed    = "checkout.session.async_payment_failed"
)

// Verifier checks the HMAC signature of raw request bodies. A zero tolerance
// disables the timestamp window check.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{secret: secret, tolerance: tolerance}
}

// Verify authenticates body against header and parses it. Every failure,
// including a body that does not parse, is a SignatureVerificationError.
func (v *Verifier) Verify(body []byte, header string) (domain.PaymentEvent, error) {
	if v.secret == "" {
		return domain.PaymentEvent{}, &domain.SignatureVerificationError{Reason: "webhook secret is not configured"}
	}
	if header == "" {
		return domain.PaymentEvent{}, &domain.SignatureVerificationError{Reason: "missing signature header"}
	}

	var err error
	if v.tolerance > 0 {
		err = stripewebhook.ValidatePayloadWithTolerance(body, header, v.secret, v.tolerance)
	} else {
		err = stripewebhook.ValidatePayloadIgnoringTolerance(body, header, v.secret)
	}
	if err != nil {
		return domain.PaymentEvent{}, &domain.SignatureVerificationError{Reason: rejectReason(err), Err: err}
	}

	event, err := Parse(body)
	if err != nil {
		return domain.PaymentEvent{}, &domain.SignatureVerificationError{Reason: "malformed event payload", Err: err}
	}
	return event, nil
}

// Sign produces a signature header for body at the given time.
func (v *Verifier) Sign(body []byte, at time.Time) string {
	return SignatureHeaderValue(body, v.secret, at)
}

func SignatureHeaderValue(body []byte, secret string, at time.Time) string {
	sig := stripewebhook.ComputeSignature(at, body, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, stripewebhook.ErrNotSigned):
		return "missing signature header"
	case errors.Is(err, stripewebhook.ErrInvalidHeader):
		return "malformed signature header"
	case errors.Is(err, stripewebhook.ErrTooOld):
		return "timestamp outside tolerance"
	case errors.Is(err, stripewebhook.ErrNoValidSignature):
		return "no matching signature"
	default:
		return "invalid signature"
	}
}

// Parse decodes a gateway event into the closed PaymentEvent variant. Event
// types the coordinator does not act on become EventIgnored.
func Parse(body []byte) (domain.PaymentEvent, error) {
	var event stripe.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if event.ID == "" || event.Type == "" {
		return domain.PaymentEvent{}, errors.New("event id and type are required")
	}

	out := domain.PaymentEvent{
		ID:   event.ID,
		Type: string(event.Type),
		Kind: domain.EventIgnored,
	}

	switch out.Type {
	case typeCheckoutCompleted, typeCheckoutAsyncPaymentSucceeded:
		out.Kind = domain.EventCheckoutCompleted
	case typeCheckoutAsyncPaymentFailed:
		out.Kind = domain.EventAsyncPaymentFailed
	default:
		return out, nil
	}

	if event.Data == nil || len(event.Data.Raw) == 0 {
		return domain.PaymentEvent{}, errors.New("event data is missing")
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("decode checkout session: %w", err)
	}
	if session.ID == "" {
		return domain.PaymentEvent{}, errors.New("checkout session id is missing")
	}

	out.SessionID = session.ID
	out.PaymentStatus = domain.ParseGatewayPaymentStatus(string(session.PaymentStatus))
	out.AmountTotal = session.AmountTotal
	out.Currency = string(session.Currency)
	out.Metadata = domain.MetadataFromMap(session.Metadata)
	if session.PaymentIntent != nil {
		out.PaymentIntentID = session.PaymentIntent.ID
	}

	return out, nil
}
