// Package stripe implements the payment gateway port with Stripe Checkout.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/dejobratic/skinstore/internal/orders/ports"
)

const successPath = "/order/success?session_id={CHECKOUT_SESSION_ID}"

type Config struct {
	SecretKey string
	// APIURL overrides the Stripe API base URL, for tests and local mocks.
	APIURL  string
	BaseURL string
	Timeout time.Duration
}

// Gateway is constructed once at startup and shared by all requests.
type Gateway struct {
	api        *client.API
	successURL string
	cancelURL  string
}

func NewGateway(cfg Config) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	backendCfg := &stripeapi.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		LeveledLogger:     &stripeapi.LeveledLogger{Level: stripeapi.LevelError},
		MaxNetworkRetries: stripeapi.Int64(1),
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripeapi.String(cfg.APIURL)
	}

	api := client.New(cfg.SecretKey, &stripeapi.Backends{
		API:     stripeapi.GetBackendWithConfig(stripeapi.APIBackend, backendCfg),
		Connect: stripeapi.GetBackendWithConfig(stripeapi.ConnectBackend, backendCfg),
		Uploads: stripeapi.GetBackendWithConfig(stripeapi.UploadsBackend, backendCfg),
	})

	return &Gateway{
		api:        api,
		successURL: cfg.BaseURL + successPath,
		cancelURL:  cfg.BaseURL + "/cart",
	}
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req ports.CheckoutSessionRequest) (*ports.CheckoutSession, error) {
	params := &stripeapi.CheckoutSessionParams{
		Mode:       stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		SuccessURL: stripeapi.String(g.successURL),
		CancelURL:  stripeapi.String(g.cancelURL),
	}
	params.Context = ctx

	if req.CustomerEmail != "" {
		params.CustomerEmail = stripeapi.String(req.CustomerEmail)
	}

	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripeapi.CheckoutSessionLineItemParams{
			PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
				Currency: stripeapi.String(req.Currency),
				ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripeapi.String(item.Name),
				},
				UnitAmount: stripeapi.Int64(item.UnitAmountCents),
			},
			Quantity: stripeapi.Int64(item.Quantity),
		})
	}

	for key, value := range req.Metadata {
		if value != "" {
			params.AddMetadata(key, value)
		}
	}

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return toCheckoutSession(session), nil
}

func (g *Gateway) GetCheckoutSession(ctx context.Context, sessionID string) (*ports.CheckoutSession, error) {
	params := &stripeapi.CheckoutSessionParams{}
	params.Context = ctx

	session, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		if isNotFound(err) {
			return nil, ports.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get checkout session %s: %w", sessionID, err)
	}

	return toCheckoutSession(session), nil
}

func toCheckoutSession(s *stripeapi.CheckoutSession) *ports.CheckoutSession {
	out := &ports.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: domain.ParseGatewayPaymentStatus(string(s.PaymentStatus)),
		AmountTotal:   s.AmountTotal,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}

func isNotFound(err error) bool {
	var stripeErr *stripeapi.Error
	if !errors.As(err, &stripeErr) {
		return false
	}
	return stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripeapi.ErrorCodeResourceMissing
}
