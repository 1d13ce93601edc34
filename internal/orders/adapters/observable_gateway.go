package adapters

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/skinstore/internal/orders/metrics"
	"github.com/dejobratic/skinstore/internal/orders/ports"
	"github.com/dejobratic/skinstore/internal/telemetry"
)

type ObservableGateway struct {
	gateway ports.PaymentGateway
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableGateway(gateway ports.PaymentGateway, logger *slog.Logger, metrics *metrics.Metrics) *ObservableGateway {
	return &ObservableGateway{
		gateway: gateway,
		logger:  logger,
		metrics: metrics,
	}
}

func (g *ObservableGateway) CreateCheckoutSession(ctx context.Context, req ports.CheckoutSessionRequest) (*ports.CheckoutSession, error) {
	ctx, span := telemetry.StartSpan(ctx, "PaymentGateway.CreateCheckoutSession")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int("checkout.line_items", len(req.LineItems)),
		attribute.String("checkout.currency", req.Currency),
	)

	start := time.Now()
	session, err := g.gateway.CreateCheckoutSession(ctx, req)
	g.metrics.RecordGatewayCall(ctx, "create_checkout_session", time.Since(start).Seconds(), err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		g.logger.WarnContext(ctx, "payment gateway call failed",
			"operation", "create_checkout_session",
			"error", err,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, telemetry.AttrSessionID.String(session.ID))
	telemetry.SetSpanSuccess(span)
	return session, nil
}

func (g *ObservableGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*ports.CheckoutSession, error) {
	ctx, span := telemetry.StartSpan(ctx, "PaymentGateway.GetCheckoutSession")
	defer span.End()

	telemetry.AddSpanAttributes(span, telemetry.AttrSessionID.String(sessionID))

	start := time.Now()
	session, err := g.gateway.GetCheckoutSession(ctx, sessionID)
	g.metrics.RecordGatewayCall(ctx, "get_checkout_session", time.Since(start).Seconds(), err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		g.logger.WarnContext(ctx, "payment gateway call failed",
			"operation", "get_checkout_session",
			"session_id", sessionID,
			"error", err,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.String("checkout.payment_status", string(session.PaymentStatus)))
	telemetry.SetSpanSuccess(span)
	return session, nil
}
