package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/dejobratic/skinstore/internal/orders/metrics"
	"github.com/dejobratic/skinstore/internal/telemetry"
)

type ObservableCheckoutHandler struct {
	handler CheckoutHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCheckoutHandler(handler CheckoutHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCheckoutHandler {
	return &ObservableCheckoutHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCheckoutHandler) Handle(ctx context.Context, cmd InitiateCheckoutCommand) (*CheckoutResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "InitiateCheckoutCommand.Handle")
	defer span.End()

	start := time.Now()
	var err error
	defer func() {
		o.metrics.RecordOrderCreationDuration(ctx, "checkout", time.Since(start).Seconds())
		o.metrics.RecordOrderCreated(ctx, "checkout", err == nil)
		o.metrics.RecordCheckout(ctx, errorClass(err))
	}()

	o.logger.InfoContext(ctx, "initiating checkout",
		"customer_email", cmd.Customer.Email,
		"items", len(cmd.Items),
		"total_cents", cmd.TotalCents,
	)

	var result *CheckoutResult
	result, err = o.handler.Handle(ctx, cmd)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		logFailure(ctx, o.logger, "failed to initiate checkout", err,
			"customer_email", cmd.Customer.Email,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		telemetry.AttrOrderID.String(result.OrderID),
		telemetry.AttrSessionID.String(result.SessionID),
	)

	o.logger.InfoContext(ctx, "checkout session created",
		"order_id", result.OrderID,
		"session_id", result.SessionID,
	)

	telemetry.SetSpanSuccess(span)
	return result, nil
}
