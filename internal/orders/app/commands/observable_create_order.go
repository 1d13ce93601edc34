package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/dejobratic/skinstore/internal/orders/metrics"
	"github.com/dejobratic/skinstore/internal/telemetry"
)

type ObservableCreateOrderHandler struct {
	handler CreateOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCreateOrderHandler(handler CreateOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCreateOrderHandler {
	return &ObservableCreateOrderHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.OrderDetails, error) {
	ctx, span := telemetry.StartSpan(ctx, "CreateOrderCommand.Handle")
	defer span.End()

	start := time.Now()
	var success bool
	defer func() {
		duration := time.Since(start).Seconds()
		o.metrics.RecordOrderCreationDuration(ctx, "order", duration)
		o.metrics.RecordOrderCreated(ctx, "order", success)
	}()

	o.logger.InfoContext(ctx, "creating order",
		"customer_email", cmd.Customer.Email,
		"items", len(cmd.Items),
		"total_cents", cmd.TotalCents,
	)

	details, err := o.handler.Handle(ctx, cmd)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		logFailure(ctx, o.logger, "failed to create order", err,
			"customer_email", cmd.Customer.Email,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		telemetry.AttrOrderID.String(details.Order.ID),
		attribute.Int64("order.total_cents", details.Order.TotalCents),
		attribute.Int("order.items", len(details.Items)),
		telemetry.AttrOrderStatus.String(string(details.Order.Status)),
	)

	o.logger.InfoContext(ctx, "order created successfully",
		"order_id", details.Order.ID,
		"customer_email", details.Order.Customer.Email,
	)

	success = true
	telemetry.SetSpanSuccess(span)

	return details, nil
}

// errorClass buckets errors for metric labels.
func errorClass(err error) string {
	var (
		validationErr *domain.ValidationError
		upstreamErr   *domain.UpstreamGatewayError
		partialErr    *domain.PartialFailureError
	)

	switch {
	case err == nil:
		return "success"
	case errors.As(err, &validationErr):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.As(err, &upstreamErr):
		return "upstream"
	case errors.As(err, &partialErr):
		return "partial_failure"
	default:
		return "error"
	}
}

// logFailure logs caller mistakes at info and everything else at error.
func logFailure(ctx context.Context, logger *slog.Logger, msg string, err error, args ...any) {
	args = append(args, "error", err)
	switch errorClass(err) {
	case "validation", "not_found":
		logger.InfoContext(ctx, msg, args...)
	default:
		logger.ErrorContext(ctx, msg, args...)
	}
}
