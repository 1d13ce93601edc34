package commands

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/dejobratic/skinstore/internal/orders/metrics"
	"github.com/dejobratic/skinstore/internal/telemetry"
)

type ObservableReconciler struct {
	reconciler Reconciler
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewObservableReconciler(reconciler Reconciler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableReconciler {
	return &ObservableReconciler{
		reconciler: reconciler,
		logger:     logger,
		metrics:    metrics,
	}
}

func (o *ObservableReconciler) BySession(ctx context.Context, cmd ReconcileSessionCommand) (*domain.OrderDetails, Outcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "Reconciler.BySession")
	defer span.End()

	telemetry.AddSpanAttributes(span, telemetry.AttrSessionID.String(cmd.SessionID))

	start := time.Now()
	details, outcome, err := o.reconciler.BySession(ctx, cmd)
	o.record(ctx, "session", outcome, err, time.Since(start))
	markTransition(span, outcome)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		logFailure(ctx, o.logger, "failed to reconcile session", err,
			"session_id", cmd.SessionID,
		)
		return nil, "", err
	}

	telemetry.AddSpanAttributes(span,
		telemetry.AttrOrderID.String(details.Order.ID),
		telemetry.AttrReconcileState.String(string(outcome)),
	)
	o.logger.InfoContext(ctx, "session reconciled",
		"session_id", cmd.SessionID,
		"order_id", details.Order.ID,
		"outcome", outcome,
		"payment_status", details.Order.PaymentStatus,
	)

	telemetry.SetSpanSuccess(span)
	return details, outcome, nil
}

func (o *ObservableReconciler) ByEvent(ctx context.Context, cmd ReconcileEventCommand) (Outcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "Reconciler.ByEvent")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		telemetry.AttrEventID.String(cmd.Event.ID),
		telemetry.AttrEventType.String(cmd.Event.Type),
		telemetry.AttrSessionID.String(cmd.Event.SessionID),
	)

	start := time.Now()
	outcome, err := o.reconciler.ByEvent(ctx, cmd)
	o.record(ctx, "event", outcome, err, time.Since(start))
	markTransition(span, outcome)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		logFailure(ctx, o.logger, "failed to reconcile payment event", err,
			"event_id", cmd.Event.ID,
			"event_type", cmd.Event.Type,
			"session_id", cmd.Event.SessionID,
		)
		return "", err
	}

	telemetry.AddSpanAttributes(span, telemetry.AttrReconcileState.String(string(outcome)))
	o.logger.InfoContext(ctx, "payment event reconciled",
		"event_id", cmd.Event.ID,
		"event_type", cmd.Event.Type,
		"session_id", cmd.Event.SessionID,
		"outcome", outcome,
	)

	telemetry.SetSpanSuccess(span)
	return outcome, nil
}

// markTransition adds a span event when the order actually changed state.
func markTransition(span trace.Span, outcome Outcome) {
	switch outcome {
	case OutcomeConfirmed, OutcomeSynthesized:
		telemetry.AddSpanEvent(span, "payment.confirmed", telemetry.AttrReconcileState.String(string(outcome)))
	case OutcomeFailed:
		telemetry.AddSpanEvent(span, "payment.failed")
	}
}

func (o *ObservableReconciler) record(ctx context.Context, path string, outcome Outcome, err error, elapsed time.Duration) {
	label := string(outcome)
	if err != nil {
		label = errorClass(err)
	}
	o.metrics.RecordReconciliation(ctx, path, label)
	o.metrics.RecordReconcileDuration(ctx, path, elapsed.Seconds())
}
