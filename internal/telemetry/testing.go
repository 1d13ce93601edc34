package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// NewNoopTraceExporter returns an exporter that drops every span.
func NewNoopTraceExporter() sdktrace.SpanExporter {
	return tracetest.NewNoopExporter()
}

type noopMetricExporter struct{}

func (noopMetricExporter) Temporality(sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (noopMetricExporter) Aggregation(sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.AggregationDefault{}
}

func (noopMetricExporter) Export(context.Context, *metricdata.ResourceMetrics) error { return nil }
func (noopMetricExporter) ForceFlush(context.Context) error                          { return nil }
func (noopMetricExporter) Shutdown(context.Context) error                            { return nil }

// NewNoopMetricExporter returns an exporter that drops every metric.
func NewNoopMetricExporter() sdkmetric.Exporter {
	return noopMetricExporter{}
}

// Recorder keeps spans and metrics in memory so decorators can be asserted on.
// Install swaps the global tracer provider, so tests using it must not run in parallel.
type Recorder struct {
	spans  *tracetest.InMemoryExporter
	reader *sdkmetric.ManualReader
	meters *sdkmetric.MeterProvider
	tracer *sdktrace.TracerProvider
}

func NewRecorder() *Recorder {
	spans := tracetest.NewInMemoryExporter()
	reader := sdkmetric.NewManualReader()
	return &Recorder{
		spans:  spans,
		reader: reader,
		meters: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		tracer: sdktrace.NewTracerProvider(sdktrace.WithSyncer(spans)),
	}
}

// Install makes the recorder the global tracer provider and returns a func that restores the previous one.
func (r *Recorder) Install() (restore func()) {
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(r.tracer)
	return func() { otel.SetTracerProvider(previous) }
}

func (r *Recorder) Meter(name string) metric.Meter {
	return r.meters.Meter(name)
}

// Span returns the first finished span with the given name.
func (r *Recorder) Span(name string) (tracetest.SpanStub, bool) {
	for _, span := range r.spans.GetSpans() {
		if span.Name == name {
			return span, true
		}
	}
	return tracetest.SpanStub{}, false
}

// Metric collects and returns the aggregation recorded under name.
func (r *Recorder) Metric(ctx context.Context, name string) (metricdata.Aggregation, error) {
	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m.Data, nil
			}
		}
	}
	return nil, fmt.Errorf("metric %s not recorded", name)
}
