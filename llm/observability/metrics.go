package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/tensorlane/llmbridge/llm"

// Metrics collects call-level counters and latencies through the OTel API.
// Export configuration belongs to the embedding process; with no SDK
// installed every instrument is a no-op.
type Metrics struct {
	tracer trace.Tracer
	meter  metric.Meter

	requestTotal    metric.Int64Counter
	retryTotal      metric.Int64Counter
	errorTotal      metric.Int64Counter
	requestDuration metric.Float64Histogram
}

// NewMetrics creates the collector against the global OTel providers.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}

	var err error
	if m.requestTotal, err = m.meter.Int64Counter("llm.request.total",
		metric.WithDescription("Total provider calls issued"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	if m.retryTotal, err = m.meter.Int64Counter("llm.retry.total",
		metric.WithDescription("Retry attempts after transient failures"),
		metric.WithUnit("{attempt}")); err != nil {
		return nil, err
	}
	if m.errorTotal, err = m.meter.Int64Counter("llm.error.total",
		metric.WithDescription("Calls that terminated with a classified error"),
		metric.WithUnit("{error}")); err != nil {
		return nil, err
	}
	if m.requestDuration, err = m.meter.Float64Histogram("llm.request.duration",
		metric.WithDescription("End-to-end call duration"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return m, nil
}

// StartSpan opens a span for one provider call.
func (m *Metrics) StartSpan(ctx context.Context, operation, provider, model string) (context.Context, trace.Span) {
	if m == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return m.tracer.Start(ctx, operation, trace.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
	))
}

// RecordRequest counts one issued call.
func (m *Metrics) RecordRequest(ctx context.Context, provider, operation string) {
	if m == nil {
		return
	}
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
	))
}

// RecordRetry counts one retry attempt.
func (m *Metrics) RecordRetry(ctx context.Context, provider string, attempt int) {
	if m == nil {
		return
	}
	m.retryTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Int("attempt", attempt),
	))
}

// RecordError counts one terminal classified error.
func (m *Metrics) RecordError(ctx context.Context, provider, code string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("code", code),
	))
}

// RecordDuration records one finished call.
func (m *Metrics) RecordDuration(ctx context.Context, provider, operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
	))
}
