package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// FlushSpanName is the name of the span around each flush.
const FlushSpanName = "normcache.flush"

// FlushMeta describes one flush for telemetry purposes.
type FlushMeta struct {
	LifecycleID string
	Bin         string
	Entries     int
}

// Tracer wraps OpenTelemetry tracing for flushes.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartFlush starts a span for one flush.
	StartFlush(ctx context.Context, meta FlushMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartFlush(ctx context.Context, meta FlushMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("cache.bin", meta.Bin),
		attribute.Int("normcache.entries", meta.Entries),
		attribute.Bool("normcache.error", false),
	}
	if meta.LifecycleID != "" {
		attrs = append(attrs, attribute.String("lifecycle.id", meta.LifecycleID))
	}

	return t.tracer.Start(ctx, FlushSpanName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("normcache.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NopTracer returns a Tracer whose spans are never recorded.
func NopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

type noopTracer struct {
	noop trace.Tracer
}

func (t *noopTracer) StartFlush(ctx context.Context, _ FlushMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, FlushSpanName)
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}
