package observe

import (
	"context"
	"time"
)

// FlushFunc writes every entry queued in one lifecycle. The returned error
// joins the per-entry failures; it is reported, never propagated further.
type FlushFunc func(ctx context.Context, meta FlushMeta) error

// Middleware wraps flushes with tracing, metrics, and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe FlushFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics CacheMetrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics CacheMetrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Tracer returns the middleware tracer.
func (m *Middleware) Tracer() Tracer { return m.tracer }

// Metrics returns the middleware metrics.
func (m *Middleware) Metrics() CacheMetrics { return m.metrics }

// Logger returns the middleware logger.
func (m *Middleware) Logger() Logger { return m.logger }

// Wrap wraps a FlushFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn FlushFunc) FlushFunc {
	return func(ctx context.Context, meta FlushMeta) error {
		ctx, span := m.tracer.StartFlush(ctx, meta)
		start := time.Now()

		err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordFlush(ctx, meta, duration)

		fields := []Field{
			F("lifecycle.id", meta.LifecycleID),
			F("cache.bin", meta.Bin),
			F("entries", meta.Entries),
			F("duration_ms", float64(duration.Milliseconds())),
		}
		if err != nil {
			fields = append(fields, F("error", err.Error()))
			m.logger.Warn(ctx, "flush completed with failures", fields...)
		} else {
			m.logger.Debug(ctx, "flush completed", fields...)
		}

		return err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
