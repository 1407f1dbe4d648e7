package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Lookup results.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupError = "error"
)

// Write results.
const (
	WriteWritten = "written"
	WriteSkipped = "skipped"
	WriteFailed  = "failed"
)

// CacheMetrics records cache activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type CacheMetrics interface {
	// RecordLookup counts one read with result LookupHit, LookupMiss or LookupError.
	RecordLookup(ctx context.Context, bin, result string)

	// RecordWrite counts one flushed entry with result WriteWritten, WriteSkipped or WriteFailed.
	RecordWrite(ctx context.Context, bin, result string)

	// RecordFlush records the duration and size of one flush.
	RecordFlush(ctx context.Context, meta FlushMeta, duration time.Duration)
}

type metricsImpl struct {
	lookups      metric.Int64Counter
	writes       metric.Int64Counter
	durationHist metric.Float64Histogram
	queueHist    metric.Int64Histogram
}

// NewMetrics creates CacheMetrics backed by meter.
func NewMetrics(meter metric.Meter) (CacheMetrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	lookups, err := meter.Int64Counter(
		"normcache.lookup.total",
		metric.WithDescription("Total number of normalization cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	writes, err := meter.Int64Counter(
		"normcache.write.total",
		metric.WithDescription("Total number of flushed normalization cache entries"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"normcache.flush.duration_ms",
		metric.WithDescription("Flush duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	queueHist, err := meter.Int64Histogram(
		"normcache.queue.size",
		metric.WithDescription("Number of queued entries per flush"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		lookups:      lookups,
		writes:       writes,
		durationHist: durationHist,
		queueHist:    queueHist,
	}, nil
}

func (m *metricsImpl) RecordLookup(ctx context.Context, bin, result string) {
	m.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.bin", bin),
		attribute.String("result", result),
	))
}

func (m *metricsImpl) RecordWrite(ctx context.Context, bin, result string) {
	m.writes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.bin", bin),
		attribute.String("result", result),
	))
}

func (m *metricsImpl) RecordFlush(ctx context.Context, meta FlushMeta, duration time.Duration) {
	opt := metric.WithAttributes(attribute.String("cache.bin", meta.Bin))
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
	m.queueHist.Record(ctx, int64(meta.Entries), opt)
}

// NopMetrics returns CacheMetrics that record nothing.
func NopMetrics() CacheMetrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) RecordLookup(context.Context, string, string)          {}
func (noopMetrics) RecordWrite(context.Context, string, string)           {}
func (noopMetrics) RecordFlush(context.Context, FlushMeta, time.Duration) {}
