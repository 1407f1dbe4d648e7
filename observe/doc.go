// Package observe provides observability primitives for the normalization
// cache: a structured logger, otel metrics for lookups, writes and flushes,
// and otel spans around each flush.
//
// It is a pure instrumentation library. The cacher package consumes the
// Logger, Metrics and Tracer interfaces; NewObserver wires them to exporters.
package observe
