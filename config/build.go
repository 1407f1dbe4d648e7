package config

import (
	"context"
	"fmt"

	"github.com/jonwraymond/normcache/cache"
	"github.com/jonwraymond/normcache/cache/redisstore"
	"github.com/jonwraymond/normcache/cacher"
	"github.com/jonwraymond/normcache/health"
	"github.com/jonwraymond/normcache/observe"
	"github.com/jonwraymond/normcache/resilience"
)

// NewStore builds the configured backend, wrapped in a ResilientStore when
// resilience is enabled. The Redis client connects lazily; stores holding
// connections implement io.Closer.
func (c *Config) NewStore(_ context.Context) (cache.Store, error) {
	var store cache.Store
	switch c.Store.Backend {
	case BackendMemory, "":
		store = cache.NewMemoryStore(c.Policy())
	case BackendRedis:
		rs, err := redisstore.Dial(redisstore.Config{
			Addr:     c.Store.Redis.Addr,
			DB:       c.Store.Redis.DB,
			Password: c.Store.Redis.Password,
			Prefix:   c.Store.Redis.Prefix,
		}, c.Policy())
		if err != nil {
			return nil, fmt.Errorf("config: redis store: %w", err)
		}
		store = rs
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, c.Store.Backend)
	}

	if !c.Store.Resilience.Enabled {
		return store, nil
	}
	reads, writes := c.executors()
	return cache.NewResilientStore(store, reads, writes), nil
}

// executors returns read and write executors sharing one circuit breaker.
// Invalid requests are neither retried nor held against the backend.
func (c *Config) executors() (reads, writes *resilience.Executor) {
	r := c.Store.Resilience
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  r.Circuit.MaxFailures,
		ResetTimeout: r.Circuit.ResetTimeout,
		IsFailure: func(err error) bool {
			return !cache.IsInvalid(err) && resilience.IsFailure(err)
		},
	})
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  r.Retry.MaxAttempts,
		InitialDelay: r.Retry.InitialDelay,
		MaxDelay:     r.Retry.MaxDelay,
		Jitter:       true,
		RetryIf: func(err error) bool {
			return !cache.IsInvalid(err) && resilience.Retryable(err)
		},
	})

	reads = resilience.NewExecutor(
		resilience.WithCircuitBreaker(breaker),
		resilience.WithTimeout(r.Timeout),
	)
	writes = resilience.NewExecutor(
		resilience.WithRetry(retry),
		resilience.WithCircuitBreaker(breaker),
		resilience.WithTimeout(r.Timeout),
	)
	return reads, writes
}

// NewObserver builds the observer described by the observe section.
func (c *Config) NewObserver(ctx context.Context) (observe.Observer, error) {
	return observe.NewObserver(ctx, c.Observe)
}

// CacherOptions returns the cacher options for one lifecycle. Build them once
// and reuse them for every cacher.New call.
func (c *Config) CacherOptions(obs observe.Observer) ([]cacher.Option, error) {
	opts := []cacher.Option{
		cacher.WithBin(c.Store.Bin),
		cacher.WithConcurrency(c.Flush.Concurrency),
	}
	if obs == nil {
		return opts, nil
	}

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, fmt.Errorf("config: observe: %w", err)
	}
	return append(opts,
		cacher.WithLogger(mw.Logger()),
		cacher.WithMetrics(mw.Metrics()),
		cacher.WithTracer(mw.Tracer()),
	), nil
}

// NewHealth builds an aggregator with a ping check for store and, for
// in-process stores, a capacity check.
func (c *Config) NewHealth(store cache.Store) *health.Aggregator {
	agg := health.NewAggregator(health.AggregatorConfig{
		Timeout:  c.Health.Timeout,
		Parallel: true,
	})
	if p, ok := store.(cache.Pinger); ok {
		agg.Register("store", health.NewStoreChecker(c.Store.Backend, p,
			health.WithDegradedLatency(c.Health.DegradedLatency)))
	}
	inner := store
	if u, ok := store.(interface{ Unwrap() cache.Store }); ok {
		inner = u.Unwrap()
	}
	if s, ok := inner.(health.Sizer); ok {
		agg.Register("capacity", health.NewCapacityChecker(s, health.CapacityCheckerConfig{
			MaxEntries: c.Health.MaxEntries,
		}))
	}
	return agg
}
