// Package resilience guards calls to cache backends.
//
// A cache is an optimization, so a slow or failing backend must degrade to
// recomputation instead of stalling the caller. The package provides a
// circuit breaker that stops calling a failing backend, retry with backoff
// for transient write failures, and a per-call timeout. Executor composes
// them:
//
//	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    MaxFailures:  5,
//	    ResetTimeout: 30 * time.Second,
//	})
//	writes := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(breaker),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	    resilience.WithTimeout(250*time.Millisecond),
//	)
//
//	err := writes.Execute(ctx, func(ctx context.Context) error {
//	    return store.Set(ctx, entry, lookup)
//	})
package resilience
