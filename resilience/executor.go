package resilience

import (
	"context"
	"time"
)

// Op is one guarded store call.
type Op func(ctx context.Context) error

// guard wraps an Op.
type guard func(Op) Op

// Executor runs store calls through retry, circuit breaker and timeout.
// Every part is optional; an empty Executor calls the op directly.
type Executor struct {
	breaker *CircuitBreaker
	retry   *Retry
	timeout *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an executor from opts.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker guards calls with cb.
// A breaker may be shared by the read and write executors of one backend.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.breaker = cb
	}
}

// WithRetry retries failed calls with r.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithTimeout bounds each attempt. Zero leaves attempts unbounded.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = NewTimeout(d)
		}
	}
}

// Execute runs op. Retry is outermost so the breaker sees every attempt,
// and the timeout bounds each attempt rather than the whole call.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	call := Op(op)
	for _, g := range e.guards() {
		call = g(call)
	}
	return call(ctx)
}

// guards lists the configured guards from innermost to outermost.
func (e *Executor) guards() []guard {
	var gs []guard
	if e.timeout != nil {
		gs = append(gs, func(next Op) Op {
			return func(ctx context.Context) error { return e.timeout.Execute(ctx, next) }
		})
	}
	if e.breaker != nil {
		gs = append(gs, func(next Op) Op {
			return func(ctx context.Context) error { return e.breaker.Execute(ctx, next) }
		})
	}
	if e.retry != nil {
		gs = append(gs, func(next Op) Op {
			return func(ctx context.Context) error { return e.retry.Execute(ctx, next) }
		})
	}
	return gs
}
