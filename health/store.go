package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/normcache/cache"
)

// DefaultDegradedLatency is the ping latency above which a store is degraded.
const DefaultDegradedLatency = 100 * time.Millisecond

// StoreChecker pings a cache backend.
type StoreChecker struct {
	name            string
	pinger          cache.Pinger
	degradedLatency time.Duration
	now             func() time.Time
}

// StoreCheckerOption configures a StoreChecker.
type StoreCheckerOption func(*StoreChecker)

// WithDegradedLatency overrides DefaultDegradedLatency.
func WithDegradedLatency(d time.Duration) StoreCheckerOption {
	return func(c *StoreChecker) {
		if d > 0 {
			c.degradedLatency = d
		}
	}
}

// NewStoreChecker creates a checker that pings pinger.
func NewStoreChecker(name string, pinger cache.Pinger, opts ...StoreCheckerOption) *StoreChecker {
	c := &StoreChecker{
		name:            name,
		pinger:          pinger,
		degradedLatency: DefaultDegradedLatency,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the name of this checker.
func (c *StoreChecker) Name() string { return c.name }

// Check pings the store.
func (c *StoreChecker) Check(ctx context.Context) Result {
	if c.pinger == nil {
		return Unhealthy("store not configured", ErrCheckFailed)
	}

	start := c.now()
	err := c.pinger.Ping(ctx)
	latency := c.now().Sub(start)
	details := map[string]any{"latency_ms": latency.Milliseconds()}

	switch {
	case err != nil:
		return Unhealthy("store unreachable", fmt.Errorf("%w: %w", ErrCheckFailed, err)).
			WithDetails(details).WithDuration(latency)
	case latency > c.degradedLatency:
		return Degraded(fmt.Sprintf("store slow: %s", latency)).
			WithDetails(details).WithDuration(latency)
	default:
		return Healthy("store reachable").WithDetails(details).WithDuration(latency)
	}
}
