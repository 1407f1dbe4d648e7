package cacher

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jonwraymond/normcache/cache"
)

// Lifecycle delivers the end signal to a Cacher exactly once.
type Lifecycle struct {
	cacher *Cacher
	once   sync.Once
	done   atomic.Bool
	report FlushReport
}

// NewLifecycle binds a lifecycle to c.
func NewLifecycle(c *Cacher) *Lifecycle {
	return &Lifecycle{cacher: c}
}

// Begin creates a Cacher for a new lifecycle and attaches it to ctx.
func Begin(ctx context.Context, store cache.Store, opts ...Option) (context.Context, *Lifecycle, error) {
	c, err := New(store, opts...)
	if err != nil {
		return ctx, nil, err
	}
	return WithCacher(ctx, c), NewLifecycle(c), nil
}

// Cacher returns the lifecycle's cacher.
func (l *Lifecycle) Cacher() *Cacher {
	return l.cacher
}

// End flushes the cacher on the first call. Later calls return the first report.
//
// Cancellation of ctx does not abort the flush: the lifecycle has already
// produced its result, and the writes outlive it.
func (l *Lifecycle) End(ctx context.Context) FlushReport {
	l.once.Do(func() {
		l.report = l.cacher.Terminate(context.WithoutCancel(ctx))
		l.done.Store(true)
	})
	return l.report
}

// Done reports whether End has completed.
func (l *Lifecycle) Done() bool {
	return l.done.Load()
}
