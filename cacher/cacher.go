package cacher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/normcache/cache"
	"github.com/jonwraymond/normcache/cacheability"
	"github.com/jonwraymond/normcache/normalization"
	"github.com/jonwraymond/normcache/observe"
)

// FlushReport summarizes one Terminate call.
type FlushReport struct {
	// Written entries reached the store.
	Written int
	// Skipped entries merged to max-age 0 and were not stored.
	Skipped int
	// Failed entries were rejected by the store.
	Failed int
}

// Total returns the number of entries flushed.
func (r FlushReport) Total() int {
	return r.Written + r.Skipped + r.Failed
}

// Cacher stages normalizations during one lifecycle and writes them at its end.
//
// Contract:
//   - Ownership: one Cacher per lifecycle; never share it across lifecycles.
//   - Concurrency: methods are safe for concurrent use within the lifecycle.
//   - Errors: Get and Terminate never return store errors.
type Cacher struct {
	store       cache.Store
	keyer       cache.Keyer
	bin         string
	id          string
	concurrency int

	logger  observe.Logger
	metrics observe.CacheMetrics
	tracer  observe.Tracer

	queue *Queue
	mw    *observe.Middleware
}

// Option configures a Cacher.
type Option func(*Cacher)

// WithKeyer overrides the default SHA-256 keyer.
func WithKeyer(k cache.Keyer) Option {
	return func(c *Cacher) {
		if k != nil {
			c.keyer = k
		}
	}
}

// WithBin overrides cache.DefaultBin.
func WithBin(bin string) Option {
	return func(c *Cacher) {
		c.bin = bin
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l observe.Logger) Option {
	return func(c *Cacher) {
		c.logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observe.CacheMetrics) Option {
	return func(c *Cacher) {
		c.metrics = m
	}
}

// WithTracer sets the flush tracer.
func WithTracer(t observe.Tracer) Option {
	return func(c *Cacher) {
		c.tracer = t
	}
}

// WithConcurrency bounds parallel writes during Terminate.
// Values below 2 flush sequentially.
func WithConcurrency(n int) Option {
	return func(c *Cacher) {
		c.concurrency = n
	}
}

// WithLifecycleID replaces the generated lifecycle id, e.g. with a request id.
func WithLifecycleID(id string) Option {
	return func(c *Cacher) {
		if id != "" {
			c.id = id
		}
	}
}

// New creates a Cacher for one lifecycle.
func New(store cache.Store, opts ...Option) (*Cacher, error) {
	if store == nil {
		return nil, cache.ErrNilStore
	}

	c := &Cacher{
		store:       store,
		keyer:       cache.NewDefaultKeyer(),
		bin:         cache.DefaultBin,
		id:          uuid.NewString(),
		concurrency: 1,
		queue:       NewQueue(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := (cache.Lookup{Key: "bin", Bin: c.bin}).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBin, c.bin)
	}

	c.mw = observe.NewMiddleware(c.tracer, c.metrics, c.logger)
	c.metrics = c.mw.Metrics()
	c.logger = c.mw.Logger().With(observe.F("lifecycle.id", c.id))

	return c, nil
}

// ID returns the lifecycle id.
func (c *Cacher) ID() string { return c.id }

// Bin returns the bin entries are written to.
func (c *Cacher) Bin() string { return c.bin }

// Pending returns the number of staged writes.
func (c *Cacher) Pending() int { return c.queue.Len() }

// Key derives the lookup key for obj. Get and the flush share it.
func (c *Cacher) Key(typ ResourceType, obj ResourceObject) string {
	return c.keyer.Key(typ.TypeName(), obj.ID())
}

func (c *Cacher) lookup(key string) cache.Lookup {
	return cache.Lookup{Key: key, Bin: c.bin}
}

// Get returns the cached normalization of obj.
//
// A miss and a store failure both return false; failures are logged.
// Get never touches the pending queue.
func (c *Cacher) Get(ctx context.Context, typ ResourceType, obj ResourceObject) (normalization.Parts, bool) {
	key := c.Key(typ, obj)
	entry, ok, err := c.store.Get(ctx, c.lookup(key))
	switch {
	case err != nil:
		c.metrics.RecordLookup(ctx, c.bin, observe.LookupError)
		c.logger.Warn(ctx, "cache lookup failed",
			observe.F("cache.key", key),
			observe.F("resource.type", typ.TypeName()),
			observe.F("resource.id", obj.ID()),
			observe.F("error", err),
		)
		return normalization.Parts{}, false
	case !ok:
		c.metrics.RecordLookup(ctx, c.bin, observe.LookupMiss)
		return normalization.Parts{}, false
	default:
		c.metrics.RecordLookup(ctx, c.bin, observe.LookupHit)
		return entry.Data, true
	}
}

// SaveLater stages parts to be written when the lifecycle ends.
// A later call for the same object replaces this one.
//
// SaveLater panics if parts are not shaped exactly {base, fields}:
// that is a bug in the caller, not a runtime condition.
func (c *Cacher) SaveLater(typ ResourceType, obj ResourceObject, parts normalization.Parts) {
	if err := parts.Validate(); err != nil {
		panic(fmt.Errorf("cacher: save %s %q: %w", typ.TypeName(), obj.ID(), err))
	}
	c.queue.Put(Pending{
		Key:    c.Key(typ, obj),
		Type:   typ,
		Object: obj,
		Parts:  parts,
	})
}

// Terminate writes every staged entry and empties the queue.
//
// Each entry is written independently: a failing write is logged and
// counted but does not stop the others. Terminate never returns an error.
func (c *Cacher) Terminate(ctx context.Context) FlushReport {
	pending := c.queue.Drain()
	if len(pending) == 0 {
		return FlushReport{}
	}

	var t tally
	flush := c.mw.Wrap(func(ctx context.Context, _ observe.FlushMeta) error {
		c.flushAll(ctx, pending, &t)
		return t.err()
	})
	_ = flush(ctx, observe.FlushMeta{
		LifecycleID: c.id,
		Bin:         c.bin,
		Entries:     len(pending),
	})
	return t.report()
}

// flushAll writes pending sequentially or with bounded parallelism.
func (c *Cacher) flushAll(ctx context.Context, pending []Pending, t *tally) {
	if c.concurrency < 2 || len(pending) < 2 {
		for _, p := range pending {
			t.add(c.writeOne(ctx, p))
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for _, p := range pending {
		g.Go(func() error {
			t.add(c.writeOne(ctx, p))
			return nil
		})
	}
	_ = g.Wait()
}

type writeResult struct {
	outcome string
	err     error
}

// writeOne merges the entry's cacheability and hands it to the store.
func (c *Cacher) writeOne(ctx context.Context, p Pending) writeResult {
	lookup := c.lookup(p.Key)
	meta := cacheability.FromObject(p.Object).Merge(normalization.MergeFields(p.Parts.Fields))

	if !meta.IsCacheable() {
		c.metrics.RecordWrite(ctx, c.bin, observe.WriteSkipped)
		return writeResult{outcome: observe.WriteSkipped}
	}

	entry := cache.Entry{
		Lookup:       lookup,
		Data:         p.Parts,
		Cacheability: meta,
	}
	if err := c.store.Set(ctx, entry, lookup); err != nil {
		c.metrics.RecordWrite(ctx, c.bin, observe.WriteFailed)
		c.logger.Error(ctx, "cache write failed",
			observe.F("cache.key", p.Key),
			observe.F("resource.type", p.Type.TypeName()),
			observe.F("resource.id", p.Object.ID()),
			observe.F("fields", p.Parts.FieldNames()),
			observe.F("error", err),
		)
		return writeResult{
			outcome: observe.WriteFailed,
			err:     fmt.Errorf("%s %q: %w", p.Type.TypeName(), p.Object.ID(), err),
		}
	}

	c.metrics.RecordWrite(ctx, c.bin, observe.WriteWritten)
	return writeResult{outcome: observe.WriteWritten}
}

// tally accumulates write results across flush workers.
type tally struct {
	mu      sync.Mutex
	written int
	skipped int
	failed  []error
}

func (t *tally) add(r writeResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch r.outcome {
	case observe.WriteWritten:
		t.written++
	case observe.WriteSkipped:
		t.skipped++
	default:
		t.failed = append(t.failed, r.err)
	}
}

func (t *tally) err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return errors.Join(t.failed...)
}

func (t *tally) report() FlushReport {
	t.mu.Lock()
	defer t.mu.Unlock()
	return FlushReport{Written: t.written, Skipped: t.skipped, Failed: len(t.failed)}
}
