package cache

import (
	"context"
	"io"
	"sync"

	"github.com/jonwraymond/normcache/resilience"
)

// ResilientStore guards a Store with resilience executors.
//
// Reads and writes usually share one circuit breaker, while only writes are
// retried: a slow read costs more than recomputing the normalization.
// Lookups are validated before the executors run, so a malformed key never
// counts against the backend.
type ResilientStore struct {
	store  Store
	reads  *resilience.Executor
	writes *resilience.Executor
}

// NewResilientStore wraps store. Nil executors pass calls straight through.
func NewResilientStore(store Store, reads, writes *resilience.Executor) *ResilientStore {
	if reads == nil {
		reads = resilience.NewExecutor()
	}
	if writes == nil {
		writes = resilience.NewExecutor()
	}
	return &ResilientStore{store: store, reads: reads, writes: writes}
}

// Get implements Store.
func (s *ResilientStore) Get(ctx context.Context, lookup Lookup) (Entry, bool, error) {
	if err := lookup.Validate(); err != nil {
		return Entry{}, false, err
	}

	var (
		mu    sync.Mutex
		entry Entry
		hit   bool
	)
	err := s.reads.Execute(ctx, func(ctx context.Context) error {
		e, ok, err := s.store.Get(ctx, lookup)
		if err != nil {
			return err
		}
		// A timed out attempt may still finish after a later one.
		mu.Lock()
		entry, hit = e, ok
		mu.Unlock()
		return nil
	})
	if err != nil {
		return Entry{}, false, err
	}
	mu.Lock()
	defer mu.Unlock()
	return entry, hit, nil
}

// Set implements Store.
func (s *ResilientStore) Set(ctx context.Context, entry Entry, lookup Lookup) error {
	if err := lookup.Validate(); err != nil {
		return err
	}
	return s.writes.Execute(ctx, func(ctx context.Context) error {
		return s.store.Set(ctx, entry, lookup)
	})
}

// InvalidateTags forwards to the wrapped store when it supports invalidation.
func (s *ResilientStore) InvalidateTags(ctx context.Context, tags ...string) error {
	inv, ok := s.store.(Invalidator)
	if !ok {
		return nil
	}
	return s.writes.Execute(ctx, func(ctx context.Context) error {
		return inv.InvalidateTags(ctx, tags...)
	})
}

// Ping forwards to the wrapped store when it supports pinging.
func (s *ResilientStore) Ping(ctx context.Context) error {
	p, ok := s.store.(Pinger)
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}

// Unwrap returns the guarded store.
func (s *ResilientStore) Unwrap() Store {
	return s.store
}

// Close closes the wrapped store when it holds resources.
func (s *ResilientStore) Close() error {
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var (
	_ Store       = (*ResilientStore)(nil)
	_ Invalidator = (*ResilientStore)(nil)
	_ Pinger      = (*ResilientStore)(nil)
)
