package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu        sync.RWMutex
	records   map[string]*memoryRecord
	tags      map[string]map[string]struct{}
	policy    Policy
	variation VariationResolver
	now       func() time.Time

	stats Stats
}

// Stats counts store traffic.
type Stats struct {
	Hits   int64
	Misses int64
	Writes int64
}

// memoryRecord holds either a redirect or an entry.
type memoryRecord struct {
	redirect *Redirect
	slots    map[string]struct{} // redirect only: slots written through it

	entry     Entry
	owner     string    // slot entries only: address of the redirect
	expiresAt time.Time // zero means no expiry
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithVariationResolver overrides how context values are resolved.
func WithVariationResolver(r VariationResolver) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.variation = r
	}
}

// WithClock overrides the time source used for freshness.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates a new in-memory store with the given policy.
func NewMemoryStore(policy Policy, opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		records:   make(map[string]*memoryRecord),
		tags:      make(map[string]map[string]struct{}),
		policy:    policy,
		variation: ContextVariations{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves an entry. Returns (Entry{}, false, nil) on miss or expiry.
func (s *MemoryStore) Get(ctx context.Context, lookup Lookup) (Entry, bool, error) {
	if err := lookup.Validate(); err != nil {
		return Entry{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := lookup.Address()
	rec, ok := s.records[key]
	if ok && rec.redirect != nil {
		key = Slot(ctx, s.variation, key, rec.redirect.Contexts)
		rec, ok = s.records[key]
		if ok && rec.redirect != nil {
			// Redirects never chain.
			ok = false
		}
	}

	if ok && !rec.expiresAt.IsZero() && !s.now().Before(rec.expiresAt) {
		// Expired - clean up lazily
		s.removeLocked(key)
		ok = false
	}

	if !ok {
		s.stats.Misses++
		return Entry{}, false, nil
	}
	s.stats.Hits++
	return rec.entry, true, nil
}

// Set stores entry under lookup. Uncacheable entries are dropped.
func (s *MemoryStore) Set(ctx context.Context, entry Entry, lookup Lookup) error {
	if err := lookup.Validate(); err != nil {
		return err
	}
	ttl, ok := s.policy.TTL(entry.Cacheability.MaxAge())
	if !ok {
		return nil
	}

	rec := &memoryRecord{entry: entry}
	if ttl > 0 {
		rec.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	address := lookup.Address()
	key := address
	if contexts := entry.Cacheability.Contexts(); len(contexts) > 0 {
		redirect := s.redirectLocked(address, contexts)
		key = Slot(ctx, s.variation, address, redirect.redirect.Contexts)
		rec.owner = address
		s.removeLocked(key)
		redirect.slots[key] = struct{}{}
	} else {
		// Replacing a redirect drops the slots behind it.
		s.removeLocked(key)
	}

	s.records[key] = rec
	for _, tag := range entry.Cacheability.Tags() {
		keys, ok := s.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			s.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	s.stats.Writes++
	return nil
}

// InvalidateTags removes every entry tagged with any of tags.
func (s *MemoryStore) InvalidateTags(_ context.Context, tags ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tag := range tags {
		for key := range s.tags[tag] {
			s.removeLocked(key)
		}
		delete(s.tags, tag)
	}
	return nil
}

// Len returns the number of stored records, redirects included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Stats returns a snapshot of the store counters.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Ping implements Pinger. The memory store is always reachable.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// redirectLocked returns the redirect at address covering contexts.
// Widening an existing redirect removes its slots: they were hashed over
// fewer contexts and no lookup can reach them again.
func (s *MemoryStore) redirectLocked(address string, contexts []string) *memoryRecord {
	if existing, ok := s.records[address]; ok {
		if existing.redirect != nil {
			merged := MergeContexts(existing.redirect.Contexts, contexts)
			if slices.Equal(merged, existing.redirect.Contexts) {
				return existing
			}
			contexts = merged
		}
		s.removeLocked(address)
	}
	rec := &memoryRecord{
		redirect: &Redirect{Contexts: contexts},
		slots:    make(map[string]struct{}),
	}
	s.records[address] = rec
	return rec
}

// removeLocked deletes key. A redirect takes its slots with it.
func (s *MemoryStore) removeLocked(key string) {
	rec, ok := s.records[key]
	if !ok {
		return
	}
	delete(s.records, key)
	if rec.redirect != nil {
		for slot := range rec.slots {
			s.removeLocked(slot)
		}
		return
	}
	if owner, ok := s.records[rec.owner]; ok && owner.redirect != nil {
		delete(owner.slots, key)
	}
	for _, tag := range rec.entry.Cacheability.Tags() {
		if keys, ok := s.tags[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(s.tags, tag)
			}
		}
	}
}

// Ensure MemoryStore implements Store
var (
	_ Store       = (*MemoryStore)(nil)
	_ Invalidator = (*MemoryStore)(nil)
	_ Pinger      = (*MemoryStore)(nil)
)
