// Package redisstore implements cache.Store on Redis.
//
// Layout, under a configurable prefix:
//
//	<prefix><bin>:<key>          redirect or entry record (JSON)
//	<prefix><bin>:<key>|<hash>   entry record for one context variation
//	<prefix>idx:<bin>:<key>      hash of the physical keys written for the address and their tags
//	<prefix>tag:<tag>            set of physical keys carrying <tag>
//
// Entry freshness maps onto Redis TTLs; redirects never expire on their own.
// Index and tag members of expired entries are pruned when a lookup misses them.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/normcache/cache"
)
// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "normcache:"

// ErrNilClient indicates a nil Redis client.
var ErrNilClient = errors.New("redisstore: client is nil")

// Config holds connection settings.
type Config struct {
	Addr     string
	DB       int
	Password string
	Prefix   string
}

// Store is a Redis-backed cache.Store.
type Store struct {
	rdb       redis.UniversalClient
	policy    cache.Policy
	variation cache.VariationResolver
	prefix    string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithVariationResolver overrides how context values are resolved.
func WithVariationResolver(r cache.VariationResolver) Option {
	return func(s *Store) {
		s.variation = r
	}
}

// record is either a redirect or an entry.
type record struct {
	Redirect *cache.Redirect `json:"redirect,omitempty"`
	Entry    *wireEntry      `json:"entry,omitempty"`
}

// New wraps an existing client.
func New(rdb redis.UniversalClient, policy cache.Policy, opts ...Option) (*Store, error) {
	if rdb == nil {
		return nil, ErrNilClient
	}
	s := &Store{
		rdb:       rdb,
		policy:    policy,
		variation: cache.ContextVariations{},
		prefix:    DefaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dial creates a client from cfg and wraps it.
func Dial(cfg Config, policy cache.Policy, opts ...Option) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	if cfg.Prefix != "" {
		opts = append([]Option{WithPrefix(cfg.Prefix)}, opts...)
	}
	return New(rdb, policy, opts...)
}

// Get implements cache.Store.
func (s *Store) Get(ctx context.Context, lookup cache.Lookup) (cache.Entry, bool, error) {
	if err := lookup.Validate(); err != nil {
		return cache.Entry{}, false, err
	}

	address := lookup.Address()
	rec, ok, err := s.read(ctx, address)
	if err != nil {
		return cache.Entry{}, false, err
	}
	if !ok {
		s.prune(ctx, address, "")
		return cache.Entry{}, false, nil
	}
	if rec.Redirect != nil {
		slot := cache.Slot(ctx, s.variation, address, rec.Redirect.Contexts)
		rec, ok, err = s.read(ctx, slot)
		if err != nil {
			return cache.Entry{}, false, err
		}
		if !ok {
			s.prune(ctx, address, slot)
			return cache.Entry{}, false, nil
		}
	}
	if rec.Entry == nil {
		// Redirects never chain.
		return cache.Entry{}, false, nil
	}
	return rec.Entry.entry(), true, nil
}

// Set implements cache.Store.
//
// Widening the contexts of a redirect, or replacing it with a plain entry,
// deletes the slots written through it: no lookup can reach them again.
func (s *Store) Set(ctx context.Context, entry cache.Entry, lookup cache.Lookup) error {
	if err := lookup.Validate(); err != nil {
		return err
	}
	ttl, ok := s.policy.TTL(entry.Cacheability.MaxAge())
	if !ok {
		return nil
	}

	address := lookup.Address()
	existing, found, err := s.read(ctx, address)
	if err != nil {
		return err
	}
	index, err := s.index(ctx, address)
	if err != nil {
		return err
	}

	slot := address
	keep := false
	var redirect []byte
	if contexts := entry.Cacheability.Contexts(); len(contexts) > 0 {
		if found && existing.Redirect != nil {
			merged := cache.MergeContexts(existing.Redirect.Contexts, contexts)
			keep = slices.Equal(merged, existing.Redirect.Contexts)
			contexts = merged
		}
		redirect, err = json.Marshal(record{Redirect: &cache.Redirect{Contexts: contexts}})
		if err != nil {
			return fmt.Errorf("redisstore: encode redirect: %w", err)
		}
		slot = cache.Slot(ctx, s.variation, address, contexts)
	}

	// Drop every indexed key the write makes unreachable, and the old tags of
	// the slot being overwritten.
	stale := make(map[string][]string)
	for key, tags := range index {
		if !keep || key == slot {
			stale[key] = tags
		}
	}

	payload, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	tags, err := json.Marshal(entry.Cacheability.Tags())
	if err != nil {
		return fmt.Errorf("redisstore: encode tags: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.forget(ctx, pipe, address, stale)
		if redirect != nil {
			pipe.Set(ctx, s.prefix+address, redirect, 0)
		}
		pipe.Set(ctx, s.prefix+slot, payload, ttl)
		for _, tag := range entry.Cacheability.Tags() {
			pipe.SAdd(ctx, s.tagKey(tag), s.prefix+slot)
		}
		pipe.HSet(ctx, s.indexKey(address), slot, tags)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: set %q: %w", address, err)
	}
	return nil
}

// InvalidateTags implements cache.Invalidator.
func (s *Store) InvalidateTags(ctx context.Context, tags ...string) error {
	var errs []error
	for _, tag := range tags {
		key := s.tagKey(tag)
		members, err := s.rdb.SMembers(ctx, key).Result()
		if err != nil {
			errs = append(errs, fmt.Errorf("redisstore: members of %q: %w", tag, err))
			continue
		}
		if err := s.rdb.Del(ctx, append(members, key)...).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redisstore: invalidate %q: %w", tag, err))
		}
	}
	return errors.Join(errs...)
}

// Ping implements cache.Pinger.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) read(ctx context.Context, key string) (record, bool, error) {
	b, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return record{}, false, nil
	}
	if err != nil {
		return record{}, false, fmt.Errorf("redisstore: get %q: %w", key, err)
	}
	rec, err := decodeRecord(b)
	if err != nil {
		return record{}, false, err
	}
	return rec, true, nil
}

// index returns the physical keys written for address with their tags.
func (s *Store) index(ctx context.Context, address string) (map[string][]string, error) {
	raw, err := s.rdb.HGetAll(ctx, s.indexKey(address)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: index %q: %w", address, err)
	}
	out := make(map[string][]string, len(raw))
	for key, v := range raw {
		var tags []string
		// An unreadable member still gets forgotten, just without its tags.
		_ = json.Unmarshal([]byte(v), &tags)
		out[key] = tags
	}
	return out, nil
}

// forget queues deletion of keys together with their tag and index members.
func (s *Store) forget(ctx context.Context, pipe redis.Pipeliner, address string, keys map[string][]string) {
	for key, tags := range keys {
		pipe.Del(ctx, s.prefix+key)
		for _, tag := range tags {
			pipe.SRem(ctx, s.tagKey(tag), s.prefix+key)
		}
		pipe.HDel(ctx, s.indexKey(address), key)
	}
}

// prune forgets missing keys of address after a miss: slot alone, or every
// indexed key when slot is empty. Failures are ignored; the miss stands.
func (s *Store) prune(ctx context.Context, address, slot string) {
	index, err := s.index(ctx, address)
	if err != nil || len(index) == 0 {
		return
	}
	if slot != "" {
		tags, ok := index[slot]
		if !ok {
			return
		}
		index = map[string][]string{slot: tags}
	}

	// Keys rewritten since the miss are left alone.
	exists := make(map[string]*redis.IntCmd, len(index))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for key := range index {
			exists[key] = pipe.Exists(ctx, s.prefix+key)
		}
		return nil
	})
	if err != nil {
		return
	}
	for key, cmd := range exists {
		if cmd.Val() > 0 {
			delete(index, key)
		}
	}
	if len(index) == 0 {
		return
	}

	_, _ = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.forget(ctx, pipe, address, index)
		return nil
	})
}

func (s *Store) tagKey(tag string) string {
	return s.prefix + "tag:" + tag
}

func (s *Store) indexKey(address string) string {
	return s.prefix + "idx:" + address
}

var (
	_ cache.Store       = (*Store)(nil)
	_ cache.Invalidator = (*Store)(nil)
	_ cache.Pinger      = (*Store)(nil)
)
