package cache

import (
	"context"
	"errors"
	"strings"

	"github.com/jonwraymond/normcache/cacheability"
	"github.com/jonwraymond/normcache/normalization"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// DefaultBin is the storage partition for normalizations.
const DefaultBin = "normalizations"

// Sentinel errors for cache operations.
var (
	ErrNilStore     = errors.New("cache: store is nil")
	ErrInvalidKey   = errors.New("cache: key is invalid")
	ErrKeyTooLong   = errors.New("cache: key exceeds max length")
	ErrInvalidEntry = errors.New("cache: entry is invalid")
)

// Lookup addresses an entry: the derived key plus the bin it lives in.
// It never carries payload or computed metadata.
type Lookup struct {
	Key string `json:"key"`
	Bin string `json:"bin"`
}

// Address returns the context-free logical address of the lookup.
func (l Lookup) Address() string {
	return l.Bin + ":" + l.Key
}

// Validate checks the lookup key and bin.
func (l Lookup) Validate() error {
	if err := ValidateKey(l.Key); err != nil {
		return err
	}
	if strings.TrimSpace(l.Bin) == "" || strings.ContainsAny(l.Bin, "\n\r:|") {
		return ErrInvalidKey
	}
	return nil
}

// Entry is what a Store physically keeps.
type Entry struct {
	Lookup       Lookup                `json:"lookup"`
	Data         normalization.Parts   `json:"data"`
	Cacheability cacheability.Metadata `json:"cacheability"`
}

// Store is a keyed cache with tag invalidation, max-age freshness and
// context-qualified redirects.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Get returns (Entry{}, false, nil) on miss, expiry or invalidation.
//     Errors are reserved for backend failures.
//   - Set with max-age 0 is a no-op returning nil.
//   - Set addresses the entry by lookup alone; variation by the entry's contexts
//     is resolved internally from the ambient values in ctx.
type Store interface {
	Get(ctx context.Context, lookup Lookup) (Entry, bool, error)
	Set(ctx context.Context, entry Entry, lookup Lookup) error
}

// Invalidator purges entries by tag.
type Invalidator interface {
	// InvalidateTags removes every entry whose tags intersect tags.
	InvalidateTags(ctx context.Context, tags ...string) error
}

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IsInvalid reports whether err rejects the request itself (a malformed
// lookup or an undecodable record) rather than reflecting backend health.
// Such errors never succeed on retry.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrKeyTooLong) ||
		errors.Is(err, ErrInvalidEntry)
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
