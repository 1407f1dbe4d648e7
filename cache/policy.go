package cache

import (
	"time"

	"github.com/jonwraymond/normcache/cacheability"
)

// Policy maps cacheability max-age onto backend TTLs.
type Policy struct {
	// PermanentTTL is the TTL used for permanent entries.
	// If zero, permanent entries never expire by age.
	PermanentTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Longer TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultPolicy returns the default policy: permanent entries never expire
// and finite max-ages are honored as-is.
func DefaultPolicy() Policy {
	return Policy{}
}

// TTL returns the TTL for max-age and whether the entry may be stored.
// A zero TTL with ok=true means no expiry.
func (p Policy) TTL(maxAge int) (ttl time.Duration, ok bool) {
	switch {
	case maxAge == 0:
		return 0, false
	case maxAge <= cacheability.Permanent:
		ttl = p.PermanentTTL
	default:
		ttl = time.Duration(maxAge) * time.Second
	}

	// Clamp to MaxTTL if set
	if p.MaxTTL > 0 && (ttl == 0 || ttl > p.MaxTTL) {
		ttl = p.MaxTTL
	}
	return ttl, true
}
