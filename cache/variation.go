package cache

import (
	"context"
	"encoding/hex"
	"maps"

	"github.com/cespare/xxhash/v2"

	"github.com/jonwraymond/normcache/cacheability"
)

type contextKey int

const variationsKey contextKey = iota

// WithVariations returns a context carrying ambient variation values,
// e.g. {"user.permissions": "hash-of-roles", "languages": "en"}.
// Values already present in ctx are kept unless overridden.
func WithVariations(ctx context.Context, values map[string]string) context.Context {
	merged := maps.Clone(VariationsFromContext(ctx))
	if merged == nil {
		merged = make(map[string]string, len(values))
	}
	maps.Copy(merged, values)
	return context.WithValue(ctx, variationsKey, merged)
}

// VariationsFromContext returns the ambient variation values in ctx.
// Returns nil if none are present.
func VariationsFromContext(ctx context.Context) map[string]string {
	v, _ := ctx.Value(variationsKey).(map[string]string)
	return v
}

// VariationResolver resolves cache contexts to their current values.
//
// Contract:
// - Determinism: the same ctx and contexts must resolve to the same values.
// - Concurrency: implementations must be safe for concurrent use.
type VariationResolver interface {
	Resolve(ctx context.Context, contexts []string) []string
}

// ContextVariations resolves contexts from values attached with WithVariations.
// Unknown contexts resolve to the empty string.
type ContextVariations struct{}

// Resolve implements VariationResolver.
func (ContextVariations) Resolve(ctx context.Context, contexts []string) []string {
	values := VariationsFromContext(ctx)
	out := make([]string, len(contexts))
	for i, c := range contexts {
		out[i] = values[c]
	}
	return out
}

// Redirect is kept at a logical address whose entries vary by context.
type Redirect struct {
	Contexts []string `json:"contexts"`
}

// Slot returns the physical key for address under the current values of contexts.
// The contexts must be sorted; with no contexts the slot is the address itself.
func Slot(ctx context.Context, resolver VariationResolver, address string, contexts []string) string {
	if len(contexts) == 0 {
		return address
	}
	values := resolver.Resolve(ctx, contexts)

	h := xxhash.New()
	for i, c := range contexts {
		_, _ = h.WriteString(c)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(values[i])
		_, _ = h.WriteString("\x00")
	}
	return address + "|" + hex.EncodeToString(h.Sum(nil))
}

// MergeContexts returns the sorted union of two context lists.
func MergeContexts(a, b []string) []string {
	return cacheability.New(nil, append(append([]string(nil), a...), b...), cacheability.Permanent).Contexts()
}
