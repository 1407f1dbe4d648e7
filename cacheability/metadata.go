package cacheability

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// Permanent is the max-age of content that never expires by age.
const Permanent = -1

// Metadata carries invalidation tags, variation contexts and a max-age bound.
//
// The zero value is the merge identity: no tags, no contexts, permanent.
type Metadata struct {
	tags     []string
	contexts []string

	// bounded is false for permanent metadata; maxAge is only meaningful when set.
	bounded bool
	maxAge  int
}

// Dependency is implemented by anything that can describe its own cacheability.
//
// Contract:
// - Purity: Cacheability must be side-effect free.
type Dependency interface {
	Cacheability() Metadata
}

// New creates metadata from tags, contexts and a max-age in seconds.
// Any negative max-age is treated as Permanent.
func New(tags, contexts []string, maxAge int) Metadata {
	m := Metadata{
		tags:     normalize(tags),
		contexts: normalize(contexts),
	}
	if maxAge >= 0 {
		m.bounded = true
		m.maxAge = maxAge
	}
	return m
}

// Uncacheable returns metadata with max-age 0.
func Uncacheable() Metadata {
	return Metadata{bounded: true}
}

// FromObject extracts metadata from v.
// Values that do not implement Dependency are uncacheable.
func FromObject(v any) Metadata {
	if d, ok := v.(Dependency); ok {
		return d.Cacheability()
	}
	return Uncacheable()
}

// Tags returns a sorted copy of the invalidation tags.
func (m Metadata) Tags() []string {
	return slices.Clone(m.tags)
}

// Contexts returns a sorted copy of the variation contexts.
func (m Metadata) Contexts() []string {
	return slices.Clone(m.contexts)
}

// MaxAge returns the max-age in seconds, or Permanent.
func (m Metadata) MaxAge() int {
	if !m.bounded {
		return Permanent
	}
	return m.maxAge
}

// IsCacheable reports whether the max-age allows storage at all.
func (m Metadata) IsCacheable() bool {
	return !m.bounded || m.maxAge > 0
}

// Merge returns the union of tags and contexts and the most restrictive max-age.
// Max-age 0 dominates; Permanent yields to any finite value.
func (m Metadata) Merge(other Metadata) Metadata {
	out := Metadata{
		tags:     union(m.tags, other.tags),
		contexts: union(m.contexts, other.contexts),
	}
	switch {
	case !m.bounded:
		out.bounded, out.maxAge = other.bounded, other.maxAge
	case !other.bounded:
		out.bounded, out.maxAge = m.bounded, m.maxAge
	default:
		out.bounded, out.maxAge = true, min(m.maxAge, other.maxAge)
	}
	return out
}

// MergeAll folds Merge across all values. An empty call returns the identity.
func MergeAll(all ...Metadata) Metadata {
	var out Metadata
	for _, m := range all {
		out = out.Merge(m)
	}
	return out
}

// Equal reports whether both values carry the same tags, contexts and max-age.
func (m Metadata) Equal(other Metadata) bool {
	return slices.Equal(m.tags, other.tags) &&
		slices.Equal(m.contexts, other.contexts) &&
		m.MaxAge() == other.MaxAge()
}

// String implements fmt.Stringer.
func (m Metadata) String() string {
	return fmt.Sprintf("tags=%v contexts=%v max-age=%d", m.tags, m.contexts, m.MaxAge())
}

type wireMetadata struct {
	Tags     []string `json:"tags"`
	Contexts []string `json:"contexts"`
	MaxAge   int      `json:"max_age"`
}

// MarshalJSON implements json.Marshaler.
func (m Metadata) MarshalJSON() ([]byte, error) {
	w := wireMetadata{
		Tags:     m.tags,
		Contexts: m.contexts,
		MaxAge:   m.MaxAge(),
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
	if w.Contexts == nil {
		w.Contexts = []string{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
// A missing max_age decodes as Permanent.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	w := wireMetadata{MaxAge: Permanent}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.MaxAge < Permanent {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxAge, w.MaxAge)
	}
	*m = New(w.Tags, w.Contexts, w.MaxAge)
	return nil
}

// normalize sorts and de-duplicates, dropping empty strings.
func normalize(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// union merges two sorted, de-duplicated slices.
func union(a, b []string) []string {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
