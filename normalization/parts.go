package normalization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jonwraymond/normcache/cacheability"
)

// Part is one serialized field value together with its cacheability.
type Part struct {
	Data         json.RawMessage       `json:"data"`
	Cacheability cacheability.Metadata `json:"cacheability"`
}

// Parts is the normalization of one resource object.
//
// Base is the structural envelope (type, id, links). It carries no
// cacheability of its own; only Fields contribute metadata.
type Parts struct {
	Base   json.RawMessage `json:"base"`
	Fields map[string]Part `json:"fields"`
}

// Validate reports ErrMalformedParts unless both base and fields are present.
// An empty, non-nil Fields map is valid.
func (p Parts) Validate() error {
	var missing []string
	if p.Base == nil {
		missing = append(missing, "base")
	}
	if p.Fields == nil {
		missing = append(missing, "fields")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrMalformedParts, missing)
	}
	return nil
}

// FieldNames returns the field names in sorted order.
func (p Parts) FieldNames() []string {
	names := make([]string, 0, len(p.Fields))
	for name := range p.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both parts carry byte-identical data and equal metadata.
func (p Parts) Equal(other Parts) bool {
	if !bytes.Equal(p.Base, other.Base) || len(p.Fields) != len(other.Fields) {
		return false
	}
	for name, part := range p.Fields {
		o, ok := other.Fields[name]
		if !ok || !bytes.Equal(part.Data, o.Data) || !part.Cacheability.Equal(o.Cacheability) {
			return false
		}
	}
	return true
}

// MergeFields folds the cacheability of every field.
// No fields yields the identity: no tags, no contexts, permanent.
func MergeFields(fields map[string]Part) cacheability.Metadata {
	var out cacheability.Metadata
	for _, part := range fields {
		out = out.Merge(part.Cacheability)
	}
	return out
}

// Decode parses serialized parts, requiring the top-level keys to be exactly
// base and fields.
func Decode(data []byte) (Parts, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return Parts{}, fmt.Errorf("normalization: decode: %w", err)
	}

	base, hasBase := top["base"]
	rawFields, hasFields := top["fields"]
	if !hasBase || !hasFields || len(top) != 2 {
		keys := make([]string, 0, len(top))
		for k := range top {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return Parts{}, fmt.Errorf("%w: got keys %v", ErrMalformedParts, keys)
	}

	var fields map[string]Part
	if err := json.Unmarshal(rawFields, &fields); err != nil {
		return Parts{}, fmt.Errorf("normalization: decode fields: %w", err)
	}

	parts := Parts{Base: base, Fields: fields}
	if err := parts.Validate(); err != nil {
		return Parts{}, err
	}
	return parts, nil
}
