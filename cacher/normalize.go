package cacher

import (
	"context"

	"github.com/jonwraymond/normcache/normalization"
)

// Normalizer computes the normalization of a resource object.
//
// Contract:
// - Returned parts must be shaped exactly {base, fields}.
// - Concurrency: implementations must be safe for concurrent use.
type Normalizer interface {
	Normalize(ctx context.Context, typ ResourceType, obj ResourceObject) (normalization.Parts, error)
}

// NormalizerFunc adapts a function to Normalizer.
type NormalizerFunc func(ctx context.Context, typ ResourceType, obj ResourceObject) (normalization.Parts, error)

// Normalize implements Normalizer.
func (f NormalizerFunc) Normalize(ctx context.Context, typ ResourceType, obj ResourceObject) (normalization.Parts, error) {
	return f(ctx, typ, obj)
}

// Normalize returns the cached normalization of obj, computing and staging it on a miss.
//
// Normalizer errors are returned unchanged and nothing is staged.
// A nil c disables caching and always calls n.
func Normalize(ctx context.Context, c *Cacher, typ ResourceType, obj ResourceObject, n Normalizer) (normalization.Parts, error) {
	if n == nil {
		return normalization.Parts{}, ErrNilNormalizer
	}
	if c != nil {
		if parts, ok := c.Get(ctx, typ, obj); ok {
			return parts, nil
		}
	}

	parts, err := n.Normalize(ctx, typ, obj)
	if err != nil {
		return normalization.Parts{}, err
	}
	if c != nil {
		c.SaveLater(typ, obj, parts)
	}
	return parts, nil
}
