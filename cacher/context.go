package cacher

import "context"

type cacherKey struct{}

// WithCacher returns a context carrying c.
func WithCacher(ctx context.Context, c *Cacher) context.Context {
	return context.WithValue(ctx, cacherKey{}, c)
}

// FromContext returns the lifecycle's Cacher, if one is attached.
func FromContext(ctx context.Context) (*Cacher, bool) {
	c, ok := ctx.Value(cacherKey{}).(*Cacher)
	return c, ok && c != nil
}
