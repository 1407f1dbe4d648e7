// Package cacher defers normalization writes to the end of a lifecycle.
//
// A Cacher belongs to exactly one lifecycle, typically one request. Callers
// read with Get, stage freshly computed normalizations with SaveLater, and
// end the lifecycle with Terminate (or Lifecycle.End), which merges each
// entry's cacheability and writes it to the underlying cache.Store.
//
// Caching is an optimization: Get turns store failures into misses and
// Terminate reports write failures through logs and metrics without
// returning them.
//
//	ctx, lc, err := cacher.Begin(ctx, store)
//	if err != nil { ... }
//	defer lc.End(ctx)
//
//	parts, err := cacher.Normalize(ctx, lc.Cacher(), articleType, article, normalizer)
package cacher
