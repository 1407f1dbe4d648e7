package cacher

import "errors"

// Sentinel errors for cacher construction.
var (
	// ErrInvalidBin indicates a bin name that cannot form a lookup address.
	ErrInvalidBin = errors.New("cacher: invalid bin")

	// ErrNilNormalizer indicates Normalize was called without a Normalizer.
	ErrNilNormalizer = errors.New("cacher: normalizer is nil")
)
