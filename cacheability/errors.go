package cacheability

import "errors"

// ErrInvalidMaxAge indicates a decoded max-age below Permanent.
var ErrInvalidMaxAge = errors.New("cacheability: max-age must be >= -1")
