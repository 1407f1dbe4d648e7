package config

import "errors"

// Validation errors.
var (
	ErrUnknownBackend     = errors.New("config: unknown store backend")
	ErrMissingRedisAddr   = errors.New("config: redis addr is required")
	ErrInvalidBin         = errors.New("config: invalid bin")
	ErrInvalidTTL         = errors.New("config: ttl must not be negative")
	ErrInvalidConcurrency = errors.New("config: flush concurrency must not be negative")
	ErrInvalidResilience  = errors.New("config: invalid resilience settings")
)
