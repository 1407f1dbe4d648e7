package resilience

import "errors"

// Errors returned by the store guards. Each wraps nothing; callers match them
// with errors.Is.
var (
	// ErrCircuitOpen rejects a store call while the backend is considered down.
	ErrCircuitOpen = errors.New("resilience: circuit open")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt is spent.
	ErrMaxRetriesExceeded = errors.New("resilience: attempts exhausted")

	// ErrTimeout reports a store call that outlived its per-attempt bound.
	ErrTimeout = errors.New("resilience: attempt timed out")
)
