package health

import "errors"

// Errors carried in Result.Error.
var (
	// ErrCheckFailed marks an unhealthy store: unreachable, unset or full.
	ErrCheckFailed = errors.New("health: store check failed")

	// ErrCheckTimeout is set when a check outlives the aggregator timeout.
	ErrCheckTimeout = errors.New("health: store check timed out")

	// ErrCheckerNotFound is returned by Aggregator.Check for unknown names.
	ErrCheckerNotFound = errors.New("health: no such check")
)
