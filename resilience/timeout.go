package resilience

import (
	"context"
	"errors"
	"time"
)

// Timeout bounds a single backend call.
type Timeout struct {
	d time.Duration
}

// NewTimeout creates a timeout wrapper. Non-positive durations default to 1s.
func NewTimeout(d time.Duration) *Timeout {
	if d <= 0 {
		d = time.Second
	}
	return &Timeout{d: d}
}

// Execute runs the operation with a deadline.
// The operation runs in its own goroutine so that a backend ignoring ctx
// cannot hold the caller past the deadline.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	// Our own deadline, not the caller's, ended the attempt.
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return ErrTimeout
	}
	return err
}

// Duration returns the configured timeout.
func (t *Timeout) Duration() time.Duration {
	return t.d
}
