package health

import (
	"context"
	"fmt"
)

// Sizer reports how many entries a store holds.
type Sizer interface {
	Len() int
}

// CapacityCheckerConfig configures the capacity health checker.
type CapacityCheckerConfig struct {
	// MaxEntries is the expected upper bound. Zero disables the check.
	MaxEntries int

	// WarningThreshold is the fill ratio that degrades the check.
	// Value should be between 0 and 1. Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the fill ratio that fails the check.
	// Value should be between 0 and 1. Default: 0.95
	CriticalThreshold float64
}

// CapacityChecker watches the fill level of an in-process store, which,
// unlike Redis, has no eviction of its own.
type CapacityChecker struct {
	sizer  Sizer
	config CapacityCheckerConfig
}

// NewCapacityChecker creates a capacity checker for sizer.
func NewCapacityChecker(sizer Sizer, config CapacityCheckerConfig) *CapacityChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = min(config.WarningThreshold+0.1, 0.99)
	}
	return &CapacityChecker{sizer: sizer, config: config}
}

// Name returns the name of this checker.
func (c *CapacityChecker) Name() string { return "capacity" }

// Check compares the entry count with MaxEntries.
func (c *CapacityChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	entries := c.sizer.Len()
	details := map[string]any{"entries": entries, "max_entries": c.config.MaxEntries}
	if c.config.MaxEntries <= 0 {
		return Healthy(fmt.Sprintf("%d entries", entries)).WithDetails(details)
	}

	ratio := float64(entries) / float64(c.config.MaxEntries)
	details["usage_percent"] = ratio * 100

	switch {
	case ratio >= c.config.CriticalThreshold:
		return Unhealthy(fmt.Sprintf("store nearly full: %.1f%%", ratio*100), ErrCheckFailed).WithDetails(details)
	case ratio >= c.config.WarningThreshold:
		return Degraded(fmt.Sprintf("store filling up: %.1f%%", ratio*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("store usage normal: %.1f%%", ratio*100)).WithDetails(details)
	}
}
