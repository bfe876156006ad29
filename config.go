package runlocker

import (
	"fmt"
	"time"
)

// Default values for RetryConfig.
const (
	DefaultMaxAttempts        = 10
	DefaultBaseDelay          = 200 * time.Millisecond
	DefaultMaxDelay           = 5000 * time.Millisecond
	DefaultBackoffMultiplier  = 1.5
	DefaultJitterFactor       = 0.1
	DefaultMaxTotalWaitTime   = 30000 * time.Millisecond
	DefaultDuration           = 5000 * time.Millisecond
	DefaultExtensionThreshold = 500 * time.Millisecond
)

// RetryConfig controls the acquisition loop's backoff and budget.
//
// MaxAttempts counts retries after the first try, not total tries: a value
// of 0 still permits exactly one attempt.
type RetryConfig struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	JitterFactor      float64
	MaxTotalWaitTime  time.Duration
}

// DefaultRetryConfig returns the standard retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       DefaultMaxAttempts,
		BaseDelay:         DefaultBaseDelay,
		MaxDelay:          DefaultMaxDelay,
		BackoffMultiplier: DefaultBackoffMultiplier,
		JitterFactor:      DefaultJitterFactor,
		MaxTotalWaitTime:  DefaultMaxTotalWaitTime,
	}
}

// Validate checks RetryConfig for construction-time errors.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 0 {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field": "MaxAttempts", "value": c.MaxAttempts, "reason": "must be >= 0",
		})
	}
	if c.BaseDelay < 0 {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field": "BaseDelay", "value": c.BaseDelay, "reason": "must be >= 0",
		})
	}
	if c.MaxDelay < c.BaseDelay {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field": "MaxDelay", "value": c.MaxDelay, "reason": "must be >= BaseDelay",
		})
	}
	if c.BackoffMultiplier < 1 {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field": "BackoffMultiplier", "value": c.BackoffMultiplier, "reason": "must be >= 1",
		})
	}
	if c.JitterFactor < 0 || c.JitterFactor > 1 {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field": "JitterFactor", "value": c.JitterFactor, "reason": "must be in [0, 1]",
		})
	}
	if c.MaxTotalWaitTime < 0 {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field": "MaxTotalWaitTime", "value": c.MaxTotalWaitTime, "reason": "must be >= 0",
		})
	}
	return nil
}

// CoordinatorConfig controls lease duration, extension timing, and retry
// behavior for a Locker.
type CoordinatorConfig struct {
	Duration                    time.Duration
	AutomaticExtensionThreshold time.Duration
	Retry                       RetryConfig
}

// DefaultCoordinatorConfig returns the standard coordinator defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		Duration:                    DefaultDuration,
		AutomaticExtensionThreshold: DefaultExtensionThreshold,
		Retry:                       DefaultRetryConfig(),
	}
}

// Validate checks CoordinatorConfig for construction-time errors.
// automatic_extension_threshold >= duration is rejected rather than left
// to undefined runtime behavior.
func (c CoordinatorConfig) Validate() error {
	if c.Duration <= 0 {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field": "Duration", "value": c.Duration, "reason": "must be positive",
		})
	}
	if c.AutomaticExtensionThreshold <= 0 {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field": "AutomaticExtensionThreshold", "value": c.AutomaticExtensionThreshold, "reason": "must be positive",
		})
	}
	if c.AutomaticExtensionThreshold >= c.Duration {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "AutomaticExtensionThreshold",
			"value":  c.AutomaticExtensionThreshold,
			"reason": fmt.Sprintf("must be less than Duration (%s)", c.Duration),
		})
	}
	return c.Retry.Validate()
}

// extensionInterval is how often the auto-extension goroutine wakes up:
// refresh the lease automatic_extension_threshold before it would expire.
func (c CoordinatorConfig) extensionInterval() time.Duration {
	return c.Duration - c.AutomaticExtensionThreshold
}
