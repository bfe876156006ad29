package runlocker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LeaseInfo describes a single key currently held in the coordination
// store, as observed from the outside. It is a live snapshot, never a
// cached or restored view — querying it twice in a row can return
// different answers.
type LeaseInfo struct {
	Key   string        // store key, "lockName:resource"
	Token string        // the opaque holder token
	TTL   time.Duration // remaining time before the key expires
}

// LockInspector provides read-only and administrative operations over the
// keys a Locker has written to the store. It never participates in
// acquisition itself, so holding one confers no exclusivity.
type LockInspector struct {
	store   *redis.Client
	logger  Logger
	metrics Metrics
}

// NewLockInspector creates an inspector bound to the given store client.
func NewLockInspector(store *redis.Client, logger Logger, metrics Metrics) *LockInspector {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	if metrics == nil {
		metrics = &NoOpMetrics{}
	}
	return &LockInspector{store: store, logger: logger, metrics: metrics}
}

// ListLeases returns every live key under lockName, i.e. every resource
// currently held by some holder (this process or another) for that lock
// name.
func (li *LockInspector) ListLeases(ctx context.Context, lockName string) ([]LeaseInfo, error) {
	pattern := lockName + ":*"

	var leases []LeaseInfo
	var cursor uint64
	for {
		keys, next, err := li.store.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("runlocker: scan leases: %w", err)
		}

		for _, key := range keys {
			ttl, err := li.store.TTL(ctx, key).Result()
			if err != nil {
				li.logger.Warn("failed to read TTL for lease", "key", key, "error", err)
				continue
			}
			if ttl < 0 {
				continue
			}
			token, err := li.store.Get(ctx, key).Result()
			if err != nil {
				li.logger.Warn("failed to read token for lease", "key", key, "error", err)
				continue
			}
			leases = append(leases, LeaseInfo{Key: key, Token: token, TTL: ttl})
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	li.metrics.Gauge(MetricLockActive, float64(len(leases)))
	return leases, nil
}

// ForceRelease unconditionally deletes a single store key regardless of
// which token currently holds it. This bypasses the token check that
// Release and Extend honor, and must only be used once an operator has
// independently confirmed the holder is gone — calling it against a lease
// a live process still holds reintroduces the exact double-entry the
// lock exists to prevent.
func (li *LockInspector) ForceRelease(ctx context.Context, key string) error {
	deleted, err := li.store.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("runlocker: force release %q: %w", key, err)
	}
	if deleted == 0 {
		return ErrLockNotFound
	}
	li.logger.Warn("force released lease", "key", key)
	li.metrics.Increment(MetricLockForceRelease, "key", key)
	return nil
}
