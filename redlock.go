package runlocker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes a key only if it still holds the token that
// acquired it, so a process never releases a lease another process has
// since taken over (e.g. after this one's lease expired under it).
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// extendScript resets a key's TTL only if it still holds the token that
// acquired it.
var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`)

// RedlockClient performs the atomic single-store operations the Lock
// Coordinator builds its acquisition algorithm on top of: SET NX PX to
// acquire, and token-checked Lua scripts to release or extend. It holds no
// retry or reentrancy logic of its own — that lives in Locker.
type RedlockClient struct {
	store   *redis.Client
	breaker *CircuitBreaker
}

// NewRedlockClient wraps an existing go-redis client. The caller owns the
// client's lifecycle; RedlockClient never closes it.
func NewRedlockClient(store *redis.Client) *RedlockClient {
	return &RedlockClient{
		store:   store,
		breaker: NewCircuitBreaker(5, 10*time.Second),
	}
}

// TryAcquire attempts to claim every key in keys atomically with SET NX PX,
// each holding the same token. If any key is already held, it rolls back
// whichever keys it had already claimed and returns acquired=false; no
// partial lock is ever left behind for the caller to clean up.
func (c *RedlockClient) TryAcquire(ctx context.Context, keys []string, token string, ttl time.Duration) (acquired bool, err error) {
	claimed := make([]string, 0, len(keys))
	err = c.breaker.Execute(ctx, func() error {
		for _, key := range keys {
			ok, setErr := c.store.SetNX(ctx, key, token, ttl).Result()
			if setErr != nil {
				return fmt.Errorf("runlocker: acquire %q: %w", key, setErr)
			}
			if !ok {
				acquired = false
				return nil
			}
			claimed = append(claimed, key)
		}
		acquired = true
		return nil
	})
	if err != nil {
		c.rollback(claimed, token)
		return false, err
	}
	if !acquired {
		c.rollback(claimed, token)
		return false, nil
	}
	return true, nil
}

// rollback releases whatever subset of a failed multi-key acquisition this
// process had already claimed. Uses a detached context: a canceled caller
// context must not leave orphaned keys sitting at full TTL.
func (c *RedlockClient) rollback(claimed []string, token string) {
	if len(claimed) == 0 {
		return
	}
	cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, key := range claimed {
		_, _ = releaseScript.Run(cleanupCtx, c.store, []string{key}, token).Result()
	}
}

// Release drops every key in keys whose current value still matches token.
// Keys already taken over by another holder (this lease having expired
// under it) are left untouched.
func (c *RedlockClient) Release(ctx context.Context, keys []string, token string) error {
	return c.breaker.Execute(ctx, func() error {
		for _, key := range keys {
			if _, err := releaseScript.Run(ctx, c.store, []string{key}, token).Result(); err != nil {
				return fmt.Errorf("runlocker: release %q: %w", key, err)
			}
		}
		return nil
	})
}

// Extend resets the TTL of every key in keys to ttl, provided each still
// holds token. If any key has been taken over by another holder, Extend
// returns ErrLeaseLost — the caller has lost exclusivity over at least part
// of the resource set and must treat the whole lease as gone.
func (c *RedlockClient) Extend(ctx context.Context, keys []string, token string, ttl time.Duration) error {
	return c.breaker.Execute(ctx, func() error {
		ttlMillis := ttl.Milliseconds()
		for _, key := range keys {
			res, err := extendScript.Run(ctx, c.store, []string{key}, token, ttlMillis).Result()
			if err != nil {
				return fmt.Errorf("runlocker: extend %q: %w", key, err)
			}
			n, ok := res.(int64)
			if !ok || n == 0 {
				return ErrLeaseLost
			}
		}
		return nil
	})
}
