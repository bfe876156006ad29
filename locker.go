package runlocker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker is the public façade: the Lock Coordinator. It orchestrates the
// reentrancy short-circuit, Redlock acquisition with retry, the
// auto-extension task, invocation of the caller's critical section, and
// guaranteed release on every exit path.
type Locker struct {
	client     *RedlockClient
	raw        *redis.Client
	ownsClient bool

	config  CoordinatorConfig
	logger  Logger
	metrics Metrics
	audit   AuditSink

	mu     sync.Mutex
	closed bool
	extWG  sync.WaitGroup // tracks every outstanding extension goroutine, for Quit
}

type lockerOptions struct {
	config     CoordinatorConfig
	logger     Logger
	metrics    Metrics
	audit      AuditSink
	ownsClient bool
}

// Option configures a Locker at construction time.
type Option func(*lockerOptions)

func WithDuration(d time.Duration) Option {
	return func(o *lockerOptions) { o.config.Duration = d }
}

func WithExtensionThreshold(d time.Duration) Option {
	return func(o *lockerOptions) { o.config.AutomaticExtensionThreshold = d }
}

func WithRetryConfig(r RetryConfig) Option {
	return func(o *lockerOptions) { o.config.Retry = r }
}

func WithLogger(l Logger) Option {
	return func(o *lockerOptions) { o.logger = l }
}

func WithMetrics(m Metrics) Option {
	return func(o *lockerOptions) { o.metrics = m }
}

func WithAuditSink(a AuditSink) Option {
	return func(o *lockerOptions) { o.audit = a }
}

// WithOwnedClient makes Quit close the underlying redis.Client. By default
// the Locker never closes a connection it did not open.
func WithOwnedClient() Option {
	return func(o *lockerOptions) { o.ownsClient = true }
}

// NewLocker constructs a Locker over an existing redis.Client. The caller
// retains ownership of client unless WithOwnedClient is passed.
func NewLocker(client *redis.Client, opts ...Option) (*Locker, error) {
	options := lockerOptions{
		config:  DefaultCoordinatorConfig(),
		logger:  &NoOpLogger{},
		metrics: &NoOpMetrics{},
		audit:   NoOpAuditSink{},
	}
	for _, opt := range opts {
		opt(&options)
	}

	if err := options.config.Validate(); err != nil {
		return nil, err
	}

	return &Locker{
		client:     NewRedlockClient(client),
		raw:        client,
		ownsClient: options.ownsClient,
		config:     options.config,
		logger:     options.logger,
		metrics:    options.metrics,
		audit:      options.audit,
	}, nil
}

// Duration returns the configured lease TTL per grant.
func (l *Locker) Duration() time.Duration { return l.config.Duration }

// ExtensionThreshold returns the configured refresh lead-time.
func (l *Locker) ExtensionThreshold() time.Duration { return l.config.AutomaticExtensionThreshold }

// RetryConfig returns the configured retry policy.
func (l *Locker) RetryConfig() RetryConfig { return l.config.Retry }

// Lock acquires an exclusive lease over name/resources, runs body with the
// lease held, and releases it on every exit path before returning. If the
// calling chain already holds a lease on the identical resource set (the
// reentrancy frame matches), acquisition is bypassed entirely and body runs
// directly.
func (l *Locker) Lock(ctx context.Context, name string, resources []string, body func(context.Context) (interface{}, error)) (interface{}, error) {
	if len(resources) == 0 {
		return nil, ErrEmptyResources
	}

	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	canonical := Canonicalize(resources)

	if current, ok := CurrentResources(ctx); ok && current == canonical {
		l.metrics.Increment(MetricLockReentrant, "lock_name", name)
		return body(ctx)
	}

	sorted := make([]string, len(resources))
	copy(sorted, resources)
	sort.Strings(sorted)
	keys := storeKeys(name, sorted)

	token, attempts, waited, err := l.acquireWithRetry(ctx, keys, canonical)
	if err != nil {
		l.metrics.Increment(MetricLockFailed, "lock_name", name)
		if IsTimeout(err) {
			l.metrics.Increment(MetricLockTimeout, "lock_name", name)
			l.recordAudit(ctx, AuditEvent{
				Kind: AuditTimedOut, LockName: name, Resources: canonical,
				Attempts: attempts, WaitTime: waited,
			})
		}
		return nil, err
	}

	l.metrics.Increment(MetricLockAcquired, "lock_name", name)
	l.metrics.Histogram(MetricLockContention, float64(attempts), "lock_name", name)
	l.metrics.Timing(MetricLockWaitTime, waited, "lock_name", name)
	l.recordAudit(ctx, AuditEvent{
		Kind: AuditAcquired, LockName: name, Resources: canonical,
		Attempts: attempts, WaitTime: waited,
	})

	extCtx, cancelExt := context.WithCancel(ctx)
	var localWG sync.WaitGroup
	localWG.Add(1)
	l.extWG.Add(1)
	go func() {
		defer localWG.Done()
		defer l.extWG.Done()
		l.runExtension(extCtx, keys, token, name, canonical)
	}()

	// If body panics, stop the extension goroutine and drop the lease before
	// the panic propagates past Lock.
	bodyReturned := false
	defer func() {
		if !bodyReturned {
			cancelExt()
			localWG.Wait()
			releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer releaseCancel()
			_ = l.client.Release(releaseCtx, keys, token)
		}
	}()

	start := time.Now()
	result, bodyErr := runWithFrame(ctx, canonical, body)
	bodyReturned = true
	l.metrics.Timing(MetricLockDuration, time.Since(start), "lock_name", name)

	// The extension goroutine is guaranteed stopped before Release runs: no
	// extension callback can fire after cancelExt returns and localWG drains.
	cancelExt()
	localWG.Wait()

	releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer releaseCancel()
	if releaseErr := l.client.Release(releaseCtx, keys, token); releaseErr != nil {
		l.logger.Warn("failed to release lease", "lock_name", name, "resources", canonical, "error", releaseErr)
	} else {
		l.recordAudit(ctx, AuditEvent{Kind: AuditReleased, LockName: name, Resources: canonical})
	}

	return result, bodyErr
}

// LockIf delegates to Lock when condition is true; otherwise it runs body
// directly with no frame established, letting call sites make locking
// conditional without duplication.
func (l *Locker) LockIf(ctx context.Context, condition bool, name string, resources []string, body func(context.Context) (interface{}, error)) (interface{}, error) {
	if !condition {
		return body(ctx)
	}
	return l.Lock(ctx, name, resources, body)
}

// acquireWithRetry runs the bounded, backed-off acquisition loop. attempts
// counts total tries made (always >= 1); waited is the cumulative sleep
// time across all attempts.
func (l *Locker) acquireWithRetry(ctx context.Context, keys []string, canonical string) (token string, attempts int, waited time.Duration, err error) {
	retry := l.config.Retry

	for {
		if err := ctx.Err(); err != nil {
			return "", attempts, waited, err
		}

		attempts++
		tok, genErr := newLeaseToken()
		if genErr != nil {
			return "", attempts, waited, genErr
		}

		ok, acqErr := l.client.TryAcquire(ctx, keys, tok, l.config.Duration)
		if acqErr == nil && ok {
			return tok, attempts, waited, nil
		}

		if attempts > retry.MaxAttempts || !retry.BudgetRemaining(waited) {
			return "", attempts, waited, &AcquisitionTimeoutError{
				Resources:     canonical,
				Attempts:      attempts,
				TotalWaitTime: waited,
			}
		}

		delay := retry.ComputeDelay(attempts - 1)
		delay = retry.capDelay(delay, waited)
		l.logger.Debug("lock unavailable, retrying", "resources", canonical, "attempt", attempts, "delay", delay)

		select {
		case <-ctx.Done():
			return "", attempts, waited, ctx.Err()
		case <-time.After(delay):
		}
		waited += delay
	}
}

// runExtension periodically refreshes the lease until ctx is cancelled or
// the lease is lost. It never returns an error to the caller; all failures
// are logged and (when the lease is confirmably lost) audited.
func (l *Locker) runExtension(ctx context.Context, keys []string, token, name, canonical string) {
	interval := l.config.extensionInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			extendCtx, cancel := context.WithTimeout(context.Background(), interval)
			err := l.client.Extend(extendCtx, keys, token, l.config.Duration)
			cancel()

			if err == nil {
				l.metrics.Increment(MetricLockExtended, "lock_name", name)
				l.recordAudit(context.Background(), AuditEvent{Kind: AuditExtended, LockName: name, Resources: canonical})
				continue
			}

			if err == ErrLeaseLost {
				l.logger.Warn("lease lost during automatic extension", "lock_name", name, "resources", canonical)
				l.metrics.Increment(MetricLockExtendFailed, "lock_name", name)
				l.recordAudit(context.Background(), AuditEvent{Kind: AuditExtensionLost, LockName: name, Resources: canonical})
				return
			}

			l.logger.Warn("failed to extend lease", "lock_name", name, "resources", canonical, "error", err)
		}
	}
}

func (l *Locker) recordAudit(ctx context.Context, event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := l.audit.Record(ctx, event); err != nil {
		l.logger.Warn("failed to record audit event", "kind", event.Kind, "lock_name", event.LockName, "error", err)
	}
}

// Quit stops accepting new Lock calls, waits for every outstanding
// extension goroutine to finish, closes the audit sink, and — only if the
// Locker was constructed with WithOwnedClient — closes the underlying
// redis.Client.
func (l *Locker) Quit(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.extWG.Wait()

	if err := l.audit.Close(); err != nil {
		l.logger.Warn("failed to close audit sink", "error", err)
	}

	if l.ownsClient && l.raw != nil {
		return l.raw.Close()
	}
	return nil
}
