// Package runlocker provides distributed mutual exclusion on top of Redis
// (or any Redis-compatible store): reentrant acquisition, bounded retry with
// randomized exponential backoff, and automatic lease extension for
// long-running critical sections.
//
// # Overview
//
// RunLocker gives callers a simple contract: hold an exclusive lease over a
// named set of resources for the duration of a critical section, renew the
// lease automatically while the section runs, and release it on every exit
// path. It provides:
//
//   - Reentrant acquisition from the same logical call chain
//   - Randomized exponential backoff bounded by both an attempt count and a
//     cumulative wait-time budget
//   - A typed timeout error carrying attempt/wait diagnostics
//   - Automatic background lease renewal for critical sections that outlive
//     a single TTL
//   - Optional audit trail of lease lifecycle events
//
// # Quick Start
//
//	client := redis.NewClient(runlocker.RedisOptions())
//	locker, err := runlocker.NewLocker(client)
//
//	result, err := locker.Lock(ctx, "orders", []string{"order-42"},
//	    func(ctx context.Context) (any, error) {
//	        return processOrder(ctx, "order-42")
//	    })
//	var timeoutErr *runlocker.AcquisitionTimeoutError
//	if errors.As(err, &timeoutErr) {
//	    // resource stayed contended past the retry budget
//	}
//
// Production setup with observability and an audit trail:
//
//	logger, _ := runlocker.NewProductionZapLogger()
//	metrics := runlocker.NewPrometheusMetrics(nil)
//	sink, _ := runlocker.NewFilesystemAuditSink("./audit")
//
//	locker, err := runlocker.NewLocker(client,
//	    runlocker.WithLogger(logger),
//	    runlocker.WithMetrics(metrics),
//	    runlocker.WithAuditSink(sink),
//	    runlocker.WithDuration(10*time.Second),
//	)
//
// # Core Concepts
//
// Locker: the public façade (the "Lock Coordinator"). Orchestrates the
// reentrancy check, the retry-driven acquisition loop, the auto-extension
// goroutine, and guaranteed release.
//
// RedlockClient: the single-store leasing primitive — atomic
// create-if-absent, compare-and-delete, and compare-and-extend operations
// against Redis.
//
// RetryConfig: pure backoff math — exponential delay, symmetric jitter, and
// a cumulative wait-time ceiling independent of the attempt count.
//
// Reentrancy frame: per-logical-call-chain state naming the resources
// currently held, carried on context.Context so nested Lock calls on the
// same resources bypass Redis entirely.
package runlocker
