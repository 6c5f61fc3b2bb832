// Package retry provides bounded retry of operations: an operation is
// invoked up to a fixed number of attempts, strictly sequentially, and the
// first success ends the execution. When every attempt fails, only the last
// attempt's error is surfaced; earlier failures are discarded unless the
// caller opts into aggregate reporting.
//
// # Core functions
//
//   - Execute: run an Operation[T] with a maximum attempt count
//   - Do: result-free form for operations that only return an error
//
// # Usage
//
// Run once plus up to two retries:
//
//	val, err := retry.Execute(ctx, fetchUser, 3)
//
// A maxAttempts of 1 is a no-retry passthrough: one invocation, and on
// failure that single error is returned. A maxAttempts below 1 is a
// configuration error, reported before the operation is ever invoked.
//
// # Synchronous and asynchronous operations
//
// An Operation is any func(ctx) (T, error). Whether the work completes
// inline or waits on I/O, a channel, or a downstream call is invisible to
// the retry loop: it always observes the settled outcome before deciding
// to retry, and never branches on how the outcome was produced.
//
// # Composition
//
// The loop itself applies no delay between attempts and cannot abort an
// attempt in flight; an operation that never settles starves the execution.
// Both concerns compose as operation wrappers:
//
//	op = retry.WithAttemptTimeout(op, 2*time.Second)
//	op = retry.WithDelay(op, func(attempt int) time.Duration {
//	    return time.Duration(attempt) * 100 * time.Millisecond
//	})
//	val, err := retry.Execute(ctx, op, 5)
//
// A wrapped operation carries per-execution state and must not be shared
// between concurrent executions; build a fresh one per call to Execute.
//
// # Context cancellation
//
// A cancelled context stops the loop between attempts (never before the
// first). The returned error then carries both the context error and the
// most recent attempt error, each reachable through errors.Is.
package retry
