package retry

import (
	"context"
	"time"
)

// DelayFunc returns the pause to apply before retry number attempt
// (1-based: attempt 1 precedes the second invocation).
type DelayFunc func(attempt int) time.Duration

// WithDelay wraps op so that every invocation after the first is preceded
// by a pause computed from the retry number. The first invocation is never
// delayed. Context cancellation during the pause aborts the invocation
// with the context error.
//
// The wrapper counts invocations internally, so one wrapped operation
// serves exactly one execution.
func WithDelay[T any](op Operation[T], delay DelayFunc) Operation[T] {
	var calls int
	return func(ctx context.Context) (T, error) {
		calls++
		if calls > 1 {
			if d := delay(calls - 1); d > 0 {
				timer := time.NewTimer(d)
				select {
				case <-ctx.Done():
					timer.Stop()
					var zero T
					return zero, ctx.Err()
				case <-timer.C:
				}
			}
		}
		return op(ctx)
	}
}

// WithAttemptTimeout wraps op so that each invocation runs under a context
// deadline of d. An invocation that outlives the deadline fails with the
// derived context's error; the underlying call must honor its context for
// the attempt to actually stop.
func WithAttemptTimeout[T any](op Operation[T], d time.Duration) Operation[T] {
	return func(ctx context.Context) (T, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return op(attemptCtx)
	}
}
