package retry

import (
	"context"
	"errors"
	"fmt"
)

// Operation is a zero-argument unit of work. The context is the only input;
// the operation reports its outcome as a value or an error. Operations must
// be safe to invoke repeatedly: the executor performs no memoization or
// deduplication, so the caller is responsible for idempotence of side
// effects.
type Operation[T any] func(ctx context.Context) (T, error)

// ConfigError reports an invalid executor configuration. It is returned
// before the operation is invoked, and is distinct from any error the
// operation itself produces.
type ConfigError struct {
	Field string
	Value any
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("retry: invalid %s %v: %s", e.Field, e.Value, e.Msg)
}

// OnAttempt observes one settled attempt. attempt is 0-based; err is nil on
// success. Hooks run synchronously between attempts; time spent in a hook
// delays the next attempt.
type OnAttempt func(attempt int, err error)

type settings struct {
	aggregate bool
	onAttempt OnAttempt
}

// Option adjusts executor behavior for a single execution.
type Option func(*settings)

// WithAggregateErrors reports every attempt's error on exhaustion, joined
// in attempt order, instead of the default last-error-only policy. The last
// attempt's error remains reachable through errors.Is and errors.As.
func WithAggregateErrors() Option {
	return func(s *settings) { s.aggregate = true }
}

// WithOnAttempt registers a hook invoked after each attempt settles.
func WithOnAttempt(fn OnAttempt) Option {
	return func(s *settings) { s.onAttempt = fn }
}

// Execute invokes op up to maxAttempts times, strictly sequentially, and
// returns the first successful value. Attempts are issued back to back; the
// first success ends the execution immediately, however many attempts
// remain. When all attempts fail, the error from the last attempt is
// returned and earlier errors are discarded (see WithAggregateErrors).
//
// maxAttempts must be at least 1; 1 means run once with no retries. Any
// failure is eligible for retry: the executor does not inspect error kinds.
func Execute[T any](ctx context.Context, op Operation[T], maxAttempts int, opts ...Option) (T, error) {
	var zero T

	if op == nil {
		return zero, &ConfigError{Field: "operation", Value: nil, Msg: "must not be nil"}
	}
	if maxAttempts < 1 {
		return zero, &ConfigError{Field: "maxAttempts", Value: maxAttempts, Msg: "must be at least 1"}
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	var lastErr error
	var attemptErrs []error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, errors.Join(ctx.Err(), lastErr)
			default:
			}
		}

		v, err := op(ctx)
		if s.onAttempt != nil {
			s.onAttempt(attempt, err)
		}
		if err == nil {
			return v, nil
		}

		lastErr = err
		if s.aggregate {
			attemptErrs = append(attemptErrs, err)
		}
	}

	if s.aggregate && len(attemptErrs) > 1 {
		return zero, errors.Join(attemptErrs...)
	}
	return zero, lastErr
}

// Do runs an error-only operation with bounded retry. It follows the exact
// semantics of Execute.
func Do(ctx context.Context, op func(ctx context.Context) error, maxAttempts int, opts ...Option) error {
	if op == nil {
		return &ConfigError{Field: "operation", Value: nil, Msg: "must not be nil"}
	}
	_, err := Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, maxAttempts, opts...)
	return err
}
