package core

import (
	"math"
	"math/rand"
	"time"
)

// Backoff strategies for the delay between attempts.
const (
	BackoffExponential = "exponential"
	BackoffLinear      = "linear"
	BackoffConstant    = "constant"
)

// RetryPolicy bounds one execution. MaxAttempts is the total number of
// invocations (the initial call plus up to MaxAttempts-1 retries) and is
// fixed for the lifetime of one execution. The remaining fields shape the
// optional pause between attempts; when InitialInterval is empty the runner
// issues attempts back to back.
type RetryPolicy struct {
	MaxAttempts        int     `json:"max_attempts"`
	InitialInterval    string  `json:"initial_interval,omitempty"`
	BackoffCoefficient float64 `json:"backoff_coefficient,omitempty"`
	MaxInterval        string  `json:"max_interval,omitempty"`
	Jitter             bool    `json:"jitter,omitempty"`
	BackoffType        string  `json:"backoff_type,omitempty"`

	// AggregateErrors opts into reporting every attempt's error on
	// exhaustion. Default is last-error-only.
	AggregateErrors bool `json:"aggregate_errors,omitempty"`
}

// DefaultRetryPolicy returns the policy applied when a submission carries none.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
	}
}

// HasDelay reports whether the policy asks for a pause between attempts.
func (p *RetryPolicy) HasDelay() bool {
	return p != nil && p.InitialInterval != ""
}

// Delay computes the pause before retry number attempt (1-based). Policies
// without an initial interval always return zero.
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	if !p.HasDelay() {
		return 0
	}

	initialInterval, err := ParseISO8601Duration(p.InitialInterval)
	if err != nil {
		return 0
	}

	coefficient := p.BackoffCoefficient
	if coefficient <= 0 {
		coefficient = 2.0 // default exponential
	}

	backoffType := p.BackoffType
	if backoffType == "" {
		backoffType = BackoffExponential
	}

	var delay float64
	switch backoffType {
	case BackoffLinear:
		delay = float64(initialInterval) * float64(attempt)
	case BackoffConstant:
		delay = float64(initialInterval)
	default:
		delay = float64(initialInterval) * math.Pow(coefficient, float64(attempt-1))
	}

	if p.MaxInterval != "" {
		if maxInterval, err := ParseISO8601Duration(p.MaxInterval); err == nil {
			if delay > float64(maxInterval) {
				delay = float64(maxInterval)
			}
		}
	}

	result := time.Duration(delay)

	// Jitter spreads retries across 0.5x to 1.5x of the computed delay.
	if p.Jitter {
		jitterFactor := 0.5 + rand.Float64()
		result = time.Duration(float64(result) * jitterFactor)
	}

	return result
}
