package core

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

var (
	queuePattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9\-\.]*$`)
	statusPattern = regexp.MustCompile(`^[1-5]xx$`)
)

var validHTTPMethods = map[string]bool{
	"GET": true, "HEAD": true, "POST": true, "PUT": true,
	"PATCH": true, "DELETE": true, "OPTIONS": true,
}

// ValidateSubmitRequest validates a submission before an execution is built.
// Policy violations (max_attempts < 1) are reported as config_error so they
// fail before the operation is ever invoked.
func ValidateSubmitRequest(req *SubmitRequest) *ExecError {
	if req.Operation == nil {
		return NewInvalidRequestError("The 'operation' field is required.", map[string]any{
			"field":      "operation",
			"validation": "required",
		})
	}

	if err := validateOperation(req.Operation); err != nil {
		return err
	}

	if req.HasID && !IsValidUUIDv7(req.ID) {
		return NewInvalidRequestError(
			fmt.Sprintf("The 'id' field must be a valid UUIDv7. Got: %q", req.ID),
			map[string]any{
				"field":    "id",
				"expected": "UUIDv7",
				"received": req.ID,
			},
		)
	}

	if req.Options != nil {
		if err := validateOptions(req.Options); err != nil {
			return err
		}
	}

	return nil
}

func validateOperation(op *OperationSpec) *ExecError {
	switch op.Kind {
	case OpHTTPRequest:
		if op.HTTP == nil {
			return NewInvalidRequestError("The 'operation.http' field is required for kind 'http.request'.", map[string]any{
				"field":      "operation.http",
				"validation": "required",
			})
		}
		u, err := url.Parse(op.HTTP.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return NewInvalidRequestError(
				fmt.Sprintf("The 'operation.http.url' field must be an absolute http(s) URL. Got: %q", op.HTTP.URL),
				map[string]any{
					"field":    "operation.http.url",
					"received": op.HTTP.URL,
				},
			)
		}
		if op.HTTP.Method != "" && !validHTTPMethods[op.HTTP.Method] {
			return NewInvalidRequestError(
				fmt.Sprintf("The 'operation.http.method' field must be a standard HTTP method. Got: %q", op.HTTP.Method),
				map[string]any{
					"field":    "operation.http.method",
					"received": op.HTTP.Method,
				},
			)
		}
		if op.HTTP.ExpectStatus != "" && !statusPattern.MatchString(op.HTTP.ExpectStatus) {
			return NewInvalidRequestError(
				fmt.Sprintf("The 'operation.http.expect_status' field must be a status class like '2xx'. Got: %q", op.HTTP.ExpectStatus),
				map[string]any{
					"field":    "operation.http.expect_status",
					"expected": "1xx-5xx",
					"received": op.HTTP.ExpectStatus,
				},
			)
		}
	case OpBuiltinEcho, OpBuiltinFail:
		// No required fields.
	case OpBuiltinFlaky:
		if op.SucceedAfter < 1 {
			return NewInvalidRequestError(
				fmt.Sprintf("The 'operation.succeed_after' field must be at least 1. Got: %d", op.SucceedAfter),
				map[string]any{
					"field":    "operation.succeed_after",
					"expected": ">= 1",
					"received": op.SucceedAfter,
				},
			)
		}
	case "":
		return NewInvalidRequestError("The 'operation.kind' field is required.", map[string]any{
			"field":      "operation.kind",
			"validation": "required",
		})
	default:
		return NewInvalidRequestError(
			fmt.Sprintf("Unknown operation kind: %q", op.Kind),
			map[string]any{
				"field":    "operation.kind",
				"expected": []string{OpHTTPRequest, OpBuiltinEcho, OpBuiltinFail, OpBuiltinFlaky},
				"received": op.Kind,
			},
		)
	}

	return nil
}

func validateOptions(opts *SubmitOptions) *ExecError {
	if opts.Queue != "" && !queuePattern.MatchString(opts.Queue) {
		return NewInvalidRequestError(
			fmt.Sprintf("The 'queue' field must match pattern '^[a-z0-9][a-z0-9\\-\\.]*$'. Got: %q", opts.Queue),
			map[string]any{
				"field":    "queue",
				"expected": "^[a-z0-9][a-z0-9\\-\\.]*$",
				"received": opts.Queue,
			},
		)
	}

	if opts.TimeoutMs != nil && *opts.TimeoutMs < 1 {
		return NewInvalidRequestError(
			fmt.Sprintf("The 'timeout_ms' field must be positive. Got: %d", *opts.TimeoutMs),
			map[string]any{
				"field":    "timeout_ms",
				"expected": ">= 1",
				"received": *opts.TimeoutMs,
			},
		)
	}

	if opts.ScheduledAt != "" {
		if _, err := time.Parse(time.RFC3339, opts.ScheduledAt); err != nil {
			return NewInvalidRequestError(
				fmt.Sprintf("The 'scheduled_at' field must be an RFC 3339 timestamp. Got: %q", opts.ScheduledAt),
				map[string]any{
					"field":    "scheduled_at",
					"received": opts.ScheduledAt,
				},
			)
		}
	}

	if opts.Retry != nil {
		if err := ValidateRetryPolicy(opts.Retry); err != nil {
			return err
		}
	}

	return nil
}

// ValidateRetryPolicy checks a policy's domain before any attempt runs.
func ValidateRetryPolicy(r *RetryPolicy) *ExecError {
	if r.MaxAttempts < 1 {
		return NewConfigError(
			fmt.Sprintf("The 'retry.max_attempts' field must be at least 1. Got: %d", r.MaxAttempts),
			map[string]any{
				"field":    "retry.max_attempts",
				"expected": ">= 1",
				"received": r.MaxAttempts,
			},
		)
	}

	if r.BackoffCoefficient != 0 && r.BackoffCoefficient < 1.0 {
		return NewConfigError(
			fmt.Sprintf("The 'retry.backoff_coefficient' field must be >= 1.0. Got: %f", r.BackoffCoefficient),
			map[string]any{
				"field":    "retry.backoff_coefficient",
				"expected": ">= 1.0",
				"received": r.BackoffCoefficient,
			},
		)
	}

	if r.BackoffType != "" && r.BackoffType != BackoffExponential &&
		r.BackoffType != BackoffLinear && r.BackoffType != BackoffConstant {
		return NewConfigError(
			fmt.Sprintf("The 'retry.backoff_type' field must be exponential, linear, or constant. Got: %q", r.BackoffType),
			map[string]any{
				"field":    "retry.backoff_type",
				"received": r.BackoffType,
			},
		)
	}

	if r.InitialInterval != "" {
		if _, err := ParseISO8601Duration(r.InitialInterval); err != nil {
			return NewConfigError(
				fmt.Sprintf("The 'retry.initial_interval' field must be a valid ISO 8601 duration. Got: %q", r.InitialInterval),
				map[string]any{
					"field":    "retry.initial_interval",
					"expected": "ISO 8601 duration (e.g., PT1S, PT5M)",
					"received": r.InitialInterval,
				},
			)
		}
	}

	if r.MaxInterval != "" {
		if _, err := ParseISO8601Duration(r.MaxInterval); err != nil {
			return NewConfigError(
				fmt.Sprintf("The 'retry.max_interval' field must be a valid ISO 8601 duration. Got: %q", r.MaxInterval),
				map[string]any{
					"field":    "retry.max_interval",
					"expected": "ISO 8601 duration (e.g., PT5M)",
					"received": r.MaxInterval,
				},
			)
		}
	}

	return nil
}

// ValidateScheduleRequest validates a recurring schedule definition. The
// cron expression itself is validated where the cron parser lives.
func ValidateScheduleRequest(req *ScheduleRequest) *ExecError {
	if req.Name == "" {
		return NewInvalidRequestError("The 'name' field is required.", map[string]any{
			"field":      "name",
			"validation": "required",
		})
	}
	if !queuePattern.MatchString(req.Name) {
		return NewInvalidRequestError(
			fmt.Sprintf("The 'name' field must match pattern '^[a-z0-9][a-z0-9\\-\\.]*$'. Got: %q", req.Name),
			map[string]any{
				"field":    "name",
				"received": req.Name,
			},
		)
	}
	if req.Cron == "" {
		return NewInvalidRequestError("The 'cron' field is required.", map[string]any{
			"field":      "cron",
			"validation": "required",
		})
	}
	if req.Operation == nil {
		return NewInvalidRequestError("The 'operation' field is required.", map[string]any{
			"field":      "operation",
			"validation": "required",
		})
	}
	if err := validateOperation(req.Operation); err != nil {
		return err
	}
	if req.Options != nil {
		if err := validateOptions(req.Options); err != nil {
			return err
		}
	}
	return nil
}
