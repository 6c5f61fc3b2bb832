package core

import (
	"encoding/json"
	"time"
)

const (
	Version    = "0.4.0"
	TimeFormat = "2006-01-02T15:04:05.000Z"
)

// FormatTime formats a time as ISO 8601 UTC with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// NowFormatted returns the current time formatted as ISO 8601 UTC.
func NowFormatted() string {
	return FormatTime(time.Now())
}

// Operation kinds.
const (
	OpHTTPRequest  = "http.request"
	OpBuiltinEcho  = "builtin.echo"
	OpBuiltinFail  = "builtin.fail"
	OpBuiltinFlaky = "builtin.flaky"
)

// HTTPOperation describes an outbound HTTP call. The attempt succeeds when
// the response status falls in the expected class (default "2xx").
type HTTPOperation struct {
	Method       string            `json:"method,omitempty"`
	URL          string            `json:"url"`
	Headers      map[string]string `json:"headers,omitempty"`
	Body         json.RawMessage   `json:"body,omitempty"`
	ExpectStatus string            `json:"expect_status,omitempty"`
}

// OperationSpec is the serializable description of the unit of work an
// execution retries. The builtin kinds exist for smoke tests and demos:
// echo succeeds immediately with its payload, fail always fails, flaky
// fails until invocation SucceedAfter.
type OperationSpec struct {
	Kind         string          `json:"kind"`
	HTTP         *HTTPOperation  `json:"http,omitempty"`
	Echo         json.RawMessage `json:"echo,omitempty"`
	FailMessage  string          `json:"fail_message,omitempty"`
	SucceedAfter int             `json:"succeed_after,omitempty"`
}

// AttemptError records the failure of one attempt.
type AttemptError struct {
	Attempt int    `json:"attempt"`
	Message string `json:"message"`
	At      string `json:"at,omitempty"`
}

// Execution is the full envelope of one bounded-retry execution.
type Execution struct {
	ID          string         `json:"id"`
	State       string         `json:"state"`
	Queue       string         `json:"queue"`
	Operation   OperationSpec  `json:"operation"`
	Attempt     int            `json:"attempt"`
	Retry       *RetryPolicy   `json:"retry,omitempty"`
	TimeoutMs   *int           `json:"timeout_ms,omitempty"`
	CreatedAt   string         `json:"created_at"`
	EnqueuedAt  string         `json:"enqueued_at,omitempty"`
	StartedAt   string         `json:"started_at,omitempty"`
	CompletedAt string         `json:"completed_at,omitempty"`
	CancelledAt string         `json:"cancelled_at,omitempty"`
	ScheduledAt string         `json:"scheduled_at,omitempty"`

	// Result holds the success value of the winning attempt. Error holds
	// the last attempt's failure; Errors is the recorded history of every
	// failed attempt, kept for observability and never surfaced as the
	// primary error.
	Result json.RawMessage `json:"result,omitempty"`
	Error  *AttemptError   `json:"error,omitempty"`
	Errors []AttemptError  `json:"errors,omitempty"`

	Tags []string `json:"tags,omitempty"`

	// SQS receipt handle of the in-flight message, transport-private.
	ReceiptHandle string `json:"-"`
}

// MaxAttemptsOrDefault resolves the effective attempt bound.
func (e *Execution) MaxAttemptsOrDefault() int {
	if e.Retry != nil && e.Retry.MaxAttempts > 0 {
		return e.Retry.MaxAttempts
	}
	return DefaultRetryPolicy().MaxAttempts
}

// SubmitRequest is the body of POST /v1/executions.
type SubmitRequest struct {
	ID        string         `json:"id,omitempty"`
	Operation *OperationSpec `json:"operation"`
	Options   *SubmitOptions `json:"options,omitempty"`

	// HasID tracks whether "id" was explicitly present in the JSON body,
	// so an empty-string id can be rejected rather than auto-assigned.
	HasID bool `json:"-"`
}

// SubmitOptions are optional settings for a submission.
type SubmitOptions struct {
	Queue       string       `json:"queue,omitempty"`
	Retry       *RetryPolicy `json:"retry,omitempty"`
	TimeoutMs   *int         `json:"timeout_ms,omitempty"`
	ScheduledAt string       `json:"scheduled_at,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
}

// ParseSubmitRequest parses raw JSON into a SubmitRequest.
func ParseSubmitRequest(data []byte) (*SubmitRequest, error) {
	var req SubmitRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if _, hasID := raw["id"]; hasID {
		req.HasID = true
	}

	return &req, nil
}

// ScheduleRequest is the body of POST /v1/schedules.
type ScheduleRequest struct {
	Name      string         `json:"name"`
	Cron      string         `json:"cron"`
	Operation *OperationSpec `json:"operation"`
	Options   *SubmitOptions `json:"options,omitempty"`
}

// Schedule is a recurring execution definition.
type Schedule struct {
	Name      string         `json:"name"`
	Cron      string         `json:"cron"`
	Operation OperationSpec  `json:"operation"`
	Options   *SubmitOptions `json:"options,omitempty"`
	Queue     string         `json:"queue"`
	CreatedAt string         `json:"created_at"`
	NextRunAt string         `json:"next_run_at,omitempty"`
	LastRunAt string         `json:"last_run_at,omitempty"`
}
