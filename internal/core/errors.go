package core

import "fmt"

// Error codes used in retryexec error responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeValidationError = "validation_error"
	ErrCodeConfigError     = "config_error"
	ErrCodeNotFound        = "not_found"
	ErrCodeConflict        = "conflict"
	ErrCodeInternalError   = "internal_error"
	ErrCodeQueuePaused     = "queue_paused"
)

// ExecError is a structured service error with a machine-readable code.
type ExecError struct {
	Code      string         `json:"code,omitempty"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewInvalidRequestError(message string, details map[string]any) *ExecError {
	return &ExecError{
		Code:      ErrCodeInvalidRequest,
		Message:   message,
		Retryable: false,
		Details:   details,
	}
}

// NewConfigError marks a retry-policy domain violation, surfaced before any
// attempt runs. Distinct from invalid_request so callers can tell a malformed
// envelope from an out-of-domain policy.
func NewConfigError(message string, details map[string]any) *ExecError {
	return &ExecError{
		Code:      ErrCodeConfigError,
		Message:   message,
		Retryable: false,
		Details:   details,
	}
}

func NewNotFoundError(resourceType, resourceID string) *ExecError {
	return &ExecError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s '%s' not found.", resourceType, resourceID),
		Retryable: false,
		Details: map[string]any{
			"resource_type": resourceType,
			"resource_id":   resourceID,
		},
	}
}

func NewConflictError(message string, details map[string]any) *ExecError {
	return &ExecError{
		Code:      ErrCodeConflict,
		Message:   message,
		Retryable: false,
		Details:   details,
	}
}

func NewValidationError(message string, details map[string]any) *ExecError {
	return &ExecError{
		Code:      ErrCodeValidationError,
		Message:   message,
		Retryable: false,
		Details:   details,
	}
}

func NewInternalError(message string) *ExecError {
	return &ExecError{
		Code:      ErrCodeInternalError,
		Message:   message,
		Retryable: true,
	}
}
