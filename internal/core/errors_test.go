package core

import "testing"

func TestExecError_Error(t *testing.T) {
	err := &ExecError{Code: ErrCodeNotFound, Message: "Execution 'x' not found."}
	want := "[not_found] Execution 'x' not found."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *ExecError
		wantCode  string
		retryable bool
	}{
		{"invalid request", NewInvalidRequestError("bad", nil), ErrCodeInvalidRequest, false},
		{"config", NewConfigError("bad policy", nil), ErrCodeConfigError, false},
		{"not found", NewNotFoundError("Execution", "abc"), ErrCodeNotFound, false},
		{"conflict", NewConflictError("already terminal", nil), ErrCodeConflict, false},
		{"validation", NewValidationError("nope", nil), ErrCodeValidationError, false},
		{"internal", NewInternalError("boom"), ErrCodeInternalError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if tt.err.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", tt.err.Retryable, tt.retryable)
			}
		})
	}
}

func TestNewNotFoundError_Details(t *testing.T) {
	err := NewNotFoundError("Execution", "abc-123")
	if err.Details["resource_type"] != "Execution" || err.Details["resource_id"] != "abc-123" {
		t.Errorf("Details = %v, want resource_type/resource_id populated", err.Details)
	}
}
