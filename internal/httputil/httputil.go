// Package httputil provides JSON response helpers shared by the HTTP handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/retryexec/retryexec/internal/core"
)

// ErrorResponse wraps a service error for JSON serialization.
type ErrorResponse struct {
	Error *core.ExecError `json:"error"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes a structured error response.
func WriteError(w http.ResponseWriter, status int, err *core.ExecError) {
	WriteJSON(w, status, ErrorResponse{Error: err})
}

// StatusForCode maps a service error code to an HTTP status.
func StatusForCode(code string) int {
	switch code {
	case core.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case core.ErrCodeValidationError, core.ErrCodeConfigError:
		return http.StatusUnprocessableEntity
	case core.ErrCodeNotFound:
		return http.StatusNotFound
	case core.ErrCodeConflict:
		return http.StatusConflict
	case core.ErrCodeQueuePaused:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HandleError maps any error to an HTTP response. Unrecognized errors become
// opaque internal errors.
func HandleError(w http.ResponseWriter, err error) {
	if execErr, ok := err.(*core.ExecError); ok {
		WriteError(w, StatusForCode(execErr.Code), execErr)
		return
	}
	WriteError(w, http.StatusInternalServerError, core.NewInternalError(err.Error()))
}
