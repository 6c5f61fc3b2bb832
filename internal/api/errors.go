package api

import (
	"net/http"

	"github.com/retryexec/retryexec/internal/core"
	"github.com/retryexec/retryexec/internal/httputil"
)

// ErrorResponse wraps a service error for JSON serialization.
type ErrorResponse = httputil.ErrorResponse

// WriteError writes a structured error response.
func WriteError(w http.ResponseWriter, status int, err *core.ExecError) {
	httputil.WriteError(w, status, err)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

// HandleError maps an error to the appropriate HTTP status and writes it.
func HandleError(w http.ResponseWriter, err error) {
	httputil.HandleError(w, err)
}
