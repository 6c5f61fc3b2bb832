package api

import (
	"net/http"

	"github.com/retryexec/retryexec/internal/core"
)

// SystemHandler handles health and introspection endpoints.
type SystemHandler struct {
	backend core.Backend
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(backend core.Backend) *SystemHandler {
	return &SystemHandler{backend: backend}
}

// Health handles GET /v1/health. A degraded backend still returns a body,
// with a 503 status.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp, err := h.backend.Health(r.Context())
	if err != nil {
		if resp != nil {
			WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		WriteError(w, http.StatusServiceUnavailable, core.NewInternalError(err.Error()))
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}
