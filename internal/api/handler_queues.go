package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/retryexec/retryexec/internal/core"
)

// QueueHandler handles queue-level endpoints.
type QueueHandler struct {
	backend core.Backend
}

// NewQueueHandler creates a new QueueHandler.
func NewQueueHandler(backend core.Backend) *QueueHandler {
	return &QueueHandler{backend: backend}
}

// List handles GET /v1/queues
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	queues, err := h.backend.ListQueues(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	if queues == nil {
		queues = []core.QueueInfo{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"queues": queues})
}

// Stats handles GET /v1/queues/{name}
func (h *QueueHandler) Stats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	stats, err := h.backend.QueueStats(r.Context(), name)
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}

// Pause handles POST /v1/queues/{name}/pause
func (h *QueueHandler) Pause(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.backend.PauseQueue(r.Context(), name); err != nil {
		HandleError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"queue": name, "status": "paused"})
}

// Resume handles POST /v1/queues/{name}/resume
func (h *QueueHandler) Resume(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.backend.ResumeQueue(r.Context(), name); err != nil {
		HandleError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"queue": name, "status": "active"})
}
