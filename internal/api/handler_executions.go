package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/retryexec/retryexec/internal/core"
	"github.com/retryexec/retryexec/internal/metrics"
)

// ExecutionHandler handles execution-related HTTP endpoints.
type ExecutionHandler struct {
	backend core.Backend
}

// NewExecutionHandler creates a new ExecutionHandler.
func NewExecutionHandler(backend core.Backend) *ExecutionHandler {
	return &ExecutionHandler{backend: backend}
}

// Create handles POST /v1/executions
func (h *ExecutionHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, core.NewInvalidRequestError("Failed to read request body.", nil))
		return
	}

	req, err := core.ParseSubmitRequest(body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, core.NewInvalidRequestError("Invalid JSON in request body.", nil))
		return
	}

	if execErr := core.ValidateSubmitRequest(req); execErr != nil {
		HandleError(w, execErr)
		return
	}

	exec := requestToExecution(req)

	created, err := h.backend.Submit(r.Context(), exec)
	if err != nil {
		HandleError(w, err)
		return
	}

	metrics.ExecutionsSubmitted.WithLabelValues(created.Queue, created.Operation.Kind).Inc()

	w.Header().Set("Location", "/v1/executions/"+created.ID)
	status := http.StatusCreated
	if created.State == core.StateScheduled {
		status = http.StatusAccepted
	}
	WriteJSON(w, status, map[string]any{"execution": created})
}

// Get handles GET /v1/executions/{id}
func (h *ExecutionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	exec, err := h.backend.Info(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"execution": exec})
}

// List handles GET /v1/executions
func (h *ExecutionHandler) List(w http.ResponseWriter, r *http.Request) {
	stateFilter := r.URL.Query().Get("state")
	if stateFilter == "" {
		stateFilter = core.StateQueued
	}
	if !core.IsValidState(stateFilter) {
		WriteError(w, http.StatusBadRequest, core.NewInvalidRequestError(
			"Unknown execution state.",
			map[string]any{"state": stateFilter},
		))
		return
	}

	queue := r.URL.Query().Get("queue")

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	execs, total, err := h.backend.List(r.Context(), stateFilter, queue, limit, offset)
	if err != nil {
		HandleError(w, err)
		return
	}

	if execs == nil {
		execs = []*core.Execution{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"executions": execs,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}

// Cancel handles DELETE /v1/executions/{id}
func (h *ExecutionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	exec, err := h.backend.Cancel(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	metrics.ExecutionsCancelled.WithLabelValues(exec.Queue, exec.Operation.Kind).Inc()
	WriteJSON(w, http.StatusOK, map[string]any{"execution": exec})
}

// Rerun handles POST /v1/executions/{id}/rerun
func (h *ExecutionHandler) Rerun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	exec, err := h.backend.Rerun(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	metrics.ExecutionsSubmitted.WithLabelValues(exec.Queue, exec.Operation.Kind).Inc()
	WriteJSON(w, http.StatusOK, map[string]any{"execution": exec})
}

func requestToExecution(req *core.SubmitRequest) *core.Execution {
	exec := &core.Execution{
		Operation: *req.Operation,
	}
	if req.HasID {
		exec.ID = req.ID
	}
	if req.Options != nil {
		exec.Queue = req.Options.Queue
		exec.Retry = req.Options.Retry
		exec.TimeoutMs = req.Options.TimeoutMs
		exec.ScheduledAt = req.Options.ScheduledAt
		exec.Tags = req.Options.Tags
	}
	return exec
}
