package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/retryexec/retryexec/internal/core"
)

// ScheduleHandler handles recurring schedule endpoints.
type ScheduleHandler struct {
	backend core.Backend
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(backend core.Backend) *ScheduleHandler {
	return &ScheduleHandler{backend: backend}
}

// Create handles POST /v1/schedules
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req core.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, core.NewInvalidRequestError("Invalid JSON in request body.", nil))
		return
	}

	if execErr := core.ValidateScheduleRequest(&req); execErr != nil {
		HandleError(w, execErr)
		return
	}

	sched, err := h.backend.RegisterSchedule(r.Context(), &req)
	if err != nil {
		HandleError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/schedules/"+sched.Name)
	WriteJSON(w, http.StatusCreated, map[string]any{"schedule": sched})
}

// List handles GET /v1/schedules
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	scheds, err := h.backend.ListSchedules(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	if scheds == nil {
		scheds = []*core.Schedule{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"schedules": scheds})
}

// Delete handles DELETE /v1/schedules/{name}
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	sched, err := h.backend.DeleteSchedule(r.Context(), name)
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"schedule": sched})
}
