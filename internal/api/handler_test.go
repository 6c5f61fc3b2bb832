package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/retryexec/retryexec/internal/core"
)

// backendMock implements core.Backend for handler tests.
type backendMock struct {
	executions map[string]*core.Execution
	schedules  map[string]*core.Schedule
	submitErr  error
}

func newBackendMock() *backendMock {
	return &backendMock{
		executions: make(map[string]*core.Execution),
		schedules:  make(map[string]*core.Schedule),
	}
}

func (m *backendMock) Submit(ctx context.Context, exec *core.Execution) (*core.Execution, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	if exec.ID == "" {
		exec.ID = core.NewUUIDv7()
	}
	if exec.Queue == "" {
		exec.Queue = "default"
	}
	if exec.ScheduledAt != "" {
		exec.State = core.StateScheduled
	} else {
		exec.State = core.StateQueued
	}
	m.executions[exec.ID] = exec
	return exec, nil
}

func (m *backendMock) Info(ctx context.Context, id string) (*core.Execution, error) {
	exec, ok := m.executions[id]
	if !ok {
		return nil, core.NewNotFoundError("Execution", id)
	}
	return exec, nil
}

func (m *backendMock) List(ctx context.Context, state, queue string, limit, offset int) ([]*core.Execution, int, error) {
	var out []*core.Execution
	for _, e := range m.executions {
		if e.State == state && (queue == "" || e.Queue == queue) {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (m *backendMock) Cancel(ctx context.Context, id string) (*core.Execution, error) {
	exec, ok := m.executions[id]
	if !ok {
		return nil, core.NewNotFoundError("Execution", id)
	}
	if core.IsTerminalState(exec.State) {
		return nil, core.NewConflictError("Cannot cancel execution in terminal state.", nil)
	}
	exec.State = core.StateCancelled
	return exec, nil
}

func (m *backendMock) Rerun(ctx context.Context, id string) (*core.Execution, error) {
	exec, ok := m.executions[id]
	if !ok {
		return nil, core.NewNotFoundError("Execution", id)
	}
	if !core.IsTerminalState(exec.State) {
		return nil, core.NewConflictError("Cannot rerun execution in non-terminal state.", nil)
	}
	clone := &core.Execution{
		ID:        core.NewUUIDv7(),
		State:     core.StateQueued,
		Queue:     exec.Queue,
		Operation: exec.Operation,
	}
	m.executions[clone.ID] = clone
	return clone, nil
}

func (m *backendMock) RegisterSchedule(ctx context.Context, req *core.ScheduleRequest) (*core.Schedule, error) {
	sched := &core.Schedule{
		Name:      req.Name,
		Cron:      req.Cron,
		Operation: *req.Operation,
		Queue:     "default",
	}
	m.schedules[req.Name] = sched
	return sched, nil
}

func (m *backendMock) ListSchedules(ctx context.Context) ([]*core.Schedule, error) {
	var out []*core.Schedule
	for _, s := range m.schedules {
		out = append(out, s)
	}
	return out, nil
}

func (m *backendMock) DeleteSchedule(ctx context.Context, name string) (*core.Schedule, error) {
	sched, ok := m.schedules[name]
	if !ok {
		return nil, core.NewNotFoundError("Schedule", name)
	}
	delete(m.schedules, name)
	return sched, nil
}

func (m *backendMock) ListQueues(ctx context.Context) ([]core.QueueInfo, error) {
	return []core.QueueInfo{{Name: "default", Status: "active"}}, nil
}

func (m *backendMock) QueueStats(ctx context.Context, name string) (*core.QueueStats, error) {
	return &core.QueueStats{Queue: name, Status: "active"}, nil
}

func (m *backendMock) PauseQueue(ctx context.Context, name string) error  { return nil }
func (m *backendMock) ResumeQueue(ctx context.Context, name string) error { return nil }

func (m *backendMock) Health(ctx context.Context) (*core.HealthResponse, error) {
	return &core.HealthResponse{Status: "ok", Version: core.Version}, nil
}

func (m *backendMock) Close() error { return nil }

func testRouter(backend core.Backend) http.Handler {
	r := chi.NewRouter()
	execs := NewExecutionHandler(backend)
	scheds := NewScheduleHandler(backend)
	queues := NewQueueHandler(backend)
	system := NewSystemHandler(backend)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/executions", execs.Create)
		r.Get("/executions", execs.List)
		r.Get("/executions/{id}", execs.Get)
		r.Delete("/executions/{id}", execs.Cancel)
		r.Post("/executions/{id}/rerun", execs.Rerun)

		r.Post("/schedules", scheds.Create)
		r.Get("/schedules", scheds.List)
		r.Delete("/schedules/{name}", scheds.Delete)

		r.Get("/queues", queues.List)
		r.Get("/queues/{name}", queues.Stats)
		r.Post("/queues/{name}/pause", queues.Pause)
		r.Post("/queues/{name}/resume", queues.Resume)

		r.Get("/health", system.Health)
	})
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeExecution(t *testing.T, rec *httptest.ResponseRecorder) *core.Execution {
	t.Helper()
	var resp struct {
		Execution *core.Execution `json:"execution"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Execution
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *core.ExecError {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error
}

func TestCreateExecution(t *testing.T) {
	router := testRouter(newBackendMock())

	rec := doRequest(t, router, http.MethodPost, "/v1/executions",
		`{"operation": {"kind": "builtin.echo", "echo": {"msg": "hi"}}}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	exec := decodeExecution(t, rec)
	if exec.State != core.StateQueued {
		t.Errorf("expected queued, got %s", exec.State)
	}
	if exec.Queue != "default" {
		t.Errorf("expected default queue, got %s", exec.Queue)
	}
	if loc := rec.Header().Get("Location"); loc != "/v1/executions/"+exec.ID {
		t.Errorf("unexpected Location header: %s", loc)
	}
}

func TestCreateExecution_Scheduled(t *testing.T) {
	router := testRouter(newBackendMock())

	rec := doRequest(t, router, http.MethodPost, "/v1/executions",
		`{"operation": {"kind": "builtin.echo"}, "options": {"scheduled_at": "2099-01-01T00:00:00Z"}}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	exec := decodeExecution(t, rec)
	if exec.State != core.StateScheduled {
		t.Errorf("expected scheduled, got %s", exec.State)
	}
}

func TestCreateExecution_InvalidJSON(t *testing.T) {
	router := testRouter(newBackendMock())

	rec := doRequest(t, router, http.MethodPost, "/v1/executions", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateExecution_MissingOperation(t *testing.T) {
	router := testRouter(newBackendMock())

	rec := doRequest(t, router, http.MethodPost, "/v1/executions", `{"options": {}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if execErr := decodeError(t, rec); execErr.Code != core.ErrCodeInvalidRequest {
		t.Errorf("expected invalid_request, got %s", execErr.Code)
	}
}

func TestCreateExecution_BadMaxAttempts(t *testing.T) {
	router := testRouter(newBackendMock())

	rec := doRequest(t, router, http.MethodPost, "/v1/executions",
		`{"operation": {"kind": "builtin.echo"}, "options": {"retry": {"max_attempts": 0}}}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	if execErr := decodeError(t, rec); execErr.Code != core.ErrCodeConfigError {
		t.Errorf("expected config_error, got %s", execErr.Code)
	}
}

func TestGetExecution_NotFound(t *testing.T) {
	router := testRouter(newBackendMock())

	rec := doRequest(t, router, http.MethodGet, "/v1/executions/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListExecutions_UnknownState(t *testing.T) {
	router := testRouter(newBackendMock())

	rec := doRequest(t, router, http.MethodGet, "/v1/executions?state=nope", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListExecutions_Defaults(t *testing.T) {
	backend := newBackendMock()
	backend.executions["a"] = &core.Execution{ID: "a", State: core.StateQueued, Queue: "default"}
	backend.executions["b"] = &core.Execution{ID: "b", State: core.StateFailed, Queue: "default"}
	router := testRouter(backend)

	rec := doRequest(t, router, http.MethodGet, "/v1/executions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Executions []*core.Execution `json:"executions"`
		Total      int               `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || len(resp.Executions) != 1 {
		t.Errorf("expected only queued executions, got %+v", resp)
	}
}

func TestCancelExecution_Conflict(t *testing.T) {
	backend := newBackendMock()
	backend.executions["done"] = &core.Execution{ID: "done", State: core.StateSucceeded, Queue: "default"}
	router := testRouter(backend)

	rec := doRequest(t, router, http.MethodDelete, "/v1/executions/done", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestRerunExecution(t *testing.T) {
	backend := newBackendMock()
	backend.executions["failed"] = &core.Execution{ID: "failed", State: core.StateFailed, Queue: "default", Attempt: 3}
	router := testRouter(backend)

	rec := doRequest(t, router, http.MethodPost, "/v1/executions/failed/rerun", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	exec := decodeExecution(t, rec)
	if exec.State != core.StateQueued || exec.Attempt != 0 {
		t.Errorf("expected fresh queued execution, got %+v", exec)
	}
	if exec.ID == "failed" {
		t.Error("rerun reused the original execution ID")
	}
	if backend.executions["failed"].State != core.StateFailed {
		t.Error("rerun overwrote the original terminal execution")
	}
}

func TestCreateSchedule(t *testing.T) {
	router := testRouter(newBackendMock())

	rec := doRequest(t, router, http.MethodPost, "/v1/schedules",
		`{"name": "hourly", "cron": "@hourly", "operation": {"kind": "builtin.echo"}}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateSchedule_MissingName(t *testing.T) {
	router := testRouter(newBackendMock())

	rec := doRequest(t, router, http.MethodPost, "/v1/schedules",
		`{"cron": "@hourly", "operation": {"kind": "builtin.echo"}}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteSchedule_NotFound(t *testing.T) {
	router := testRouter(newBackendMock())

	rec := doRequest(t, router, http.MethodDelete, "/v1/schedules/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestQueueEndpoints(t *testing.T) {
	router := testRouter(newBackendMock())

	rec := doRequest(t, router, http.MethodGet, "/v1/queues", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list queues: expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/queues/default", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("queue stats: expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/queues/default/pause", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("pause: expected 200, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	router := testRouter(newBackendMock())

	rec := doRequest(t, router, http.MethodGet, "/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp core.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("unexpected health status: %s", resp.Status)
	}
}
