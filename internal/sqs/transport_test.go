package sqs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/retryexec/retryexec/internal/core"
	"github.com/retryexec/retryexec/internal/state"
)

// storeMock is an in-memory state.Store for tests.
type storeMock struct {
	executions map[string]*state.ExecutionRecord
	schedules  map[string]*state.ScheduleRecord
	queues     map[string]bool // name -> paused
	succeeded  map[string]int
	dueCleared []string
}

func newStoreMock() *storeMock {
	return &storeMock{
		executions: make(map[string]*state.ExecutionRecord),
		schedules:  make(map[string]*state.ScheduleRecord),
		queues:     make(map[string]bool),
		succeeded:  make(map[string]int),
	}
}

func (m *storeMock) PutExecution(ctx context.Context, record *state.ExecutionRecord) error {
	m.executions[record.ID] = record
	return nil
}

func (m *storeMock) GetExecution(ctx context.Context, id string) (*state.ExecutionRecord, error) {
	record, ok := m.executions[id]
	if !ok {
		return nil, errors.New("execution not found")
	}
	return record, nil
}

func (m *storeMock) UpdateExecutionState(ctx context.Context, id, newState string, updates map[string]any) error {
	record, ok := m.executions[id]
	if !ok {
		return errors.New("execution not found")
	}
	if core.IsTerminalState(record.State) {
		return errors.New("conditional check failed: terminal state")
	}
	record.State = newState
	for key, value := range updates {
		switch key {
		case "cancelled_at":
			record.CancelledAt = value.(string)
		case "completed_at":
			record.CompletedAt = value.(string)
		case "started_at":
			record.StartedAt = value.(string)
		case "sqs_receipt_handle":
			record.ReceiptHandle = value.(string)
		}
	}
	return nil
}

func (m *storeMock) DeleteExecution(ctx context.Context, id string) error {
	delete(m.executions, id)
	return nil
}

func (m *storeMock) ListByQueue(ctx context.Context, queue, st string, limit int) ([]*state.ExecutionRecord, error) {
	var records []*state.ExecutionRecord
	for _, r := range m.executions {
		if r.Queue == queue && r.State == st {
			records = append(records, r)
		}
	}
	return records, nil
}

func (m *storeMock) ListByState(ctx context.Context, st string, limit, offset int) ([]*state.ExecutionRecord, int, error) {
	var records []*state.ExecutionRecord
	for _, r := range m.executions {
		if r.State == st {
			records = append(records, r)
		}
	}
	return records, len(records), nil
}

func (m *storeMock) CountByQueueAndState(ctx context.Context, queue, st string) (int, error) {
	count := 0
	for _, r := range m.executions {
		if r.Queue == queue && r.State == st {
			count++
		}
	}
	return count, nil
}

func (m *storeMock) DueScheduled(ctx context.Context, nowMs int64, limit int) ([]string, error) {
	var ids []string
	for id, r := range m.executions {
		if r.GSI3SK != nil && *r.GSI3SK <= nowMs {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *storeMock) ClearDue(ctx context.Context, id string) error {
	m.dueCleared = append(m.dueCleared, id)
	if r, ok := m.executions[id]; ok {
		r.GSI3PK = ""
		r.GSI3SK = nil
	}
	return nil
}

func (m *storeMock) RegisterQueue(ctx context.Context, name string) error {
	if _, ok := m.queues[name]; !ok {
		m.queues[name] = false
	}
	return nil
}

func (m *storeMock) ListQueues(ctx context.Context) ([]string, error) {
	var names []string
	for name := range m.queues {
		names = append(names, name)
	}
	return names, nil
}

func (m *storeMock) SetQueuePaused(ctx context.Context, name string, paused bool) error {
	m.queues[name] = paused
	return nil
}

func (m *storeMock) IsQueuePaused(ctx context.Context, name string) (bool, error) {
	return m.queues[name], nil
}

func (m *storeMock) IncrementQueueSucceeded(ctx context.Context, name string) error {
	m.succeeded[name]++
	return nil
}

func (m *storeMock) QueueSucceededCount(ctx context.Context, name string) (int, error) {
	return m.succeeded[name], nil
}

func (m *storeMock) PutSchedule(ctx context.Context, record *state.ScheduleRecord) error {
	m.schedules[record.Name] = record
	return nil
}

func (m *storeMock) GetSchedule(ctx context.Context, name string) (*state.ScheduleRecord, error) {
	record, ok := m.schedules[name]
	if !ok {
		return nil, errors.New("schedule not found")
	}
	return record, nil
}

func (m *storeMock) ListSchedules(ctx context.Context) ([]*state.ScheduleRecord, error) {
	var records []*state.ScheduleRecord
	for _, r := range m.schedules {
		records = append(records, r)
	}
	return records, nil
}

func (m *storeMock) DeleteSchedule(ctx context.Context, name string) error {
	delete(m.schedules, name)
	return nil
}

func (m *storeMock) SetScheduleRun(ctx context.Context, name, lastRunAt, nextRunAt string) error {
	if r, ok := m.schedules[name]; ok {
		r.LastRunAt = lastRunAt
		r.NextRunAt = nextRunAt
	}
	return nil
}

func (m *storeMock) Ping(ctx context.Context) error { return nil }
func (m *storeMock) Close() error                   { return nil }

func newTestTransport(store state.Store) *Transport {
	return New(nil, store, "retryexec", false)
}

func seedExecution(store *storeMock, id, queue, st string) *state.ExecutionRecord {
	exec := &core.Execution{
		ID:        id,
		State:     st,
		Queue:     queue,
		Operation: core.OperationSpec{Kind: core.OpBuiltinEcho},
		CreatedAt: core.NowFormatted(),
	}
	record := state.ExecutionToRecord(exec)
	store.executions[id] = record
	return record
}

func TestSQSQueueName(t *testing.T) {
	tr := New(nil, newStoreMock(), "retryexec", false)
	if got := tr.sqsQueueName("default"); got != "retryexec-default" {
		t.Errorf("unexpected queue name: %s", got)
	}
	if got := tr.sqsQueueName("billing.charges"); got != "retryexec-billing-charges" {
		t.Errorf("dots should be sanitized: %s", got)
	}

	fifo := New(nil, newStoreMock(), "retryexec", true)
	if got := fifo.sqsQueueName("default"); got != "retryexec-default.fifo" {
		t.Errorf("unexpected FIFO queue name: %s", got)
	}
}

func TestEncodeExecution_SizeLimit(t *testing.T) {
	exec := &core.Execution{
		ID:        core.NewUUIDv7(),
		Queue:     "default",
		Operation: core.OperationSpec{Kind: core.OpBuiltinFail, FailMessage: strings.Repeat("x", MaxSQSMessageSize)},
	}

	_, err := EncodeExecution(exec)
	if err == nil {
		t.Fatal("expected error for oversized payload")
	}
	var execErr *core.ExecError
	if !errors.As(err, &execErr) || execErr.Code != core.ErrCodeInvalidRequest {
		t.Errorf("expected invalid_request error, got %v", err)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	exec := &core.Execution{
		ID:        "0190a6e2-2222-7000-8000-000000000001",
		State:     core.StateQueued,
		Queue:     "default",
		Operation: core.OperationSpec{Kind: core.OpBuiltinFlaky, SucceedAfter: 2},
		Retry:     &core.RetryPolicy{MaxAttempts: 5},
	}

	body, err := EncodeExecution(exec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeExecution(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != exec.ID || got.Operation.Kind != core.OpBuiltinFlaky {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Retry == nil || got.Retry.MaxAttempts != 5 {
		t.Errorf("retry policy lost: %+v", got.Retry)
	}
}

func TestBuildMessageAttributes(t *testing.T) {
	exec := &core.Execution{
		ID:        "0190a6e2-2222-7000-8000-000000000002",
		Queue:     "default",
		Operation: core.OperationSpec{Kind: core.OpBuiltinEcho},
		Retry:     &core.RetryPolicy{MaxAttempts: 7},
		CreatedAt: "2026-08-29T10:00:00.000Z",
	}

	attrs := BuildMessageAttributes(exec)

	if got := *attrs[AttrID].StringValue; got != exec.ID {
		t.Errorf("unexpected id attribute: %s", got)
	}
	if got := *attrs[AttrKind].StringValue; got != core.OpBuiltinEcho {
		t.Errorf("unexpected kind attribute: %s", got)
	}
	if got := *attrs[AttrMaxAttempts].StringValue; got != "7" {
		t.Errorf("unexpected max_attempts attribute: %s", got)
	}
	if _, ok := attrs[AttrScheduledAt]; ok {
		t.Error("scheduled_at attribute should be absent for immediate executions")
	}
	if len(attrs) > 10 {
		t.Errorf("SQS allows at most 10 message attributes, got %d", len(attrs))
	}
}

func TestInfo_NotFound(t *testing.T) {
	tr := newTestTransport(newStoreMock())

	_, err := tr.Info(context.Background(), "missing")
	var execErr *core.ExecError
	if !errors.As(err, &execErr) || execErr.Code != core.ErrCodeNotFound {
		t.Errorf("expected not_found error, got %v", err)
	}
}

func TestCancel_Queued(t *testing.T) {
	store := newStoreMock()
	seedExecution(store, "exec-1", "default", core.StateQueued)
	tr := newTestTransport(store)

	exec, err := tr.Cancel(context.Background(), "exec-1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if exec.State != core.StateCancelled {
		t.Errorf("expected cancelled, got %s", exec.State)
	}
	if exec.CancelledAt == "" {
		t.Error("expected cancelled_at to be set")
	}
}

func TestCancel_Scheduled_ClearsDueIndex(t *testing.T) {
	store := newStoreMock()
	record := seedExecution(store, "exec-2", "default", core.StateScheduled)
	ms := int64(1700000000000)
	record.GSI3PK = "DUE#scheduled"
	record.GSI3SK = &ms
	tr := newTestTransport(store)

	if _, err := tr.Cancel(context.Background(), "exec-2"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(store.dueCleared) != 1 || store.dueCleared[0] != "exec-2" {
		t.Errorf("expected due index cleared for exec-2, got %v", store.dueCleared)
	}
}

func TestCancel_Terminal_Conflict(t *testing.T) {
	store := newStoreMock()
	seedExecution(store, "exec-3", "default", core.StateSucceeded)
	tr := newTestTransport(store)

	_, err := tr.Cancel(context.Background(), "exec-3")
	var execErr *core.ExecError
	if !errors.As(err, &execErr) || execErr.Code != core.ErrCodeConflict {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestRerun_NonTerminal_Conflict(t *testing.T) {
	store := newStoreMock()
	seedExecution(store, "exec-4", "default", core.StateRunning)
	tr := newTestTransport(store)

	_, err := tr.Rerun(context.Background(), "exec-4")
	var execErr *core.ExecError
	if !errors.As(err, &execErr) || execErr.Code != core.ErrCodeConflict {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestCloneForRerun_FreshID(t *testing.T) {
	failed := &core.Execution{
		ID:          "01912345-6789-7abc-89ab-0123456789ab",
		State:       core.StateFailed,
		Queue:       "default",
		Operation:   core.OperationSpec{Kind: core.OpBuiltinFail},
		Attempt:     3,
		CreatedAt:   core.NowFormatted(),
		StartedAt:   core.NowFormatted(),
		CompletedAt: core.NowFormatted(),
		Error:       &core.AttemptError{Attempt: 3, Message: "boom"},
		Errors: []core.AttemptError{
			{Attempt: 1, Message: "boom"},
			{Attempt: 2, Message: "boom"},
			{Attempt: 3, Message: "boom"},
		},
		Tags: []string{"nightly"},
	}
	record := state.ExecutionToRecord(failed)

	clone := cloneForRerun(record)

	// A clone under the original ID would collide with FIFO message
	// deduplication and overwrite the terminal record.
	if clone.ID == failed.ID {
		t.Fatal("clone kept the original execution ID")
	}
	if !core.IsValidUUIDv7(clone.ID) {
		t.Errorf("clone ID %q is not a UUIDv7", clone.ID)
	}
	if clone.State != core.StateQueued {
		t.Errorf("clone state = %s, want queued", clone.State)
	}
	if clone.Attempt != 0 {
		t.Errorf("clone attempt = %d, want 0", clone.Attempt)
	}
	if clone.Error != nil || clone.Errors != nil || clone.Result != nil {
		t.Error("clone carried over the original outcome")
	}
	if clone.StartedAt != "" || clone.CompletedAt != "" {
		t.Error("clone carried over run timestamps")
	}
	if clone.Queue != "default" || clone.Operation.Kind != core.OpBuiltinFail {
		t.Error("clone lost the operation definition")
	}
	if len(clone.Tags) != 1 || clone.Tags[0] != "nightly" {
		t.Errorf("clone tags = %v, want original tags", clone.Tags)
	}
	if record.State != core.StateFailed {
		t.Errorf("source record state = %s, want failed", record.State)
	}
}

func TestQueueStats(t *testing.T) {
	store := newStoreMock()
	store.queues["default"] = false
	store.succeeded["default"] = 4
	seedExecution(store, "q1", "default", core.StateQueued)
	seedExecution(store, "q2", "default", core.StateQueued)
	seedExecution(store, "r1", "default", core.StateRunning)
	seedExecution(store, "f1", "default", core.StateFailed)
	tr := newTestTransport(store)

	stats, err := tr.QueueStats(context.Background(), "default")
	if err != nil {
		t.Fatalf("queue stats: %v", err)
	}
	if stats.Stats.Queued != 2 || stats.Stats.Running != 1 || stats.Stats.Failed != 1 || stats.Stats.Succeeded != 4 {
		t.Errorf("unexpected stats: %+v", stats.Stats)
	}
	if stats.Status != "active" {
		t.Errorf("unexpected status: %s", stats.Status)
	}
}

func TestPauseResumeQueue(t *testing.T) {
	store := newStoreMock()
	store.queues["default"] = false
	tr := newTestTransport(store)
	ctx := context.Background()

	if err := tr.PauseQueue(ctx, "default"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	queues, _ := tr.ListQueues(ctx)
	if len(queues) != 1 || queues[0].Status != "paused" {
		t.Errorf("expected paused queue, got %+v", queues)
	}

	if err := tr.ResumeQueue(ctx, "default"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	queues, _ = tr.ListQueues(ctx)
	if queues[0].Status != "active" {
		t.Errorf("expected active queue, got %+v", queues)
	}
}

func TestRegisterSchedule(t *testing.T) {
	store := newStoreMock()
	tr := newTestTransport(store)

	sched, err := tr.RegisterSchedule(context.Background(), &core.ScheduleRequest{
		Name:      "hourly-ping",
		Cron:      "@hourly",
		Operation: &core.OperationSpec{Kind: core.OpBuiltinEcho},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sched.Queue != "default" {
		t.Errorf("expected default queue, got %s", sched.Queue)
	}
	if sched.NextRunAt == "" {
		t.Error("expected next_run_at to be computed")
	}
	if _, ok := store.schedules["hourly-ping"]; !ok {
		t.Error("schedule not stored")
	}
}

func TestRegisterSchedule_InvalidCron(t *testing.T) {
	tr := newTestTransport(newStoreMock())

	_, err := tr.RegisterSchedule(context.Background(), &core.ScheduleRequest{
		Name:      "bad",
		Cron:      "not a cron",
		Operation: &core.OperationSpec{Kind: core.OpBuiltinEcho},
	})
	var execErr *core.ExecError
	if !errors.As(err, &execErr) || execErr.Code != core.ErrCodeInvalidRequest {
		t.Errorf("expected invalid_request error, got %v", err)
	}
}

func TestDeleteSchedule(t *testing.T) {
	store := newStoreMock()
	tr := newTestTransport(store)
	ctx := context.Background()

	if _, err := tr.RegisterSchedule(ctx, &core.ScheduleRequest{
		Name:      "nightly",
		Cron:      "0 2 * * *",
		Operation: &core.OperationSpec{Kind: core.OpBuiltinEcho},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	sched, err := tr.DeleteSchedule(ctx, "nightly")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if sched.Name != "nightly" {
		t.Errorf("unexpected schedule returned: %+v", sched)
	}
	if _, err := tr.DeleteSchedule(ctx, "nightly"); err == nil {
		t.Error("expected not_found on second delete")
	}

	if len(store.schedules) != 0 {
		t.Errorf("expected empty schedule store, got %d", len(store.schedules))
	}
}
