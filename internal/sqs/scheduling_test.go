package sqs

import (
	"context"
	"testing"
	"time"

	"github.com/retryexec/retryexec/internal/core"
	"github.com/retryexec/retryexec/internal/state"
)

func TestPromoteScheduled_ClearsStaleMarker(t *testing.T) {
	store := newStoreMock()
	tr := newTestTransport(store)

	// A due marker pointing at an execution that is no longer scheduled,
	// e.g. cancelled between the index write and the promoter pass.
	record := seedExecution(store, "exec-stale", "default", core.StateCancelled)
	record.GSI3PK = "DUE#scheduled"
	due := time.Now().Add(-time.Minute).UnixMilli()
	record.GSI3SK = &due

	if err := tr.PromoteScheduled(context.Background()); err != nil {
		t.Fatalf("PromoteScheduled: %v", err)
	}

	if len(store.dueCleared) != 1 || store.dueCleared[0] != "exec-stale" {
		t.Errorf("expected stale due marker cleared, got %v", store.dueCleared)
	}
	if record.State != core.StateCancelled {
		t.Errorf("expected state untouched, got %s", record.State)
	}
}

func TestPromoteScheduled_NothingDue(t *testing.T) {
	store := newStoreMock()
	tr := newTestTransport(store)

	record := seedExecution(store, "exec-later", "default", core.StateScheduled)
	record.GSI3PK = "DUE#scheduled"
	due := time.Now().Add(time.Hour).UnixMilli()
	record.GSI3SK = &due

	if err := tr.PromoteScheduled(context.Background()); err != nil {
		t.Fatalf("PromoteScheduled: %v", err)
	}
	if len(store.dueCleared) != 0 {
		t.Errorf("expected no due markers cleared, got %v", store.dueCleared)
	}
	if record.State != core.StateScheduled {
		t.Errorf("expected execution still scheduled, got %s", record.State)
	}
}

func TestFireSchedules_NotDue(t *testing.T) {
	store := newStoreMock()
	tr := newTestTransport(store)

	store.schedules["nightly"] = state.ScheduleToRecord(&core.Schedule{
		Name:      "nightly",
		Cron:      "0 3 * * *",
		Queue:     "default",
		Operation: core.OperationSpec{Kind: core.OpBuiltinEcho},
		NextRunAt: core.FormatTime(time.Now().Add(time.Hour)),
	})

	if err := tr.FireSchedules(context.Background()); err != nil {
		t.Fatalf("FireSchedules: %v", err)
	}
	if len(store.executions) != 0 {
		t.Errorf("expected no executions submitted, got %d", len(store.executions))
	}
}

func TestFireSchedules_UnparseableNextRun(t *testing.T) {
	store := newStoreMock()
	tr := newTestTransport(store)

	store.schedules["broken"] = state.ScheduleToRecord(&core.Schedule{
		Name:      "broken",
		Cron:      "* * * * *",
		Queue:     "default",
		Operation: core.OperationSpec{Kind: core.OpBuiltinEcho},
		NextRunAt: "not-a-timestamp",
	})

	if err := tr.FireSchedules(context.Background()); err != nil {
		t.Fatalf("FireSchedules: %v", err)
	}
	if len(store.executions) != 0 {
		t.Errorf("expected no executions submitted, got %d", len(store.executions))
	}
}

func TestRefreshQueueDepth(t *testing.T) {
	store := newStoreMock()
	tr := newTestTransport(store)

	store.queues["default"] = false
	seedExecution(store, "exec-a", "default", core.StateQueued)
	seedExecution(store, "exec-b", "default", core.StateQueued)
	seedExecution(store, "exec-c", "default", core.StateRunning)

	if err := tr.RefreshQueueDepth(context.Background()); err != nil {
		t.Fatalf("RefreshQueueDepth: %v", err)
	}
}
