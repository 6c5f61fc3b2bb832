package sqs

import (
	"context"
	"fmt"
	"time"

	"github.com/retryexec/retryexec/internal/core"
	"github.com/retryexec/retryexec/internal/metrics"
	"github.com/retryexec/retryexec/internal/state"
)

// promoteBatchSize limits how many deferred executions one promoter pass
// moves to SQS.
const promoteBatchSize = 100

// PromoteScheduled moves due scheduled executions from the state store to
// SQS. Deferrals longer than the SQS native delay limit take this path.
func (t *Transport) PromoteScheduled(ctx context.Context) error {
	nowMs := time.Now().UnixMilli()
	ids, err := t.store.DueScheduled(ctx, nowMs, promoteBatchSize)
	if err != nil {
		return err
	}

	var firstErr error
	for _, id := range ids {
		record, err := t.store.GetExecution(ctx, id)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("load scheduled execution %s: %w", id, err)
			}
			t.logger.Error("failed to load scheduled execution", "execution_id", id, "error", err)
			continue
		}

		if record.State != core.StateScheduled {
			// Cancelled or already promoted. Drop the due marker.
			if err := t.store.ClearDue(ctx, id); err != nil {
				t.logger.Warn("failed to clear stale due marker", "execution_id", id, "error", err)
			}
			continue
		}

		if err := t.store.ClearDue(ctx, id); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("clear due marker %s: %w", id, err)
			}
			t.logger.Error("failed to clear due marker", "execution_id", id, "error", err)
			continue
		}

		now := time.Now()
		updates := map[string]any{
			"enqueued_at": core.FormatTime(now),
		}
		if err := t.store.UpdateExecutionState(ctx, id, core.StateQueued, updates); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("promote execution %s: %w", id, err)
			}
			t.logger.Error("failed to promote scheduled execution", "execution_id", id, "error", err)
			continue
		}

		exec := state.RecordToExecution(record)
		exec.State = core.StateQueued
		exec.EnqueuedAt = core.FormatTime(now)
		if _, err := t.sendToSQS(ctx, exec); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("send promoted execution %s: %w", id, err)
			}
			t.logger.Error("failed to send promoted execution to SQS",
				"execution_id", id, "queue", exec.Queue, "error", err)
		}
	}

	return firstErr
}

// FireSchedules submits executions for schedules whose next run time has
// passed and advances their run metadata.
func (t *Transport) FireSchedules(ctx context.Context) error {
	records, err := t.store.ListSchedules(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	var firstErr error
	for _, record := range records {
		if record.NextRunAt == "" {
			continue
		}
		nextRun, err := time.Parse(core.TimeFormat, record.NextRunAt)
		if err != nil {
			nextRun, err = time.Parse(time.RFC3339, record.NextRunAt)
		}
		if err != nil {
			t.logger.Error("unparseable next_run_at on schedule",
				"schedule", record.Name, "next_run_at", record.NextRunAt)
			continue
		}
		if now.Before(nextRun) {
			continue
		}

		spec, parseErr := CronParser.Parse(record.Cron)
		if parseErr != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("parse cron for schedule %s: %w", record.Name, parseErr)
			}
			t.logger.Error("failed to parse cron expression",
				"schedule", record.Name, "cron", record.Cron, "error", parseErr)
			continue
		}

		sched := state.RecordToSchedule(record)
		exec := &core.Execution{
			Queue:     sched.Queue,
			Operation: sched.Operation,
		}
		if sched.Options != nil {
			exec.Retry = sched.Options.Retry
			exec.TimeoutMs = sched.Options.TimeoutMs
			exec.Tags = sched.Options.Tags
		}

		created, err := t.Submit(ctx, exec)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("submit execution for schedule %s: %w", record.Name, err)
			}
			t.logger.Error("failed to submit scheduled execution",
				"schedule", record.Name, "error", err)
			continue
		}

		t.logger.Info("schedule fired",
			"schedule", record.Name, "execution_id", created.ID, "queue", created.Queue)

		if err := t.store.SetScheduleRun(ctx, record.Name,
			core.FormatTime(now), core.FormatTime(spec.Next(now))); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("advance schedule %s: %w", record.Name, err)
			}
			t.logger.Error("failed to advance schedule run metadata",
				"schedule", record.Name, "error", err)
		}
	}

	return firstErr
}

// RefreshQueueDepth updates the queue depth gauge for every known queue.
func (t *Transport) RefreshQueueDepth(ctx context.Context) error {
	names, err := t.store.ListQueues(ctx)
	if err != nil {
		return err
	}

	for _, name := range names {
		queued, err := t.store.CountByQueueAndState(ctx, name, core.StateQueued)
		if err != nil {
			continue
		}
		metrics.QueueDepth.WithLabelValues(name).Set(float64(queued))
	}

	return nil
}
