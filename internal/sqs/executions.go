package sqs

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/retryexec/retryexec/internal/core"
	"github.com/retryexec/retryexec/internal/state"
)

// Submit accepts a new execution. Immediate submissions are stored and sent
// to SQS; deferred submissions are stored as scheduled and either delayed
// natively by SQS (short, non-FIFO) or promoted later by the scheduler.
func (t *Transport) Submit(ctx context.Context, exec *core.Execution) (*core.Execution, error) {
	now := time.Now()

	if exec.ID == "" {
		exec.ID = core.NewUUIDv7()
	}
	if exec.Queue == "" {
		exec.Queue = "default"
	}

	exec.CreatedAt = core.FormatTime(now)
	exec.Attempt = 0

	if err := t.store.RegisterQueue(ctx, exec.Queue); err != nil {
		return nil, fmt.Errorf("register queue: %w", err)
	}

	if exec.ScheduledAt != "" {
		scheduledTime, err := time.Parse(time.RFC3339, exec.ScheduledAt)
		if err == nil && scheduledTime.After(now) {
			exec.State = core.StateScheduled

			if delay, ok := t.sqsNativeDelay(exec.ScheduledAt, now); ok {
				// SQS holds the message itself; keep it off the due index
				// so the promoter does not double-deliver.
				record := state.ExecutionToRecord(exec)
				record.GSI3PK = ""
				record.GSI3SK = nil
				if err := t.store.PutExecution(ctx, record); err != nil {
					return nil, fmt.Errorf("store scheduled execution: %w", err)
				}
				if err := t.sendDelayed(ctx, exec, delay); err != nil {
					return nil, err
				}
				return exec, nil
			}

			if err := t.store.PutExecution(ctx, state.ExecutionToRecord(exec)); err != nil {
				return nil, fmt.Errorf("store scheduled execution: %w", err)
			}
			return exec, nil
		}
		// Past scheduled_at is treated as immediate.
	}

	exec.State = core.StateQueued
	exec.EnqueuedAt = core.FormatTime(now)

	if err := t.store.PutExecution(ctx, state.ExecutionToRecord(exec)); err != nil {
		return nil, fmt.Errorf("store execution: %w", err)
	}

	if _, err := t.sendToSQS(ctx, exec); err != nil {
		return nil, fmt.Errorf("send to SQS: %w", err)
	}

	return exec, nil
}

// sendDelayed sends an execution with a native SQS DelaySeconds.
func (t *Transport) sendDelayed(ctx context.Context, exec *core.Execution, delaySec int32) error {
	queueURL, err := t.getOrCreateQueueURL(ctx, exec.Queue)
	if err != nil {
		return err
	}

	body, err := EncodeExecution(exec)
	if err != nil {
		return err
	}

	_, err = t.sqsClient.SendMessage(ctx, &awssqs.SendMessageInput{
		QueueUrl:          aws.String(queueURL),
		MessageBody:       aws.String(body),
		MessageAttributes: BuildMessageAttributes(exec),
		DelaySeconds:      delaySec,
	})
	if err != nil {
		return fmt.Errorf("SQS SendMessage: %w", err)
	}
	return nil
}

// Info returns an execution by ID.
func (t *Transport) Info(ctx context.Context, id string) (*core.Execution, error) {
	record, err := t.store.GetExecution(ctx, id)
	if err != nil {
		return nil, core.NewNotFoundError("Execution", id)
	}
	return state.RecordToExecution(record), nil
}

// List returns executions filtered by state and optionally by queue.
func (t *Transport) List(ctx context.Context, stateFilter, queue string, limit, offset int) ([]*core.Execution, int, error) {
	if limit <= 0 {
		limit = 20
	}

	if queue != "" {
		records, err := t.store.ListByQueue(ctx, queue, stateFilter, limit)
		if err != nil {
			return nil, 0, fmt.Errorf("list executions by queue: %w", err)
		}
		execs := make([]*core.Execution, 0, len(records))
		for _, r := range records {
			execs = append(execs, state.RecordToExecution(r))
		}
		return execs, len(execs), nil
	}

	records, total, err := t.store.ListByState(ctx, stateFilter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list executions by state: %w", err)
	}
	execs := make([]*core.Execution, 0, len(records))
	for _, r := range records {
		execs = append(execs, state.RecordToExecution(r))
	}
	return execs, total, nil
}

// Cancel cancels a scheduled or queued execution. Running
// executions are marked cancelled in the store; the runner observes the
// state change and stops before the next attempt.
func (t *Transport) Cancel(ctx context.Context, id string) (*core.Execution, error) {
	record, err := t.store.GetExecution(ctx, id)
	if err != nil {
		return nil, core.NewNotFoundError("Execution", id)
	}

	if core.IsTerminalState(record.State) {
		return nil, core.NewConflictError(
			fmt.Sprintf("Cannot cancel execution in terminal state '%s'.", record.State),
			map[string]any{
				"execution_id":  id,
				"current_state": record.State,
			},
		)
	}

	if !core.IsCancellableState(record.State) {
		return nil, core.NewConflictError(
			fmt.Sprintf("Cannot cancel execution in state '%s'.", record.State),
			map[string]any{
				"execution_id":  id,
				"current_state": record.State,
			},
		)
	}

	now := core.NowFormatted()

	// Remove the SQS message if one is in flight.
	if record.ReceiptHandle != "" {
		if err := t.deleteFromSQS(ctx, record.Queue, record.ReceiptHandle); err != nil {
			t.logger.Warn("failed to delete SQS message on cancel",
				"execution_id", id, "error", err)
		}
	}

	if record.State == core.StateScheduled {
		if err := t.store.ClearDue(ctx, id); err != nil {
			t.logger.Warn("failed to clear due index on cancel",
				"execution_id", id, "error", err)
		}
	}

	updates := map[string]any{
		"cancelled_at":       now,
		"sqs_receipt_handle": "",
	}
	if err := t.store.UpdateExecutionState(ctx, id, core.StateCancelled, updates); err != nil {
		return nil, fmt.Errorf("cancel execution: %w", err)
	}

	return t.Info(ctx, id)
}

// Rerun clones a terminal execution and enqueues the clone from scratch.
// The original record keeps its result and error history.
func (t *Transport) Rerun(ctx context.Context, id string) (*core.Execution, error) {
	record, err := t.store.GetExecution(ctx, id)
	if err != nil {
		return nil, core.NewNotFoundError("Execution", id)
	}

	if !core.IsTerminalState(record.State) {
		return nil, core.NewConflictError(
			fmt.Sprintf("Cannot rerun execution in non-terminal state '%s'.", record.State),
			map[string]any{
				"execution_id":  id,
				"current_state": record.State,
			},
		)
	}

	clone := cloneForRerun(record)

	if err := t.store.PutExecution(ctx, state.ExecutionToRecord(clone)); err != nil {
		return nil, fmt.Errorf("store rerun execution: %w", err)
	}

	if _, err := t.sendToSQS(ctx, clone); err != nil {
		return nil, fmt.Errorf("send rerun to SQS: %w", err)
	}

	return clone, nil
}

// cloneForRerun builds a fresh queued execution from a terminal record. The
// clone carries its own ID, so FIFO deduplication never collides with the
// original send and the source record stays intact.
func cloneForRerun(record *state.ExecutionRecord) *core.Execution {
	exec := state.RecordToExecution(record)
	exec.ID = core.NewUUIDv7()
	exec.State = core.StateQueued
	exec.Attempt = 0
	now := core.NowFormatted()
	exec.CreatedAt = now
	exec.EnqueuedAt = now
	exec.StartedAt = ""
	exec.CompletedAt = ""
	exec.CancelledAt = ""
	exec.ScheduledAt = ""
	exec.Result = nil
	exec.Error = nil
	exec.Errors = nil
	exec.ReceiptHandle = ""
	return exec
}
