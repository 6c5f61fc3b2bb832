package sqs

import (
	"context"
	"sort"

	"github.com/retryexec/retryexec/internal/core"
)

// ListQueues returns all known queues.
func (t *Transport) ListQueues(ctx context.Context) ([]core.QueueInfo, error) {
	names, err := t.store.ListQueues(ctx)
	if err != nil {
		return nil, err
	}

	sort.Strings(names)
	var queues []core.QueueInfo
	for _, name := range names {
		status := "active"
		if paused, _ := t.store.IsQueuePaused(ctx, name); paused {
			status = "paused"
		}
		queues = append(queues, core.QueueInfo{
			Name:   name,
			Status: status,
		})
	}
	return queues, nil
}

// QueueStats returns statistics for a queue.
func (t *Transport) QueueStats(ctx context.Context, name string) (*core.QueueStats, error) {
	queued, _ := t.store.CountByQueueAndState(ctx, name, core.StateQueued)
	running, _ := t.store.CountByQueueAndState(ctx, name, core.StateRunning)
	scheduled, _ := t.store.CountByQueueAndState(ctx, name, core.StateScheduled)
	failed, _ := t.store.CountByQueueAndState(ctx, name, core.StateFailed)
	succeeded, _ := t.store.QueueSucceededCount(ctx, name)

	status := "active"
	if paused, _ := t.store.IsQueuePaused(ctx, name); paused {
		status = "paused"
	}

	return &core.QueueStats{
		Queue:  name,
		Status: status,
		Stats: core.Stats{
			Queued:    queued,
			Running:   running,
			Scheduled: scheduled,
			Succeeded: succeeded,
			Failed:    failed,
		},
	}, nil
}

// PauseQueue pauses a queue. The runner stops receiving from it until resumed.
func (t *Transport) PauseQueue(ctx context.Context, name string) error {
	return t.store.SetQueuePaused(ctx, name, true)
}

// ResumeQueue resumes a paused queue.
func (t *Transport) ResumeQueue(ctx context.Context, name string) error {
	return t.store.SetQueuePaused(ctx, name, false)
}
