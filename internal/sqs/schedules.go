package sqs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/retryexec/retryexec/internal/core"
	"github.com/retryexec/retryexec/internal/state"
)

// CronParser accepts standard five-field expressions plus descriptors
// like @hourly and @daily.
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// RegisterSchedule registers a recurring execution definition.
func (t *Transport) RegisterSchedule(ctx context.Context, req *core.ScheduleRequest) (*core.Schedule, error) {
	spec, err := CronParser.Parse(req.Cron)
	if err != nil {
		return nil, core.NewInvalidRequestError(
			fmt.Sprintf("Invalid cron expression: %s", req.Cron),
			map[string]any{"cron": req.Cron, "error": err.Error()},
		)
	}

	now := time.Now()
	sched := &core.Schedule{
		Name:      req.Name,
		Cron:      req.Cron,
		Operation: *req.Operation,
		Options:   req.Options,
		CreatedAt: core.FormatTime(now),
		NextRunAt: core.FormatTime(spec.Next(now)),
	}

	if req.Options != nil && req.Options.Queue != "" {
		sched.Queue = req.Options.Queue
	}
	if sched.Queue == "" {
		sched.Queue = "default"
	}

	if err := t.store.PutSchedule(ctx, state.ScheduleToRecord(sched)); err != nil {
		return nil, fmt.Errorf("store schedule: %w", err)
	}

	return sched, nil
}

// ListSchedules lists all registered schedules sorted by name.
func (t *Transport) ListSchedules(ctx context.Context) ([]*core.Schedule, error) {
	records, err := t.store.ListSchedules(ctx)
	if err != nil {
		return nil, err
	}

	scheds := make([]*core.Schedule, 0, len(records))
	for _, record := range records {
		scheds = append(scheds, state.RecordToSchedule(record))
	}

	sort.Slice(scheds, func(i, j int) bool {
		return scheds[i].Name < scheds[j].Name
	})

	return scheds, nil
}

// DeleteSchedule removes a schedule and returns its last definition.
func (t *Transport) DeleteSchedule(ctx context.Context, name string) (*core.Schedule, error) {
	record, err := t.store.GetSchedule(ctx, name)
	if err != nil {
		return nil, core.NewNotFoundError("Schedule", name)
	}

	if err := t.store.DeleteSchedule(ctx, name); err != nil {
		return nil, fmt.Errorf("delete schedule: %w", err)
	}

	return state.RecordToSchedule(record), nil
}
