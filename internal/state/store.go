package state

import (
	"context"
	"encoding/json"
	"time"

	"github.com/retryexec/retryexec/internal/core"
)

// ExecutionRecord is an execution as stored in DynamoDB.
type ExecutionRecord struct {
	ID            string   `dynamodbav:"PK"`
	SK            string   `dynamodbav:"SK"`
	State         string   `dynamodbav:"state"`
	Queue         string   `dynamodbav:"queue"`
	Operation     string   `dynamodbav:"operation"`
	Attempt       int      `dynamodbav:"attempt"`
	Retry         string   `dynamodbav:"retry,omitempty"`
	TimeoutMs     *int     `dynamodbav:"timeout_ms,omitempty"`
	CreatedAt     string   `dynamodbav:"created_at"`
	EnqueuedAt    string   `dynamodbav:"enqueued_at,omitempty"`
	StartedAt     string   `dynamodbav:"started_at,omitempty"`
	CompletedAt   string   `dynamodbav:"completed_at,omitempty"`
	CancelledAt   string   `dynamodbav:"cancelled_at,omitempty"`
	ScheduledAt   string   `dynamodbav:"scheduled_at,omitempty"`
	Result        string   `dynamodbav:"result,omitempty"`
	Error         string   `dynamodbav:"error_data,omitempty"`
	ErrorHistory  string   `dynamodbav:"error_history,omitempty"`
	Tags          []string `dynamodbav:"tags,omitempty"`
	ReceiptHandle string   `dynamodbav:"sqs_receipt_handle,omitempty"`

	// GSI attributes for queries
	GSI1PK string `dynamodbav:"GSI1PK,omitempty"` // QUEUE#<name>
	GSI1SK string `dynamodbav:"GSI1SK,omitempty"` // STATE#<state>#<created_at>
	GSI2PK string `dynamodbav:"GSI2PK,omitempty"` // STATE#<state>
	GSI2SK string `dynamodbav:"GSI2SK,omitempty"` // <created_at>
	GSI3PK string `dynamodbav:"GSI3PK,omitempty"` // DUE#scheduled
	GSI3SK *int64 `dynamodbav:"GSI3SK,omitempty"` // <due_at_ms>
	TTL    *int64 `dynamodbav:"ttl,omitempty"`    // DynamoDB TTL
}

// ScheduleRecord is a recurring execution definition as stored in DynamoDB.
type ScheduleRecord struct {
	PK        string `dynamodbav:"PK"` // SCHEDULE#<name>
	SK        string `dynamodbav:"SK"` // SCHEDULE
	Name      string `dynamodbav:"name"`
	Cron      string `dynamodbav:"cron"`
	Operation string `dynamodbav:"operation"`
	Options   string `dynamodbav:"options,omitempty"`
	Queue     string `dynamodbav:"queue"`
	CreatedAt string `dynamodbav:"created_at"`
	NextRunAt string `dynamodbav:"next_run_at,omitempty"`
	LastRunAt string `dynamodbav:"last_run_at,omitempty"`
}

// Store is the external state store interface.
type Store interface {
	// Execution operations. UpdateExecutionState fails once the record is
	// in a terminal state; terminal states are write-once.
	PutExecution(ctx context.Context, record *ExecutionRecord) error
	GetExecution(ctx context.Context, id string) (*ExecutionRecord, error)
	UpdateExecutionState(ctx context.Context, id, newState string, updates map[string]any) error
	DeleteExecution(ctx context.Context, id string) error

	// Query operations
	ListByQueue(ctx context.Context, queue, state string, limit int) ([]*ExecutionRecord, error)
	ListByState(ctx context.Context, state string, limit, offset int) ([]*ExecutionRecord, int, error)
	CountByQueueAndState(ctx context.Context, queue, state string) (int, error)

	// Due-index operations for deferred executions
	DueScheduled(ctx context.Context, nowMs int64, limit int) ([]string, error)
	ClearDue(ctx context.Context, id string) error

	// Queue metadata
	RegisterQueue(ctx context.Context, name string) error
	ListQueues(ctx context.Context) ([]string, error)
	SetQueuePaused(ctx context.Context, name string, paused bool) error
	IsQueuePaused(ctx context.Context, name string) (bool, error)
	IncrementQueueSucceeded(ctx context.Context, name string) error
	QueueSucceededCount(ctx context.Context, name string) (int, error)

	// Schedule operations
	PutSchedule(ctx context.Context, record *ScheduleRecord) error
	GetSchedule(ctx context.Context, name string) (*ScheduleRecord, error)
	ListSchedules(ctx context.Context) ([]*ScheduleRecord, error)
	DeleteSchedule(ctx context.Context, name string) error
	SetScheduleRun(ctx context.Context, name, lastRunAt, nextRunAt string) error

	Ping(ctx context.Context) error
	Close() error
}

// ExecutionToRecord converts an execution envelope to its storage form.
func ExecutionToRecord(exec *core.Execution) *ExecutionRecord {
	opJSON, _ := json.Marshal(exec.Operation)

	r := &ExecutionRecord{
		ID:            exec.ID,
		SK:            "EXEC",
		State:         exec.State,
		Queue:         exec.Queue,
		Operation:     string(opJSON),
		Attempt:       exec.Attempt,
		TimeoutMs:     exec.TimeoutMs,
		CreatedAt:     exec.CreatedAt,
		EnqueuedAt:    exec.EnqueuedAt,
		StartedAt:     exec.StartedAt,
		CompletedAt:   exec.CompletedAt,
		CancelledAt:   exec.CancelledAt,
		ScheduledAt:   exec.ScheduledAt,
		Tags:          exec.Tags,
		ReceiptHandle: exec.ReceiptHandle,
		GSI1PK:        "QUEUE#" + exec.Queue,
		GSI1SK:        "STATE#" + exec.State + "#" + exec.CreatedAt,
		GSI2PK:        "STATE#" + exec.State,
		GSI2SK:        exec.CreatedAt,
	}

	if exec.Result != nil {
		r.Result = string(exec.Result)
	}
	if exec.Error != nil {
		errJSON, _ := json.Marshal(exec.Error)
		r.Error = string(errJSON)
	}
	if len(exec.Errors) > 0 {
		histJSON, _ := json.Marshal(exec.Errors)
		r.ErrorHistory = string(histJSON)
	}
	if exec.Retry != nil {
		retryJSON, _ := json.Marshal(exec.Retry)
		r.Retry = string(retryJSON)
	}

	// Deferred executions land on the due index so the promoter finds them.
	if exec.State == core.StateScheduled && exec.ScheduledAt != "" {
		if due, err := time.Parse(time.RFC3339, exec.ScheduledAt); err == nil {
			ms := due.UnixMilli()
			r.GSI3PK = "DUE#scheduled"
			r.GSI3SK = &ms
		}
	}

	return r
}

// RecordToExecution converts a storage record back to the envelope.
func RecordToExecution(r *ExecutionRecord) *core.Execution {
	exec := &core.Execution{
		ID:            r.ID,
		State:         r.State,
		Queue:         r.Queue,
		Attempt:       r.Attempt,
		TimeoutMs:     r.TimeoutMs,
		CreatedAt:     r.CreatedAt,
		EnqueuedAt:    r.EnqueuedAt,
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
		CancelledAt:   r.CancelledAt,
		ScheduledAt:   r.ScheduledAt,
		Tags:          r.Tags,
		ReceiptHandle: r.ReceiptHandle,
	}

	if r.Operation != "" {
		_ = json.Unmarshal([]byte(r.Operation), &exec.Operation)
	}
	if r.Retry != "" {
		var policy core.RetryPolicy
		if err := json.Unmarshal([]byte(r.Retry), &policy); err == nil {
			exec.Retry = &policy
		}
	}
	if r.Result != "" {
		exec.Result = json.RawMessage(r.Result)
	}
	if r.Error != "" {
		var attErr core.AttemptError
		if err := json.Unmarshal([]byte(r.Error), &attErr); err == nil {
			exec.Error = &attErr
		}
	}
	if r.ErrorHistory != "" {
		_ = json.Unmarshal([]byte(r.ErrorHistory), &exec.Errors)
	}

	return exec
}

// ScheduleToRecord converts a schedule definition to its storage form.
func ScheduleToRecord(s *core.Schedule) *ScheduleRecord {
	opJSON, _ := json.Marshal(s.Operation)
	r := &ScheduleRecord{
		PK:        "SCHEDULE#" + s.Name,
		SK:        "SCHEDULE",
		Name:      s.Name,
		Cron:      s.Cron,
		Operation: string(opJSON),
		Queue:     s.Queue,
		CreatedAt: s.CreatedAt,
		NextRunAt: s.NextRunAt,
		LastRunAt: s.LastRunAt,
	}
	if s.Options != nil {
		optsJSON, _ := json.Marshal(s.Options)
		r.Options = string(optsJSON)
	}
	return r
}

// RecordToSchedule converts a storage record back to a schedule definition.
func RecordToSchedule(r *ScheduleRecord) *core.Schedule {
	s := &core.Schedule{
		Name:      r.Name,
		Cron:      r.Cron,
		Queue:     r.Queue,
		CreatedAt: r.CreatedAt,
		NextRunAt: r.NextRunAt,
		LastRunAt: r.LastRunAt,
	}
	if r.Operation != "" {
		_ = json.Unmarshal([]byte(r.Operation), &s.Operation)
	}
	if r.Options != "" {
		var opts core.SubmitOptions
		if err := json.Unmarshal([]byte(r.Options), &opts); err == nil {
			s.Options = &opts
		}
	}
	return s
}

// TerminalTTL computes a DynamoDB TTL for terminal records.
func TerminalTTL(retention time.Duration) *int64 {
	if retention <= 0 {
		return nil
	}
	ttl := time.Now().Add(retention).Unix()
	return &ttl
}
