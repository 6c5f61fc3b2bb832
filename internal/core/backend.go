package core

import "context"

// ExecutionManager handles the execution lifecycle.
type ExecutionManager interface {
	Submit(ctx context.Context, exec *Execution) (*Execution, error)
	Info(ctx context.Context, id string) (*Execution, error)
	List(ctx context.Context, state, queue string, limit, offset int) ([]*Execution, int, error)
	Cancel(ctx context.Context, id string) (*Execution, error)
	Rerun(ctx context.Context, id string) (*Execution, error)
}

// ScheduleManager handles recurring execution definitions.
type ScheduleManager interface {
	RegisterSchedule(ctx context.Context, req *ScheduleRequest) (*Schedule, error)
	ListSchedules(ctx context.Context) ([]*Schedule, error)
	DeleteSchedule(ctx context.Context, name string) (*Schedule, error)
}

// QueueManager handles queue-level operations.
type QueueManager interface {
	ListQueues(ctx context.Context) ([]QueueInfo, error)
	QueueStats(ctx context.Context, name string) (*QueueStats, error)
	PauseQueue(ctx context.Context, name string) error
	ResumeQueue(ctx context.Context, name string) error
}

// Backend is the full service interface the HTTP layer is written against.
type Backend interface {
	ExecutionManager
	ScheduleManager
	QueueManager

	// Health returns the health status.
	Health(ctx context.Context) (*HealthResponse, error)

	// Close closes the backend connection.
	Close() error
}

// QueueInfo represents basic queue metadata.
type QueueInfo struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// QueueStats represents detailed queue statistics.
type QueueStats struct {
	Queue  string `json:"queue"`
	Status string `json:"status"`
	Stats  Stats  `json:"stats"`
}

// Stats holds per-queue execution counts.
type Stats struct {
	Queued    int `json:"queued"`
	Running   int `json:"running"`
	Scheduled int `json:"scheduled"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status        string        `json:"status"`
	Version       string        `json:"version"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Backend       BackendHealth `json:"backend"`
}

// BackendHealth describes the state of the transport and store.
type BackendHealth struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}
