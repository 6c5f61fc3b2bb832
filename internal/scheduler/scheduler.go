package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	sqstransport "github.com/retryexec/retryexec/internal/sqs"
)

// Scheduler runs the background loops of the server: promoting due
// deferred executions, firing cron schedules, and refreshing queue
// depth metrics.
type Scheduler struct {
	transport *sqstransport.Transport
	stop      chan struct{}
	stopOnce  sync.Once
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(transport *sqstransport.Transport, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		transport: transport,
		stop:      make(chan struct{}),
		logger:    logger,
	}
}

// Start begins all background goroutines.
func (s *Scheduler) Start() {
	// Promote deferred executions that are due. Short deferrals ride the
	// native SQS delay; everything longer goes through this loop.
	go s.runLoop("scheduled-promoter", 1*time.Second, s.transport.PromoteScheduled)

	// Fire cron schedules.
	go s.runLoop("schedule-firer", 10*time.Second, s.transport.FireSchedules)

	// Keep the queue depth gauge fresh.
	go s.runLoop("queue-depth", 15*time.Second, s.transport.RefreshQueueDepth)
}

// Stop signals all background goroutines to stop.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *Scheduler) runLoop(name string, interval time.Duration, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := fn(ctx); err != nil {
				s.logger.Error("scheduler loop error", "loop", name, "error", err)
			}
			cancel()
		}
	}
}
