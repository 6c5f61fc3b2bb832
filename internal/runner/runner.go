package runner

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/retryexec/retryexec/internal/core"
	"github.com/retryexec/retryexec/internal/metrics"
	"github.com/retryexec/retryexec/internal/state"
	"github.com/retryexec/retryexec/internal/tracing"
	"github.com/retryexec/retryexec/retry"
)

// Queue is the message transport the runner consumes from.
type Queue interface {
	Receive(ctx context.Context, queue string, max int, visibilityTimeoutSec, waitSec int32) ([]*core.Execution, error)
	DeleteMessage(ctx context.Context, queue, receiptHandle string) error
	ExtendVisibility(ctx context.Context, queue, receiptHandle string, seconds int32) error
}

// Config holds runner settings.
type Config struct {
	Queues                []string
	WorkerCount           int
	VisibilityTimeoutSec  int32
	WaitTimeSec           int32
	DefaultAttemptTimeout time.Duration
	CancelPollInterval    time.Duration
	TerminalRetention     time.Duration
}

// Runner consumes executions from the queue and drives their bounded
// retry loops to a terminal state.
type Runner struct {
	queue      Queue
	store      state.Store
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	wg sync.WaitGroup
}

// New creates a Runner.
func New(queue Queue, store state.Store, cfg Config) *Runner {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.VisibilityTimeoutSec < 1 {
		cfg.VisibilityTimeoutSec = 30
	}
	if cfg.WaitTimeSec < 0 {
		cfg.WaitTimeSec = 0
	}
	if cfg.CancelPollInterval <= 0 {
		cfg.CancelPollInterval = 2 * time.Second
	}
	if len(cfg.Queues) == 0 {
		cfg.Queues = []string{"default"}
	}
	return &Runner{
		queue:      queue,
		store:      store,
		cfg:        cfg,
		httpClient: defaultHTTPClient(),
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger for the runner.
func (r *Runner) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

// SetHTTPClient overrides the client used for http.request operations.
func (r *Runner) SetHTTPClient(client *http.Client) {
	r.httpClient = client
}

// Start launches the worker pool. Workers stop when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.cfg.WorkerCount; i++ {
		r.wg.Add(1)
		go func(worker int) {
			defer r.wg.Done()
			r.runLoop(ctx, worker)
		}(i)
	}
	r.logger.Info("runner started",
		"workers", r.cfg.WorkerCount, "queues", r.cfg.Queues)
}

// Wait blocks until all workers have exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) runLoop(ctx context.Context, worker int) {
	for {
		received := 0
		for _, queue := range r.cfg.Queues {
			if ctx.Err() != nil {
				return
			}

			execs, err := r.queue.Receive(ctx, queue, 1, r.cfg.VisibilityTimeoutSec, r.cfg.WaitTimeSec)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.Error("receive failed", "queue", queue, "error", err)
				continue
			}

			for _, exec := range execs {
				received++
				r.Process(ctx, exec)
			}
		}

		if received == 0 {
			// Idle backoff when long polling is disabled or queues are paused.
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// Process runs one received execution to a terminal state.
func (r *Runner) Process(ctx context.Context, exec *core.Execution) {
	logger := r.logger.With("execution_id", exec.ID, "queue", exec.Queue, "kind", exec.Operation.Kind)

	record, err := r.store.GetExecution(ctx, exec.ID)
	if err != nil {
		// First sight of this message; adopt it into the store.
		record = state.ExecutionToRecord(exec)
		record.GSI3PK = ""
		record.GSI3SK = nil
		if putErr := r.store.PutExecution(ctx, record); putErr != nil {
			logger.Error("failed to adopt execution", "error", putErr)
			return
		}
	}

	if core.IsTerminalState(record.State) {
		// Stale redelivery. Drop the message.
		r.deleteMessage(ctx, exec, logger)
		return
	}

	// Native-delay messages arrive still in scheduled state.
	if record.State == core.StateScheduled {
		if err := r.store.UpdateExecutionState(ctx, exec.ID, core.StateQueued, map[string]any{
			"enqueued_at": core.NowFormatted(),
		}); err != nil {
			logger.Error("failed to promote scheduled execution", "error", err)
			return
		}
	}

	startedAt := time.Now()
	if err := r.store.UpdateExecutionState(ctx, exec.ID, core.StateRunning, map[string]any{
		"started_at":         core.FormatTime(startedAt),
		"sqs_receipt_handle": exec.ReceiptHandle,
	}); err != nil {
		logger.Error("failed to mark execution running", "error", err)
		return
	}

	metrics.ExecutionsRunning.Inc()
	defer metrics.ExecutionsRunning.Dec()

	runCtx, span := tracing.StartSpan(ctx, "execution.run",
		tracing.ExecutionID(exec.ID),
		tracing.OperationKind(exec.Operation.Kind),
		tracing.Queue(exec.Queue))
	defer span.End()

	op, err := BuildOperation(exec.Operation, r.httpClient)
	if err != nil {
		tracing.RecordError(span, err)
		r.finishFailed(ctx, exec, startedAt, []core.AttemptError{{
			Attempt: 1,
			Message: err.Error(),
			At:      core.NowFormatted(),
		}}, logger)
		r.deleteMessage(ctx, exec, logger)
		return
	}

	policy := core.DefaultRetryPolicy()
	if exec.Retry != nil {
		policy = *exec.Retry
	}
	maxAttempts := exec.MaxAttemptsOrDefault()

	timeout := r.cfg.DefaultAttemptTimeout
	if exec.TimeoutMs != nil && *exec.TimeoutMs > 0 {
		timeout = time.Duration(*exec.TimeoutMs) * time.Millisecond
	}
	if timeout > 0 {
		op = retry.WithAttemptTimeout(op, timeout)
	}
	if policy.HasDelay() {
		op = retry.WithDelay(op, policy.Delay)
	}

	// Watch for an API-side cancel while attempts are in flight.
	execCtx, cancelExec := context.WithCancel(runCtx)
	defer cancelExec()
	watchDone := make(chan struct{})
	go r.watchCancel(execCtx, exec.ID, cancelExec, watchDone)

	var (
		history  []core.AttemptError
		attempts int
	)
	onAttempt := func(attempt int, attemptErr error) {
		n := attempt + 1 // hook numbering is 0-based
		attempts = n
		if attemptErr == nil {
			metrics.AttemptsTotal.WithLabelValues(exec.Queue, exec.Operation.Kind, "success").Inc()
			return
		}
		metrics.AttemptsTotal.WithLabelValues(exec.Queue, exec.Operation.Kind, "failure").Inc()
		history = append(history, core.AttemptError{
			Attempt: n,
			Message: attemptErr.Error(),
			At:      core.NowFormatted(),
		})
		logger.Warn("attempt failed",
			"attempt", n, "max_attempts", maxAttempts, "error", attemptErr)

		// Keep the message invisible while further attempts run.
		if exec.ReceiptHandle != "" && n < maxAttempts {
			if visErr := r.queue.ExtendVisibility(ctx, exec.Queue, exec.ReceiptHandle, r.cfg.VisibilityTimeoutSec); visErr != nil {
				logger.Warn("failed to extend visibility", "error", visErr)
			}
		}

		r.recordAttempt(ctx, exec.ID, n, history, logger)
	}

	opts := []retry.Option{retry.WithOnAttempt(onAttempt)}
	if policy.AggregateErrors {
		opts = append(opts, retry.WithAggregateErrors())
	}

	result, execErr := retry.Execute(execCtx, op, maxAttempts, opts...)
	cancelExec()
	<-watchDone

	if execErr == nil {
		tracing.SetOK(span)
		r.finishSucceeded(ctx, exec, startedAt, attempts, result, logger)
		r.deleteMessage(ctx, exec, logger)
		return
	}

	tracing.RecordError(span, execErr)

	// Server shutdown mid-run: leave the message for redelivery and keep
	// whatever state is in the store.
	if ctx.Err() != nil {
		logger.Info("execution interrupted by shutdown", "attempts", attempts)
		return
	}

	// API-side cancel: Cancel already moved the store to cancelled.
	if cancelled, checkErr := r.isCancelled(ctx, exec.ID); checkErr == nil && cancelled {
		metrics.ExecutionsCancelled.WithLabelValues(exec.Queue, exec.Operation.Kind).Inc()
		logger.Info("execution cancelled mid-run", "attempts", attempts)
		r.deleteMessage(ctx, exec, logger)
		return
	}

	r.finishFailed(ctx, exec, startedAt, history, logger)
	r.deleteMessage(ctx, exec, logger)
}

func (r *Runner) watchCancel(ctx context.Context, id string, cancel context.CancelFunc, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.cfg.CancelPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if cancelled, err := r.isCancelled(ctx, id); err == nil && cancelled {
				cancel()
				return
			}
		}
	}
}

func (r *Runner) isCancelled(ctx context.Context, id string) (bool, error) {
	record, err := r.store.GetExecution(ctx, id)
	if err != nil {
		return false, err
	}
	return record.State == core.StateCancelled, nil
}

// recordAttempt persists the attempt counter and error history mid-run so
// GET /v1/executions/{id} shows progress.
func (r *Runner) recordAttempt(ctx context.Context, id string, attempt int, history []core.AttemptError, logger *slog.Logger) {
	histJSON, err := json.Marshal(history)
	if err != nil {
		logger.Warn("failed to marshal attempt history", "error", err)
		return
	}
	updates := map[string]any{
		"attempt":       attempt,
		"error_history": string(histJSON),
	}
	if err := r.store.UpdateExecutionState(ctx, id, core.StateRunning, updates); err != nil {
		logger.Warn("failed to record attempt", "attempt", attempt, "error", err)
	}
}

func (r *Runner) finishSucceeded(ctx context.Context, exec *core.Execution, startedAt time.Time, attempts int, result json.RawMessage, logger *slog.Logger) {
	now := core.NowFormatted()
	updates := map[string]any{
		"completed_at":       now,
		"attempt":            attempts,
		"error_data":         "",
		"sqs_receipt_handle": "",
	}
	if len(result) > 0 {
		updates["result"] = string(result)
	}
	r.applyRetention(updates)

	if err := r.store.UpdateExecutionState(ctx, exec.ID, core.StateSucceeded, updates); err != nil {
		logger.Error("failed to mark execution succeeded", "error", err)
		return
	}
	if err := r.store.IncrementQueueSucceeded(ctx, exec.Queue); err != nil {
		logger.Warn("failed to increment succeeded count", "error", err)
	}

	metrics.ExecutionsSucceeded.WithLabelValues(exec.Queue, exec.Operation.Kind).Inc()
	metrics.AttemptsPerExecution.WithLabelValues(exec.Queue, exec.Operation.Kind).Observe(float64(attempts))
	metrics.ExecutionDuration.WithLabelValues(exec.Queue, exec.Operation.Kind).Observe(time.Since(startedAt).Seconds())

	logger.Info("execution succeeded", "attempts", attempts)
}

// finishFailed marks an execution failed. The primary error field carries
// only the final attempt's error; the full history is kept separately.
func (r *Runner) finishFailed(ctx context.Context, exec *core.Execution, startedAt time.Time, history []core.AttemptError, logger *slog.Logger) {
	now := core.NowFormatted()
	updates := map[string]any{
		"completed_at":       now,
		"sqs_receipt_handle": "",
	}
	if len(history) > 0 {
		last := history[len(history)-1]
		updates["attempt"] = last.Attempt
		if lastJSON, err := json.Marshal(last); err == nil {
			updates["error_data"] = string(lastJSON)
		}
		if histJSON, err := json.Marshal(history); err == nil {
			updates["error_history"] = string(histJSON)
		}
	}
	r.applyRetention(updates)

	if err := r.store.UpdateExecutionState(ctx, exec.ID, core.StateFailed, updates); err != nil {
		logger.Error("failed to mark execution failed", "error", err)
		return
	}

	attempts := len(history)
	metrics.ExecutionsFailed.WithLabelValues(exec.Queue, exec.Operation.Kind).Inc()
	metrics.AttemptsPerExecution.WithLabelValues(exec.Queue, exec.Operation.Kind).Observe(float64(attempts))
	metrics.ExecutionDuration.WithLabelValues(exec.Queue, exec.Operation.Kind).Observe(time.Since(startedAt).Seconds())

	logger.Warn("execution failed", "attempts", attempts)
}

func (r *Runner) applyRetention(updates map[string]any) {
	if ttl := state.TerminalTTL(r.cfg.TerminalRetention); ttl != nil {
		updates["ttl"] = *ttl
	}
}

func (r *Runner) deleteMessage(ctx context.Context, exec *core.Execution, logger *slog.Logger) {
	if exec.ReceiptHandle == "" {
		return
	}
	if err := r.queue.DeleteMessage(ctx, exec.Queue, exec.ReceiptHandle); err != nil {
		logger.Warn("failed to delete message", "error", err)
	}
}
