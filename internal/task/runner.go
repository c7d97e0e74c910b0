package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/platform/logger"
	"github.com/phrazzld/coach-api/internal/store"
)

// Failure messages written by the runner itself.
const (
	MsgQueueFull   = "task queue is full, try again later"
	MsgInterrupted = "interrupted by server restart"
	MsgStuck       = "task exceeded the processing time limit"
)

// RunnerConfig holds configuration for the task runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue
	QueueSize int

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and failed
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks
	// If zero, defaults to 5 minutes
	StuckTaskCheckInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// Runner manages background task processing
type Runner struct {
	tracker *Tracker
	factory JobFactory
	queue   *JobQueue
	pool    *WorkerPool
	config  RunnerConfig
	logger  *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

var _ Submitter = (*Runner)(nil)

// NewRunner creates a new Runner
func NewRunner(tracker *Tracker, factory JobFactory, config RunnerConfig, logger *slog.Logger) *Runner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}

	logger = logger.With(slog.String("component", "task_runner"))
	ctx, cancel := context.WithCancel(context.Background())

	r := &Runner{
		tracker:    tracker,
		factory:    factory,
		queue:      NewJobQueue(config.QueueSize, logger),
		config:     config,
		logger:     logger,
		ctx:        ctx,
		cancelFunc: cancel,
	}
	r.pool = NewWorkerPool(r.queue, r.process, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger)
	r.pool.SetErrorHandler(r.handlePanic)
	return r
}

// Submit persists task as pending and queues its job. When the queue is
// full the task is marked failed before the error is returned, so it is
// never left pending.
//
// The queued job works on its own copy of task; the caller's value is not
// touched by the worker after Submit returns.
func (r *Runner) Submit(ctx context.Context, task *domain.GenerationTask) error {
	queued := *task
	job, err := r.factory.NewJob(&queued)
	if err != nil {
		return fmt.Errorf("failed to build job: %w", err)
	}

	if err := r.tracker.Insert(ctx, task); err != nil {
		return err
	}

	if err := r.queue.Enqueue(job); err != nil {
		log := logger.FromContextOrDefault(ctx, r.logger)
		log.Warn("rejecting task",
			"task_id", task.ID,
			"task_type", job.Type(),
			"error", err)
		if markErr := r.tracker.MarkFailed(ctx, task, MsgQueueFull); markErr != nil {
			log.Error("failed to mark rejected task failed", "task_id", task.ID, "error", markErr)
		}
		return err
	}
	return nil
}

// Start recovers unfinished tasks, launches the workers and the stuck task
// monitor.
func (r *Runner) Start() error {
	if err := r.Recover(r.ctx); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	r.pool.Start()

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop gracefully shuts down the runner, waiting for in-flight jobs. Jobs
// still queued stay pending in the store and are recovered on next start.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.pool.Stop()
	r.queue.Close()
}

// Recover handles tasks left behind by a previous process. Processing tasks
// lost their worker and are marked failed; pending tasks are rebuilt and
// queued again.
func (r *Runner) Recover(ctx context.Context) error {
	pending, err := r.tracker.ListByStatus(ctx, domain.TaskStatusPending, 0)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	processing, err := r.tracker.ListByStatus(ctx, domain.TaskStatusProcessing, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pending),
		"processing_count", len(processing))

	for _, t := range processing {
		if err := r.tracker.MarkFailed(ctx, t, MsgInterrupted); err != nil {
			r.logger.Error("failed to fail interrupted task", "task_id", t.ID, "error", err)
		}
	}

	for _, t := range pending {
		job, err := r.factory.NewJob(t)
		if err != nil {
			r.logger.Error("failed to rebuild pending task", "task_id", t.ID, "error", err)
			r.failQuietly(ctx, t, err.Error())
			continue
		}
		if err := r.queue.Enqueue(job); err != nil {
			r.logger.Error("failed to requeue pending task",
				"task_id", t.ID,
				"task_type", job.Type(),
				"error", err)
			r.failQuietly(ctx, t, MsgQueueFull)
		}
	}

	return nil
}

// process runs one job through the task lifecycle. Every path ends with the
// task terminal or already moved on by someone else.
func (r *Runner) process(ctx context.Context, job Job, workerID int) {
	t := job.Task()
	log := r.logger.With(
		"task_id", t.ID,
		"task_type", job.Type(),
		"worker_id", workerID,
	)
	ctx = logger.WithLogger(ctx, log)

	if err := r.tracker.MarkProcessing(ctx, t); err != nil {
		log.Error("failed to update task status to processing", "error", err)
		r.failQuietly(ctx, t, err.Error())
		return
	}

	log.Info("processing task")
	start := time.Now()

	resultID, err := execute(ctx, job)
	if err == nil {
		err = r.tracker.MarkCompleted(ctx, t, resultID)
		if err == nil {
			log.Info("task completed successfully",
				"result_id", resultID,
				"duration_ms", time.Since(start).Milliseconds())
			return
		}
		log.Error("failed to update task status to completed", "error", err)
	} else {
		log.Error("task execution failed", "error", err)
	}

	r.failQuietly(ctx, t, err.Error())
}

// execute calls job.Execute and converts a panic into an error.
func execute(ctx context.Context, job Job) (id uuid.UUID, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panicked: %v", p)
		}
	}()
	return job.Execute(ctx)
}

func (r *Runner) handlePanic(job Job, err error) {
	r.failQuietly(context.Background(), job.Task(), err.Error())
}

// failQuietly marks t failed and logs instead of returning problems. A task
// that is already terminal is left alone.
func (r *Runner) failQuietly(ctx context.Context, t *domain.GenerationTask, message string) {
	if t.Status.Terminal() {
		return
	}
	err := r.tracker.MarkFailed(ctx, t, message)
	if err != nil && !errors.Is(err, domain.ErrInvalidTransition) && !errors.Is(err, store.ErrStaleTask) {
		logger.FromContextOrDefault(ctx, r.logger).Error("failed to update task status to failed",
			"task_id", t.ID,
			"error", err)
	}
}

// stuckTaskMonitor periodically fails tasks that have been processing
// longer than StuckTaskAge. A worker still running such a task loses the
// later compare-and-set and leaves the failure in place.
func (r *Runner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.failStuckTasks(r.ctx)
		}
	}
}

func (r *Runner) failStuckTasks(ctx context.Context) {
	stuck, err := r.tracker.ListByStatus(ctx, domain.TaskStatusProcessing, r.config.StuckTaskAge)
	if err != nil {
		r.logger.Error("failed to check for stuck tasks", "error", err)
		return
	}
	if len(stuck) == 0 {
		return
	}

	r.logger.Info("found stuck tasks", "count", len(stuck))
	for _, t := range stuck {
		if err := r.tracker.MarkFailed(ctx, t, MsgStuck); err != nil {
			r.logger.Error("failed to fail stuck task", "task_id", t.ID, "error", err)
		}
	}
}
