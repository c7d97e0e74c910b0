package task

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
)

// Job is one unit of background generation work bound to a task record.
type Job interface {
	// Task returns the record the job reports its lifecycle to.
	Task() *domain.GenerationTask

	// Type names the job for logs, e.g. "lesson.generate".
	Type() string

	// Execute generates and persists the content and returns the ID of the
	// entity written.
	Execute(ctx context.Context) (uuid.UUID, error)
}

// JobFactory rebuilds a runnable job from a task record.
type JobFactory interface {
	NewJob(task *domain.GenerationTask) (Job, error)
}

// JobQueueReader provides read-only access to the job channel
// allowing workers to consume jobs without the ability to enqueue
type JobQueueReader interface {
	// GetChannel returns a read-only channel for consuming jobs
	GetChannel() <-chan Job
}

// Submitter accepts new tasks for background execution.
type Submitter interface {
	Submit(ctx context.Context, task *domain.GenerationTask) error
}

func jobType(t *domain.GenerationTask) string {
	return string(t.Kind) + "." + string(t.Operation)
}
