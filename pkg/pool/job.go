package pool

import (
	"context"
)

// Job is a one-shot unit of work submitted to the pool.
// A Job is invoked at most once, by exactly one worker, never by the
// submitting goroutine.
type Job interface {
	// Execute performs the work.
	// The returned error is logged and counted by the pool; it is never
	// delivered back to the submitter.
	Execute(ctx context.Context) error

	// Name returns a human-readable name for logging.
	Name() string
}

// JobFunc adapts a plain function to the Job interface.
type JobFunc func(ctx context.Context) error

// Execute implements Job for JobFunc.
func (f JobFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Name returns a default name for JobFunc.
func (f JobFunc) Name() string {
	return "JobFunc"
}

// NamedJob wraps a JobFunc with a custom name.
type NamedJob struct {
	name string
	fn   JobFunc
}

// NewNamedJob creates a NamedJob.
func NewNamedJob(name string, fn JobFunc) *NamedJob {
	return &NamedJob{
		name: name,
		fn:   fn,
	}
}

// Execute implements Job.
func (j *NamedJob) Execute(ctx context.Context) error {
	return j.fn(ctx)
}

// Name returns the job name.
func (j *NamedJob) Name() string {
	return j.name
}
