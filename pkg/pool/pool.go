package pool

import (
	"context"
	"errors"
)

var (
	// ErrNoWorkers is returned when constructing a pool with fewer than one
	// worker. No partial pool is created.
	ErrNoWorkers = errors.New("pool size must be at least one worker")

	// ErrNilJob is returned when submitting a nil job.
	ErrNilJob = errors.New("job cannot be nil")
)

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Workers       int   // Fixed number of worker goroutines
	QueuedJobs    int   // Messages currently waiting on the shared queue
	SubmittedJobs int64 // Total jobs accepted by Execute
	CompletedJobs int64 // Total jobs run to completion
	FaultedJobs   int64 // Total jobs that panicked (isolated)
}

// Pool is a fixed-size worker pool over one shared FIFO queue.
//
// All workers are live and receiving before New returns; the pool is never
// resized. Jobs are delivered in submission order to whichever worker is
// idle, each job to exactly one worker.
type Pool interface {
	// Execute enqueues job for asynchronous execution on some worker and
	// returns immediately; it never blocks waiting for queue space.
	// Returns ErrQueueClosed after Shutdown and ErrNilJob for a nil job.
	// Nothing about the job's outcome is reported back to the caller.
	Execute(job Job) error

	// Shutdown stops the pool: it sends one terminate message per worker,
	// then joins every worker in order. Every job enqueued before Shutdown
	// completes before Shutdown returns. Returns the context error if ctx
	// expires while waiting.
	//
	// Shutdown is the only way to stop the pool and must be called exactly
	// once; a second call is a programming error and panics.
	Shutdown(ctx context.Context) error

	// Workers returns the fixed pool size.
	Workers() int

	// Stats returns a snapshot of pool activity.
	Stats() Stats
}

// Config configures a Pool.
type Config struct {
	// Workers is the fixed pool size; must be at least 1.
	Workers int

	// Logger receives pool lifecycle and job failure logs.
	// Nil selects a std-log default.
	Logger Logger
}
