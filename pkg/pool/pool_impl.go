package pool

import (
	"context"
	"sync/atomic"

	"github.com/stokerio/stoker/pkg/failfast"
)

// defaultPool implements Pool.
type defaultPool struct {
	workers []*worker
	queue   *queue
	ctx     context.Context
	logger  Logger

	shutdown int32 // atomic: Shutdown may run exactly once

	// Metrics (atomic for thread-safety)
	submittedJobs int64
	completedJobs int64
	faultedJobs   int64
}

// New constructs the shared queue, spawns config.Workers workers and returns
// the pool. Every worker goroutine is running and receiving before New
// returns. Fails with ErrNoWorkers when config.Workers < 1; on failure no
// goroutine is started.
//
// ctx is passed to every job's Execute; it is not cancelled by Shutdown
// (jobs are never aborted externally).
func New(ctx context.Context, config Config) (Pool, error) {
	if config.Workers < 1 {
		return nil, ErrNoWorkers
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger := config.Logger
	if logger == nil {
		logger = newDefaultLogger()
	}

	p := &defaultPool{
		queue:  newQueue(),
		ctx:    ctx,
		logger: logger,
	}

	p.workers = make([]*worker, 0, config.Workers)
	for id := 0; id < config.Workers; id++ {
		p.workers = append(p.workers, newWorker(id, p))
	}

	p.logger.Infof("pool: started %d workers", config.Workers)
	return p, nil
}

// Execute implements Pool.
//
// The push is the authoritative shutdown check: the queue rejects jobs in
// the same critical section in which Shutdown closes it, so a job accepted
// with a nil error is always queued ahead of every terminate message and
// is guaranteed to run.
func (p *defaultPool) Execute(job Job) error {
	if job == nil {
		return ErrNilJob
	}

	if err := p.queue.push(message{kind: msgJob, job: job}); err != nil {
		return err
	}

	atomic.AddInt64(&p.submittedJobs, 1)
	return nil
}

// Shutdown implements Pool.
//
// One terminate message is enqueued per worker behind everything already
// queued; FIFO delivery guarantees each worker drains jobs before it sees
// its terminate, and each terminate is consumed by exactly one worker.
// Workers are then joined in order.
func (p *defaultPool) Shutdown(ctx context.Context) error {
	failfast.If(atomic.CompareAndSwapInt32(&p.shutdown, 0, 1),
		"pool Shutdown called twice")

	if ctx == nil {
		ctx = context.Background()
	}

	p.logger.Infof("pool: sending terminate to %d workers", len(p.workers))
	p.queue.terminate(len(p.workers))

	for _, w := range p.workers {
		if err := w.join(ctx); err != nil {
			return err
		}
	}

	p.logger.Infof("pool: all %d workers stopped", len(p.workers))
	return nil
}

// Workers implements Pool.
func (p *defaultPool) Workers() int {
	return len(p.workers)
}

// Stats implements Pool.
func (p *defaultPool) Stats() Stats {
	return Stats{
		Workers:       len(p.workers),
		QueuedJobs:    p.queue.depth(),
		SubmittedJobs: atomic.LoadInt64(&p.submittedJobs),
		CompletedJobs: atomic.LoadInt64(&p.completedJobs),
		FaultedJobs:   atomic.LoadInt64(&p.faultedJobs),
	}
}
