package pool

import (
	"context"
	"sync/atomic"

	"github.com/stokerio/stoker/pkg/failfast"
)

// worker is one persistent goroutine running a receive-dispatch loop
// against the pool's shared queue.
type worker struct {
	id     int
	pool   *defaultPool
	done   chan struct{}
	joined int32 // atomic: the join handle may be taken exactly once
}

// newWorker spawns the worker goroutine; it is receiving before newWorker
// returns to the pool constructor.
func newWorker(id int, p *defaultPool) *worker {
	w := &worker{
		id:   id,
		pool: p,
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

// run loops until a terminate message is received.
// The queue lock is held only inside receive, never across job execution,
// so sibling workers dequeue and run concurrently.
func (w *worker) run() {
	defer close(w.done)

	for {
		msg, err := w.pool.queue.receive()
		if err != nil {
			// Queue closed and drained. Normally a terminate message
			// arrives first; this path covers a torn-down queue.
			return
		}

		switch msg.kind {
		case msgJob:
			w.dispatch(msg.job)
		case msgTerminate:
			w.pool.logger.Debugf("worker %d: terminating", w.id)
			return
		}
	}
}

// dispatch runs a single job with panic isolation: a faulting job is logged
// and counted, and the worker keeps its loop, so the pool's effective size
// never shrinks.
func (w *worker) dispatch(job Job) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&w.pool.faultedJobs, 1)
			w.pool.logger.Errorf("worker %d: panic in job %s (isolated): %v", w.id, job.Name(), r)
		}
	}()

	w.pool.logger.Debugf("worker %d: executing job %s", w.id, job.Name())

	if err := job.Execute(w.pool.ctx); err != nil {
		w.pool.logger.Errorf("worker %d: job %s failed: %v", w.id, job.Name(), err)
	}

	atomic.AddInt64(&w.pool.completedJobs, 1)
}

// join blocks until the worker goroutine has exited.
// The handle is taken exactly once; joining twice is a programming error.
func (w *worker) join(ctx context.Context) error {
	failfast.If(atomic.CompareAndSwapInt32(&w.joined, 0, 1),
		"worker %d join handle already taken", w.id)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
