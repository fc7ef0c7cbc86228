package pool

import (
	"errors"
	"sync"
)

var (
	// ErrQueueClosed is returned when submitting after the queue's consuming
	// side has been torn down.
	ErrQueueClosed = errors.New("job queue is closed")
)

// messageKind tags the control envelope placed on the shared queue.
type messageKind int

const (
	msgJob messageKind = iota
	msgTerminate
)

// message is the only value type that travels on the shared queue: either a
// job to run or a terminate signal consumed by exactly one worker.
type message struct {
	kind messageKind
	job  Job
}

// queue is the unbounded FIFO shared by all workers.
//
// Push never blocks the submitter. Receive blocks until a message is
// available; the lock is held only across the dequeue itself, never across
// job execution, so every message is consumed by exactly one worker.
type queue struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	msgs     []message
	closed   bool
}

func newQueue() *queue {
	q := &queue{}
	q.nonEmpty = sync.NewCond(&q.mu)
	return q
}

// push enqueues a message in FIFO order.
// Returns ErrQueueClosed once the queue has been closed.
func (q *queue) push(m message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.msgs = append(q.msgs, m)
	q.nonEmpty.Signal()
	return nil
}

// receive blocks until a message is available and dequeues it.
// Messages already enqueued are still delivered after close; once the queue
// is both closed and drained, receive returns ErrQueueClosed.
func (q *queue) receive() (message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.msgs) == 0 && !q.closed {
		q.nonEmpty.Wait()
	}

	if len(q.msgs) == 0 {
		return message{}, ErrQueueClosed
	}

	m := q.msgs[0]
	q.msgs = q.msgs[1:]
	return m, nil
}

// terminate enqueues n terminate messages behind everything already queued
// and closes the queue, all under one critical section. No push can be
// accepted after the terminates are in, so an acknowledged job is always
// ahead of every terminate in FIFO order. Pending messages remain
// receivable.
func (q *queue) terminate(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := 0; i < n; i++ {
		q.msgs = append(q.msgs, message{kind: msgTerminate})
	}
	q.closed = true
	q.nonEmpty.Broadcast()
}

// depth returns the number of queued messages.
func (q *queue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}
