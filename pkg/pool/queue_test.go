package pool

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := newQueue()

	names := []string{"a", "b", "c"}
	for _, name := range names {
		job := NewNamedJob(name, func(ctx context.Context) error { return nil })
		if err := q.push(message{kind: msgJob, job: job}); err != nil {
			t.Fatalf("push() error = %v", err)
		}
	}

	for _, want := range names {
		msg, err := q.receive()
		if err != nil {
			t.Fatalf("receive() error = %v", err)
		}
		if got := msg.job.Name(); got != want {
			t.Errorf("receive() job = %q, want %q", got, want)
		}
	}
}

func TestQueue_PushAfterTerminate(t *testing.T) {
	q := newQueue()
	q.terminate(1)

	err := q.push(message{kind: msgJob})
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("push() after terminate error = %v, want ErrQueueClosed", err)
	}
}

// terminate places its messages behind queued jobs and closes the queue in
// one step, so a job is either rejected or ordered ahead of every terminate.
func TestQueue_TerminateOrdersBehindQueuedJobs(t *testing.T) {
	q := newQueue()
	job := NewNamedJob("queued", func(ctx context.Context) error { return nil })
	if err := q.push(message{kind: msgJob, job: job}); err != nil {
		t.Fatalf("push() error = %v", err)
	}
	q.terminate(2)

	msg, err := q.receive()
	if err != nil {
		t.Fatalf("receive() error = %v", err)
	}
	if msg.kind != msgJob || msg.job.Name() != "queued" {
		t.Errorf("receive() = %+v, want the queued job first", msg)
	}

	for i := 0; i < 2; i++ {
		msg, err := q.receive()
		if err != nil {
			t.Fatalf("receive() error = %v", err)
		}
		if msg.kind != msgTerminate {
			t.Errorf("receive() kind = %v, want msgTerminate", msg.kind)
		}
	}

	if _, err := q.receive(); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("receive() on drained closed queue error = %v, want ErrQueueClosed", err)
	}
}

func TestQueue_ReceiveBlocksUntilPush(t *testing.T) {
	q := newQueue()

	got := make(chan message, 1)
	go func() {
		msg, err := q.receive()
		if err != nil {
			return
		}
		got <- msg
	}()

	// Receiver must be parked, not spinning through an empty queue.
	select {
	case <-got:
		t.Fatal("receive() returned before any push")
	case <-time.After(50 * time.Millisecond):
	}

	if err := q.push(message{kind: msgTerminate}); err != nil {
		t.Fatalf("push() error = %v", err)
	}

	select {
	case msg := <-got:
		if msg.kind != msgTerminate {
			t.Errorf("receive() kind = %v, want msgTerminate", msg.kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("receive() did not wake after push")
	}

	if depth := q.depth(); depth != 0 {
		t.Errorf("depth() = %d, want 0", depth)
	}
}
