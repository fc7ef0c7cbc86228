package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew_ZeroWorkersFails(t *testing.T) {
	p, err := New(context.Background(), Config{Workers: 0})
	if !errors.Is(err, ErrNoWorkers) {
		t.Errorf("New() error = %v, want ErrNoWorkers", err)
	}
	if p != nil {
		t.Error("New() should not return a partial pool on failure")
	}
}

func TestNew_AllWorkersReceiving(t *testing.T) {
	p, err := New(context.Background(), Config{Workers: 3})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if p.Workers() != 3 {
		t.Errorf("Workers() = %d, want 3", p.Workers())
	}

	// Three blocking jobs must all start: proves three concurrent workers.
	var started sync.WaitGroup
	started.Add(3)
	release := make(chan struct{})
	for i := 0; i < 3; i++ {
		err := p.Execute(JobFunc(func(ctx context.Context) error {
			started.Done()
			<-release
			return nil
		}))
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		started.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not all workers picked up a job; pool is not fully live")
	}

	close(release)
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestExecute_ReturnsBeforeJobRuns(t *testing.T) {
	p, err := New(context.Background(), Config{Workers: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Shutdown(context.Background())

	submitted := make(chan struct{})
	ran := make(chan struct{})

	err = p.Execute(JobFunc(func(ctx context.Context) error {
		// The submitter must have returned from Execute already.
		<-submitted
		close(ran)
		return nil
	}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	close(submitted)

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestExecute_NilJob(t *testing.T) {
	p, err := New(context.Background(), Config{Workers: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Shutdown(context.Background())

	if err := p.Execute(nil); !errors.Is(err, ErrNilJob) {
		t.Errorf("Execute(nil) error = %v, want ErrNilJob", err)
	}
}

func TestExecute_AfterShutdown(t *testing.T) {
	p, err := New(context.Background(), Config{Workers: 2})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	err = p.Execute(JobFunc(func(ctx context.Context) error { return nil }))
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Execute() after Shutdown error = %v, want ErrQueueClosed", err)
	}
}

// A job accepted with a nil error must run even when the submission races
// Shutdown; acceptance and the shutdown cut-off share one critical section.
func TestExecute_RacingShutdownNeverLosesAcceptedJob(t *testing.T) {
	for i := 0; i < 200; i++ {
		p, err := New(context.Background(), Config{Workers: 4, Logger: nopLogger{}})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		var accepted, ran int64
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				err := p.Execute(JobFunc(func(ctx context.Context) error {
					atomic.AddInt64(&ran, 1)
					return nil
				}))
				if err != nil {
					return
				}
				atomic.AddInt64(&accepted, 1)
			}
		}()

		if err := p.Shutdown(context.Background()); err != nil {
			t.Fatalf("Shutdown() error = %v", err)
		}
		wg.Wait()

		if got, want := atomic.LoadInt64(&ran), atomic.LoadInt64(&accepted); got != want {
			t.Fatalf("iteration %d: jobs run = %d, accepted = %d; an accepted job was lost", i, got, want)
		}
	}
}

// Two workers: a slow job must not delay a fast one submitted right after.
func TestConcurrentExecution(t *testing.T) {
	p, err := New(context.Background(), Config{Workers: 2})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	p.Execute(NewNamedJob("slow", func(ctx context.Context) error {
		time.Sleep(500 * time.Millisecond)
		record("A done")
		return nil
	}))
	p.Execute(NewNamedJob("fast", func(ctx context.Context) error {
		record("B done")
		return nil
	}))

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if len(order) != 2 || order[0] != "B done" || order[1] != "A done" {
		t.Errorf("order = %v, want [B done, A done]", order)
	}
}

// One worker: jobs are strictly serialized in submission order.
func TestSerializedExecution(t *testing.T) {
	p, err := New(context.Background(), Config{Workers: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	p.Execute(NewNamedJob("first", func(ctx context.Context) error {
		time.Sleep(100 * time.Millisecond)
		record("A done")
		return nil
	}))
	p.Execute(NewNamedJob("second", func(ctx context.Context) error {
		record("B done")
		return nil
	}))

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if len(order) != 2 || order[0] != "A done" || order[1] != "B done" {
		t.Errorf("order = %v, want [A done, B done]", order)
	}
}

// Shutdown drains every previously submitted job before returning.
func TestShutdown_DrainsQueuedJobs(t *testing.T) {
	p, err := New(context.Background(), Config{Workers: 3})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var mu sync.Mutex
	ran := 0
	for i := 0; i < 10; i++ {
		err := p.Execute(JobFunc(func(ctx context.Context) error {
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		}))
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if ran != 10 {
		t.Errorf("jobs completed before Shutdown returned = %d, want 10", ran)
	}

	stats := p.Stats()
	if stats.CompletedJobs != 10 {
		t.Errorf("Stats().CompletedJobs = %d, want 10", stats.CompletedJobs)
	}
	if stats.QueuedJobs != 0 {
		t.Errorf("Stats().QueuedJobs = %d, want 0", stats.QueuedJobs)
	}
}

func TestShutdown_TwicePanics(t *testing.T) {
	p, err := New(context.Background(), Config{Workers: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on second Shutdown")
		}
	}()
	p.Shutdown(context.Background())
}

func TestShutdown_Timeout(t *testing.T) {
	p, err := New(context.Background(), Config{Workers: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	release := make(chan struct{})
	p.Execute(JobFunc(func(ctx context.Context) error {
		<-release
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() error = %v, want deadline exceeded", err)
	}
	close(release)
}

// A panicking job is isolated: the worker survives and keeps serving.
func TestJobPanicIsolation(t *testing.T) {
	p, err := New(context.Background(), Config{Workers: 1, Logger: nopLogger{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	p.Execute(NewNamedJob("faulty", func(ctx context.Context) error {
		panic("boom")
	}))

	ran := make(chan struct{})
	p.Execute(JobFunc(func(ctx context.Context) error {
		close(ran)
		return nil
	}))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panicking job")
	}

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	stats := p.Stats()
	if stats.FaultedJobs != 1 {
		t.Errorf("Stats().FaultedJobs = %d, want 1", stats.FaultedJobs)
	}
	if stats.CompletedJobs != 1 {
		t.Errorf("Stats().CompletedJobs = %d, want 1", stats.CompletedJobs)
	}
}

func TestJobErrorIsNotFatal(t *testing.T) {
	p, err := New(context.Background(), Config{Workers: 1, Logger: nopLogger{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	p.Execute(JobFunc(func(ctx context.Context) error {
		return errors.New("job-internal failure")
	}))

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if got := p.Stats().CompletedJobs; got != 1 {
		t.Errorf("Stats().CompletedJobs = %d, want 1", got)
	}
}

// nopLogger silences expected failure logs in tests.
type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...interface{}) {}
func (nopLogger) Infof(format string, args ...interface{})  {}
func (nopLogger) Errorf(format string, args ...interface{}) {}
