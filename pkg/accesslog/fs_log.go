package accesslog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Config configures the file-backed access log.
type Config struct {
	Path string

	// MaxQueued bounds the in-memory append queue. When exceeded,
	// Append fails-fast.
	MaxQueued int

	// Durability controls when Append is acknowledged.
	Durability Durability
}

// DefaultConfig returns a conservative default config.
func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		MaxQueued:  1024,
		Durability: DurabilityMemory,
	}
}

type appendReq struct {
	entry Entry
	ackCh chan error
}

// fsLog implements Log with an in-memory-first append path (buffered
// channel) and a background writer goroutine.
type fsLog struct {
	cfg Config

	mu     sync.Mutex
	closed bool
	file   *os.File
	buf    *bufio.Writer

	appendCh chan appendReq
	writerWg sync.WaitGroup

	// stats
	appendedEntries int64
	writtenBytes    int64
	rejectedAppends int64
}

// New opens (or creates) the access log file in append mode.
func New(cfg Config) (Log, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.MaxQueued <= 0 {
		cfg.MaxQueued = 1024
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	l := &fsLog{
		cfg:      cfg,
		file:     f,
		buf:      bufio.NewWriterSize(f, 64<<10),
		appendCh: make(chan appendReq, cfg.MaxQueued),
	}

	l.writerWg.Add(1)
	go l.writeLoop()

	return l, nil
}

// Append implements Log.
func (l *fsLog) Append(e Entry) error {
	var ackCh chan error
	if l.cfg.Durability == DurabilityFsync {
		ackCh = make(chan error, 1)
	}

	// The enqueue happens under the lock so it cannot race Close's
	// channel close; it stays non-blocking, so a full queue fails fast.
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	select {
	case l.appendCh <- appendReq{entry: e, ackCh: ackCh}:
		atomic.AddInt64(&l.appendedEntries, 1)
	default:
		l.mu.Unlock()
		atomic.AddInt64(&l.rejectedAppends, 1)
		return ErrBackpressure
	}
	l.mu.Unlock()

	if ackCh == nil {
		return nil
	}
	return <-ackCh
}

// writeLoop drains the append queue, flushing whenever it runs empty.
func (l *fsLog) writeLoop() {
	defer l.writerWg.Done()

	for req := range l.appendCh {
		err := l.write(req.entry)
		if err == nil && req.ackCh != nil {
			err = l.flushAndSync()
		}
		if req.ackCh != nil {
			req.ackCh <- err
		}

		if len(l.appendCh) == 0 {
			l.mu.Lock()
			_ = l.buf.Flush()
			l.mu.Unlock()
		}
	}
}

func (l *fsLog) write(e Entry) error {
	line := fmt.Sprintf("%s conn=%s route=%q status=%d elapsed=%s\n",
		e.Time.UTC().Format(time.RFC3339Nano),
		e.ConnID,
		e.Route,
		e.Status,
		e.Elapsed)

	l.mu.Lock()
	defer l.mu.Unlock()
	n, err := l.buf.WriteString(line)
	atomic.AddInt64(&l.writtenBytes, int64(n))
	return err
}

func (l *fsLog) flushAndSync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.buf.Flush(); err != nil {
		return err
	}
	return l.file.Sync()
}

// Sync implements Log: flushes buffered entries to disk.
func (l *fsLog) Sync() error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return l.flushAndSync()
}

// Close implements Log: drains pending entries, flushes and closes the file.
func (l *fsLog) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	close(l.appendCh)
	l.writerWg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.buf.Flush(); err != nil {
		_ = l.file.Close()
		return err
	}
	if err := l.file.Sync(); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}

// Stats implements Log.
func (l *fsLog) Stats() Stats {
	return Stats{
		AppendedEntries: atomic.LoadInt64(&l.appendedEntries),
		WrittenBytes:    atomic.LoadInt64(&l.writtenBytes),
		RejectedAppends: atomic.LoadInt64(&l.rejectedAppends),
	}
}

// nopLog discards entries; used when the access log is disabled.
type nopLog struct{}

// NewNop returns a Log that discards everything.
func NewNop() Log {
	return nopLog{}
}

func (nopLog) Append(e Entry) error { return nil }
func (nopLog) Sync() error          { return nil }
func (nopLog) Close() error         { return nil }
func (nopLog) Stats() Stats         { return Stats{} }
