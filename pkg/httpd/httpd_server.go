package httpd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/stokerio/stoker/pkg/failfast"
	"github.com/stokerio/stoker/pkg/logging"
	"github.com/stokerio/stoker/pkg/pool"
)

// Server is the network-facing frontend: a blocking accept loop that turns
// every accepted connection into exactly one pool job. It never waits for a
// job's outcome; queued connections are drained by the pool on Stop.
type Server struct {
	config Config
	logger logging.Logger
	jobs   pool.Pool

	mu        sync.RWMutex
	listener  net.Listener
	observers []Observer
	stopping  int32

	// Metrics (atomic for thread-safety)
	totalAccepted      int64
	handledConnections int64
	errorConnections   int64
	servedOK           int64
	servedNotFound     int64
}

// NewServer creates the frontend and its worker pool. All pool workers are
// live when NewServer returns. Fails if the pool size is invalid.
func NewServer(ctx context.Context, config Config, logger logging.Logger) (*Server, error) {
	if config.Addr == "" {
		config.Addr = "127.0.0.1:7878"
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 5 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}
	if config.StopTimeout <= 0 {
		config.StopTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewDefault()
	}

	jobs, err := pool.New(ctx, pool.Config{
		Workers: config.Workers,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("frontend pool: %w", err)
	}

	return &Server{
		config: config,
		logger: logger,
		jobs:   jobs,
	}, nil
}

// AddObserver registers a connection-outcome observer (fail-fast on nil).
// Register observers before Start.
func (s *Server) AddObserver(fn Observer) {
	failfast.NotNil(fn, "observer")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Pool exposes the underlying worker pool (stats, tests).
func (s *Server) Pool() pool.Pool {
	return s.jobs
}

// ListeningAddr returns the actual listening address (useful when Addr is
// ":0"). Empty when not listening.
func (s *Server) ListeningAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start listens on the configured address and accepts until Stop.
// Blocking; returns nil on a clean shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Infof("httpd: listening on %s with %d workers", ln.Addr(), s.jobs.Workers())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if atomic.LoadInt32(&s.stopping) == 1 || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		atomic.AddInt64(&s.totalAccepted, 1)
		s.submitConn(conn)
	}
}

// submitConn wraps conn in a one-shot job owned by whichever worker
// receives it. An accept failure past this point is fatal to this
// connection only.
func (s *Server) submitConn(conn net.Conn) {
	connID := uuid.New().String()
	s.logger.Debugf("conn %s: accepted from %s", connID, conn.RemoteAddr())

	job := pool.NewNamedJob("conn-"+connID, func(ctx context.Context) error {
		s.handleConn(ctx, conn, connID)
		return nil
	})

	if err := s.jobs.Execute(job); err != nil {
		atomic.AddInt64(&s.errorConnections, 1)
		s.logger.Errorf("conn %s: submit failed: %v", connID, err)
		_ = conn.Close()
	}
}

// Stop closes the listener, then shuts the pool down, which drains every
// connection already queued before returning. Stop must be called exactly
// once.
func (s *Server) Stop() error {
	atomic.StoreInt32(&s.stopping, 1)

	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.StopTimeout)
	defer cancel()

	return s.jobs.Shutdown(ctx)
}

// Metrics returns current frontend counters.
func (s *Server) Metrics() ServerMetrics {
	return ServerMetrics{
		TotalAccepted:      atomic.LoadInt64(&s.totalAccepted),
		HandledConnections: atomic.LoadInt64(&s.handledConnections),
		ErrorConnections:   atomic.LoadInt64(&s.errorConnections),
		ServedOK:           atomic.LoadInt64(&s.servedOK),
		ServedNotFound:     atomic.LoadInt64(&s.servedNotFound),
		Workers:            s.jobs.Workers(),
	}
}

func (s *Server) notifyObservers(connID string, status int, route string, elapsed time.Duration) {
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(connID, status, route, elapsed)
	}
}
