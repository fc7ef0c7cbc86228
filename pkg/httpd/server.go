package httpd

import (
	"time"
)

// Config configures the frontend server.
// The listening address is an explicit value so independent instances can
// run side by side (":0" picks a free port, see ListeningAddr).
type Config struct {
	Addr string

	// Workers is the size of the connection-handling pool.
	Workers int

	// IndexFile and NotFoundFile are the static resources served for the
	// recognized and unrecognized routes respectively.
	IndexFile    string
	NotFoundFile string

	// SleepDelay is how long the sleep route blocks its worker before
	// answering.
	SleepDelay time.Duration

	// Connection settings.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// StopTimeout bounds how long Stop waits for queued connections to
	// drain.
	StopTimeout time.Duration
}

// DefaultConfig mirrors the classic fixed literals of this server.
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:7878",
		Workers:      4,
		IndexFile:    "static/index.html",
		NotFoundFile: "static/404.html",
		SleepDelay:   5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		StopTimeout:  30 * time.Second,
	}
}

// ServerMetrics provides frontend counters.
type ServerMetrics struct {
	TotalAccepted      int64 // Connections accepted by the listener
	HandledConnections int64 // Connections whose job ran to a response
	ErrorConnections   int64 // Connections dropped by an I/O or file error
	ServedOK           int64 // 200 responses
	ServedNotFound     int64 // 404 responses
	Workers            int   // Pool size
}

// Observer receives the outcome of each handled connection; used to feed
// metrics and the access log without coupling this package to them.
type Observer func(connID string, status int, route string, elapsed time.Duration)
