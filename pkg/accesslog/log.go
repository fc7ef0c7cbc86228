package accesslog

import (
	"errors"
	"time"
)

// Entry is one handled connection.
type Entry struct {
	Time    time.Time
	ConnID  string
	Route   string
	Status  int
	Elapsed time.Duration
}

// Durability specifies when Append is acknowledged.
type Durability int

const (
	// DurabilityMemory acknowledges once the entry is accepted into memory.
	DurabilityMemory Durability = iota
	// DurabilityFsync acknowledges after the entry is fsync'd.
	// (Stronger durability, lower throughput.)
	DurabilityFsync
)

// Stats exposes basic operational counters.
type Stats struct {
	AppendedEntries int64
	WrittenBytes    int64
	RejectedAppends int64
}

// Log is an append-only access log.
//
// Contract summary:
// - Append-only: no in-place updates.
// - Append must fail-fast when the in-memory buffer is full.
// - Entries are written in append order.
type Log interface {
	Append(e Entry) error
	Sync() error
	Close() error
	Stats() Stats
}

// Errors.
var (
	ErrClosed       = errors.New("access log is closed")
	ErrBackpressure = errors.New("access log buffer is full")
)
