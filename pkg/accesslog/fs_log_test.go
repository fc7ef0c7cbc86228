package accesslog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testEntry(connID, route string, status int) Entry {
	return Entry{
		Time:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		ConnID:  connID,
		Route:   route,
		Status:  status,
		Elapsed: 15 * time.Millisecond,
	}
}

func TestNew_RequiresPath(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New without a path should fail")
	}
}

func TestAppendAndClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	l, err := New(DefaultConfig(path))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := l.Append(testEntry("c1", "/", 200)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append(testEntry("c2", "unmatched", 404)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "conn=c1") || !strings.Contains(lines[0], "status=200") {
		t.Errorf("line 0 = %q, want conn=c1 status=200", lines[0])
	}
	if !strings.Contains(lines[1], `route="unmatched"`) || !strings.Contains(lines[1], "status=404") {
		t.Errorf("line 1 = %q, want unmatched 404", lines[1])
	}

	if got := l.Stats().AppendedEntries; got != 2 {
		t.Errorf("Stats().AppendedEntries = %d, want 2", got)
	}
}

func TestAppend_FsyncDurability(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	cfg := DefaultConfig(path)
	cfg.Durability = DurabilityFsync

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	if err := l.Append(testEntry("c1", "/", 200)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Fsync acknowledgement means the entry is on disk already.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "conn=c1") {
		t.Errorf("entry not on disk after fsync ack: %q", string(data))
	}
}

func TestAppend_AfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	l, err := New(DefaultConfig(path))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := l.Append(testEntry("c1", "/", 200)); !errors.Is(err, ErrClosed) {
		t.Errorf("Append after Close error = %v, want ErrClosed", err)
	}
	if err := l.Sync(); !errors.Is(err, ErrClosed) {
		t.Errorf("Sync after Close error = %v, want ErrClosed", err)
	}
	// Closing twice is tolerated.
	if err := l.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}
}

func TestNop(t *testing.T) {
	l := NewNop()
	if err := l.Append(testEntry("c1", "/", 200)); err != nil {
		t.Errorf("nop Append error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("nop Close error = %v", err)
	}
}
