package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level is a minimum severity threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel parses a level name ("debug", "info", "warn", "error").
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger provides leveled logging.
// This abstraction allows swapping logging implementations.
type Logger interface {
	// Debug logs a debug message
	Debug(args ...interface{})

	// Debugf logs a formatted debug message
	Debugf(format string, args ...interface{})

	// Info logs an informational message
	Info(args ...interface{})

	// Infof logs a formatted informational message
	Infof(format string, args ...interface{})

	// Warn logs a warning message
	Warn(args ...interface{})

	// Warnf logs a formatted warning message
	Warnf(format string, args ...interface{})

	// Error logs an error message
	Error(args ...interface{})

	// Errorf logs a formatted error message
	Errorf(format string, args ...interface{})
}

// defaultLogger implements Logger using Go's standard log package,
// filtered by a minimum level.
type defaultLogger struct {
	level       Level
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// New creates a leveled logger writing to stdout/stderr.
func New(level Level) Logger {
	return &defaultLogger{
		level:       level,
		debugLogger: log.New(os.Stdout, "[DEBUG] ", log.LstdFlags),
		infoLogger:  log.New(os.Stdout, "[INFO] ", log.LstdFlags),
		warnLogger:  log.New(os.Stderr, "[WARN] ", log.LstdFlags),
		errorLogger: log.New(os.Stderr, "[ERROR] ", log.LstdFlags),
	}
}

// NewDefault creates a logger at the info level.
func NewDefault() Logger {
	return New(LevelInfo)
}

func (l *defaultLogger) Debug(args ...interface{}) {
	if l.level <= LevelDebug {
		l.debugLogger.Output(2, fmt.Sprint(args...))
	}
}

func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	if l.level <= LevelDebug {
		l.debugLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

func (l *defaultLogger) Info(args ...interface{}) {
	if l.level <= LevelInfo {
		l.infoLogger.Output(2, fmt.Sprint(args...))
	}
}

func (l *defaultLogger) Infof(format string, args ...interface{}) {
	if l.level <= LevelInfo {
		l.infoLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

func (l *defaultLogger) Warn(args ...interface{}) {
	if l.level <= LevelWarn {
		l.warnLogger.Output(2, fmt.Sprint(args...))
	}
}

func (l *defaultLogger) Warnf(format string, args ...interface{}) {
	if l.level <= LevelWarn {
		l.warnLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

func (l *defaultLogger) Error(args ...interface{}) {
	if l.level <= LevelError {
		l.errorLogger.Output(2, fmt.Sprint(args...))
	}
}

func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	if l.level <= LevelError {
		l.errorLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

// nopLogger discards everything; useful in tests.
type nopLogger struct{}

// NewNop returns a logger that discards all output.
func NewNop() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(args ...interface{})                 {}
func (nopLogger) Debugf(format string, args ...interface{}) {}
func (nopLogger) Info(args ...interface{})                  {}
func (nopLogger) Infof(format string, args ...interface{})  {}
func (nopLogger) Warn(args ...interface{})                  {}
func (nopLogger) Warnf(format string, args ...interface{})  {}
func (nopLogger) Error(args ...interface{})                 {}
func (nopLogger) Errorf(format string, args ...interface{}) {}
