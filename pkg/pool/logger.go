package pool

import (
	"fmt"
	"log"
	"os"
)

// Logger is the minimal logging surface the pool needs.
// Declared locally so the leaf package does not depend on the logging
// package; any leveled logger with these methods satisfies it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// defaultLogger implements Logger using the standard log package.
type defaultLogger struct {
	info *log.Logger
	err  *log.Logger
}

func newDefaultLogger() Logger {
	return &defaultLogger{
		info: log.New(os.Stdout, "[INFO] ", log.LstdFlags),
		err:  log.New(os.Stderr, "[ERROR] ", log.LstdFlags),
	}
}

func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	// Debug output is suppressed by default; inject a Logger to see it.
}

func (l *defaultLogger) Infof(format string, args ...interface{}) {
	l.info.Output(2, fmt.Sprintf(format, args...))
}

func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	l.err.Output(2, fmt.Sprintf(format, args...))
}
