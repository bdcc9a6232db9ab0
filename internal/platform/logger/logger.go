// Package logger provides leveled logging for the simulation server.
// Operator-facing diagnostics go here; player-facing text goes to the
// events message log.
package logger

import (
	"io"
	"log"
	"os"
)

// Logger provides leveled logging with a per-process prefix.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// NewLogger creates a logger writing info and warnings to stdout and errors
// to stderr.
func NewLogger() *Logger {
	return New(os.Stdout, os.Stderr, "ESCAPE")
}

// New creates a logger with explicit sinks. Pass io.Discard to silence a level.
func New(out, errOut io.Writer, prefix string) *Logger {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Logger{
		infoLogger:  log.New(out, "["+prefix+"-INFO] ", flags),
		warnLogger:  log.New(out, "["+prefix+"-WARN] ", flags),
		errorLogger: log.New(errOut, "["+prefix+"-ERROR] ", flags),
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return New(io.Discard, io.Discard, "TEST")
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.infoLogger.Output(2, msg)
}

// Infof logs a formatted informational message.
func (l *Logger) Infof(format string, args ...any) {
	l.infoLogger.Printf(format, args...)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.warnLogger.Output(2, msg)
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.errorLogger.Output(2, msg)
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...any) {
	l.errorLogger.Printf(format, args...)
}

// Event logs a notable simulation transition.
func (l *Logger) Event(eventType string, subject string, details string) {
	l.infoLogger.Printf("[EVENT:%s] %s | %s", eventType, subject, details)
}
