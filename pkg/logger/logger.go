// Package logger provides the small logging interface used across murl.
// The library defaults to a NopLogger; the CLI wires console and file backends.
package logger

import (
	"fmt"
	"log"
	"os"
)

// Logger defines the logging surface used by the scheduler, the engine and the CLI.
type Logger interface {
	// Debug logs a tracing message (e.g., "pass: wait budget 120ms").
	// Implementations may drop debug output unless verbose mode is on.
	Debug(format string, args ...interface{})

	// Info logs an informational message (e.g., "registered 4 urls").
	Info(format string, args ...interface{})

	// Warning logs a warning message (e.g., "deadline exhausted with 2 transfers running").
	Warning(format string, args ...interface{})

	// Error logs an error message (e.g., "epoll wait: bad file descriptor").
	Error(format string, args ...interface{})

	// Close releases resources held by the logger (e.g., an open log file).
	// Safe to call multiple times.
	Close() error
}

// StandardLogger wraps the stdlib *log.Logger for console/file output.
type StandardLogger struct {
	logger  *log.Logger
	verbose bool
}

// NewStandardLogger creates a logger that wraps the given *log.Logger.
// Debug messages are discarded until SetVerbose(true) is called.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// SetVerbose toggles output of Debug messages.
func (s *StandardLogger) SetVerbose(v bool) {
	s.verbose = v
}

// Debug logs a tracing message with [DEBUG] prefix when verbose.
func (s *StandardLogger) Debug(format string, args ...interface{}) {
	if !s.verbose {
		return
	}
	s.logger.Printf("[DEBUG] "+format, args...)
}

// Info logs an informational message with [INFO] prefix.
func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.logger.Printf("[INFO] "+format, args...)
}

// Warning logs a warning message with [WARNING] prefix.
func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.logger.Printf("[WARNING] "+format, args...)
}

// Error logs an error message with [ERROR] prefix.
func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}

// Close is a no-op for StandardLogger (no resources to release).
func (s *StandardLogger) Close() error {
	return nil
}

// FileLogger is a StandardLogger that owns the file it writes to.
type FileLogger struct {
	*StandardLogger
	f *os.File
}

// NewFileLogger opens (or creates) path in append mode and logs into it
// with date and time prefixes.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &FileLogger{
		StandardLogger: NewStandardLogger(log.New(f, "murl: ", log.LstdFlags)),
		f:              f,
	}, nil
}

// Close closes the underlying file. Subsequent calls return nil.
func (l *FileLogger) Close() error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

// NopLogger is a logger that discards all messages.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(format string, args ...interface{})   {}
func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}

// Close is a no-op.
func (n *NopLogger) Close() error {
	return nil
}

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*FileLogger)(nil)
	_ Logger = (*NopLogger)(nil)
)

// MockLogger implements Logger for testing purposes.
// It records all log calls for verification in tests.
type MockLogger struct {
	DebugCalls   []string
	InfoCalls    []string
	WarningCalls []string
	ErrorCalls   []string
	CloseCalled  bool
}

// NewMockLogger creates a new MockLogger for testing.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

// Debug records the formatted message.
func (m *MockLogger) Debug(format string, args ...interface{}) {
	m.DebugCalls = append(m.DebugCalls, fmt.Sprintf(format, args...))
}

// Info records the formatted message.
func (m *MockLogger) Info(format string, args ...interface{}) {
	m.InfoCalls = append(m.InfoCalls, fmt.Sprintf(format, args...))
}

// Warning records the formatted message.
func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.WarningCalls = append(m.WarningCalls, fmt.Sprintf(format, args...))
}

// Error records the formatted message.
func (m *MockLogger) Error(format string, args ...interface{}) {
	m.ErrorCalls = append(m.ErrorCalls, fmt.Sprintf(format, args...))
}

// Close records that Close was called.
func (m *MockLogger) Close() error {
	m.CloseCalled = true
	return nil
}

var _ Logger = (*MockLogger)(nil)
