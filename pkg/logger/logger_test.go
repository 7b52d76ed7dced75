package logger

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStandardLogger_Levels(t *testing.T) {
	tests := []struct {
		name   string
		call   func(Logger)
		prefix string
		msg    string
	}{
		{"info", func(l Logger) { l.Info("registered %d urls", 3) }, "[INFO]", "registered 3 urls"},
		{"warning", func(l Logger) { l.Warning("deadline %s", "exhausted") }, "[WARNING]", "deadline exhausted"},
		{"error", func(l Logger) { l.Error("wait: %v", "EBADF") }, "[ERROR]", "wait: EBADF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.call(NewStandardLogger(log.New(buf, "", 0)))
			out := buf.String()
			if !strings.Contains(out, tt.prefix) {
				t.Errorf("expected %s prefix, got: %s", tt.prefix, out)
			}
			if !strings.Contains(out, tt.msg) {
				t.Errorf("expected message content, got: %s", out)
			}
		})
	}
}

func TestStandardLogger_DebugNeedsVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewStandardLogger(log.New(buf, "", 0))

	l.Debug("hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("expected no debug output without verbose, got: %s", buf.String())
	}

	l.SetVerbose(true)
	l.Debug("shown %d", 2)
	if !strings.Contains(buf.String(), "[DEBUG] shown 2") {
		t.Errorf("expected debug output, got: %s", buf.String())
	}
}

func TestFileLogger_WritesAndCloses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "murl.log")
	l, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	l.Info("hello %s", "file")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close should be nil, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "[INFO] hello file") {
		t.Errorf("unexpected log file content: %s", data)
	}
}

func TestFileLogger_BadPath(t *testing.T) {
	_, err := NewFileLogger(filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()

	// Should not panic
	l.Debug("test")
	l.Info("test")
	l.Warning("test")
	l.Error("test")

	if err := l.Close(); err != nil {
		t.Errorf("expected nil error, got: %v", err)
	}
}

func TestMockLogger_RecordsCalls(t *testing.T) {
	l := NewMockLogger()

	l.Debug("pass %d", 1)
	l.Info("info %d", 1)
	l.Info("info %d", 2)
	l.Warning("warn %s", "test")
	l.Error("err %v", "fail")

	if len(l.DebugCalls) != 1 || l.DebugCalls[0] != "pass 1" {
		t.Errorf("unexpected debug calls: %v", l.DebugCalls)
	}
	if len(l.InfoCalls) != 2 || l.InfoCalls[1] != "info 2" {
		t.Errorf("unexpected info calls: %v", l.InfoCalls)
	}
	if len(l.WarningCalls) != 1 || l.WarningCalls[0] != "warn test" {
		t.Errorf("unexpected warning calls: %v", l.WarningCalls)
	}
	if len(l.ErrorCalls) != 1 || l.ErrorCalls[0] != "err fail" {
		t.Errorf("unexpected error calls: %v", l.ErrorCalls)
	}
}

func TestMultiLogger_BroadcastsToAll(t *testing.T) {
	mock1 := NewMockLogger()
	mock2 := NewMockLogger()

	multi := NewMultiLogger(mock1, nil, mock2)

	multi.Debug("debug msg")
	multi.Info("info msg")
	multi.Warning("warn msg")
	multi.Error("error msg")

	for i, m := range []*MockLogger{mock1, mock2} {
		if len(m.DebugCalls) != 1 || len(m.InfoCalls) != 1 ||
			len(m.WarningCalls) != 1 || len(m.ErrorCalls) != 1 {
			t.Errorf("mock%d did not receive every message: %+v", i+1, m)
		}
	}
}

// failingCloseLogger returns an error on Close().
type failingCloseLogger struct {
	NopLogger
	closeErr error
}

func (f *failingCloseLogger) Close() error {
	return f.closeErr
}

func TestMultiLogger_Close_ReturnsFirstError(t *testing.T) {
	err1 := errors.New("logger1 failed to close")
	err2 := errors.New("logger2 failed to close")
	mock := NewMockLogger()

	multi := NewMultiLogger(&failingCloseLogger{closeErr: err1}, mock, &failingCloseLogger{closeErr: err2})

	err := multi.Close()
	if !errors.Is(err, err1) {
		t.Errorf("expected first error %v, got %v", err1, err)
	}
	if !mock.CloseCalled {
		t.Error("expected mock logger to be closed even after first error")
	}
}

func TestMultiLogger_EmptyLoggers(t *testing.T) {
	multi := NewMultiLogger()

	multi.Info("test")
	if err := multi.Close(); err != nil {
		t.Errorf("expected nil error, got: %v", err)
	}
}
