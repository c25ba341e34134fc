package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bashhack/fslock/internal/config"
	"github.com/bashhack/fslock/internal/constants"
	"github.com/bashhack/fslock/internal/lock"
	"github.com/bashhack/fslock/internal/logger"
)

// MockLogger implements the Logger interface for testing
type MockLogger struct {
	mu                  sync.Mutex
	InfoCalled          bool
	InfoToUserCalled    bool
	WarningCalled       bool
	WarningToUserCalled bool
	ErrorCalled         bool
	SuccessCalled       bool
	StatusCalled        bool
	CloseCalled         bool
	LastMessage         string
	Messages            []string
}

func (m *MockLogger) record(flag *bool, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*flag = true
	m.LastMessage = fmt.Sprintf(format, args...)
	m.Messages = append(m.Messages, m.LastMessage)
}

// Info logs an info message
func (m *MockLogger) Info(format string, args ...interface{}) {
	m.record(&m.InfoCalled, format, args...)
}

// Warning logs a warning message
func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.record(&m.WarningCalled, format, args...)
}

// Error logs an error message
func (m *MockLogger) Error(format string, args ...interface{}) {
	m.record(&m.ErrorCalled, format, args...)
}

// InfoToUser logs an info message to the user
func (m *MockLogger) InfoToUser(format string, args ...interface{}) {
	m.record(&m.InfoToUserCalled, format, args...)
}

// WarningToUser logs a warning message to the user
func (m *MockLogger) WarningToUser(format string, args ...interface{}) {
	m.record(&m.WarningToUserCalled, format, args...)
}

// Success logs a success message
func (m *MockLogger) Success(format string, args ...interface{}) {
	m.record(&m.SuccessCalled, format, args...)
}

// StatusMessage logs a status message
func (m *MockLogger) StatusMessage(format string, args ...interface{}) {
	m.record(&m.StatusCalled, format, args...)
}

// Progress discards the wait indicator
func (m *MockLogger) Progress() io.Writer {
	return io.Discard
}

// Close records that the logger was closed
func (m *MockLogger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return nil
}

// isolateEnv keeps the developer's config file and FSLOCK_* variables out
// of a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, key := range []string{"WAIT_MAX", "STRICT", "SINGLE", "OWNER", "DEBUG", "LOG_FILE", "QUIET", "METRICS_FILE", "CONFIG"} {
		t.Setenv(constants.EnvPrefix+"_"+key, "")
		if err := os.Unsetenv(constants.EnvPrefix+"_"+key); err != nil {
			t.Fatalf("Failed to unset environment variable: %v", err)
		}
	}
}

// testApp is an App wired to in-memory streams.
type testApp struct {
	*App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// NewTestApp creates an App with test settings: buffered output, no signal
// handling and a child runner that does nothing unless run is set.
func NewTestApp(t *testing.T, run func(ctx context.Context, argv []string) (int, error)) *testApp {
	t.Helper()
	isolateEnv(t)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	if run == nil {
		run = func(context.Context, []string) (int, error) { return 0, nil }
	}

	app := NewApp(AppOptions{
		VersionInfo: config.VersionInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-01"},
		Logger:      logger.NewWithOutput(false, "", false, stdout, stderr),
		Guard:       lock.NopGuard{},
		Stdout:      stdout,
		Stderr:      stderr,
		Exit:        func(int) {},
		ExecLookPath: func(file string) (string, error) {
			if file == "missing-command" {
				return "", fmt.Errorf("exec: %q: executable file not found in $PATH", file)
			}
			return "/usr/bin/" + file, nil
		},
		RunCommand: func(ctx context.Context, argv []string, _ io.Reader, _, _ io.Writer) (int, error) {
			return run(ctx, argv)
		},
	})
	return &testApp{App: app, stdout: stdout, stderr: stderr}
}

// WithExit mocks the exit function
func WithExit(app *App, fn func(int)) *App {
	app.exit = fn
	return app
}

// writeTarget creates a file to lock in a fresh directory.
func writeTarget(t *testing.T, contents string) string {
	t.Helper()
	target := filepath.Join(t.TempDir(), "data.txt")
	if err := os.WriteFile(target, []byte(contents), 0644); err != nil {
		t.Fatalf("Failed to write target: %v", err)
	}
	return target
}

// lockFilesIn lists lock files beside target.
func lockFilesIn(t *testing.T, target string) []string {
	t.Helper()
	locks, err := lock.ExistingLocks(target)
	if err != nil {
		t.Fatalf("ExistingLocks() error = %v", err)
	}
	return locks
}
