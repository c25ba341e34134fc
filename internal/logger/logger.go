package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bashhack/fslock/internal/common"
)

// Logger is the application logger: the common logging contract plus
// resource cleanup and access to the stream used for wait progress.
type Logger interface {
	common.Logger

	// Progress returns the writer that receives the wait-loop progress
	// indicator. It is io.Discard when the logger is not verbose.
	Progress() io.Writer

	// Close ensures any buffered data is written and closes open log file handles.
	// This should be called before the application exits to ensure all logs are properly saved.
	Close() error
}

// DefaultLogger provides structured logging capability and implements the Logger interface
type DefaultLogger struct {
	mu      sync.Mutex
	logger  *slog.Logger
	enabled bool
	logFile string
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
	file    *os.File
}

// New creates a new Logger instance
func New(enabled bool, logFile string, verbose bool) *DefaultLogger {
	return NewWithOutput(enabled, logFile, verbose, os.Stdout, os.Stderr)
}

// NewWithOutput creates a DefaultLogger with custom output writers
func NewWithOutput(enabled bool, logFile string, verbose bool, stdout, stderr io.Writer) *DefaultLogger {
	var logger *slog.Logger

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	var file *os.File

	if enabled && logFile != "" {
		logDir := filepath.Dir(logFile)
		if logDir != "." {
			if err := os.MkdirAll(logDir, 0755); err != nil {
				_, _ = fmt.Fprintf(stderr, "⚠️ Failed to create log directory: %v\n", err)
			}
		}

		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			file = f
			logger = slog.New(slog.NewTextHandler(f, opts)).With("pid", os.Getpid())
			if verbose {
				_, _ = fmt.Fprintf(stdout, "🔍 Debug logging enabled. Logs will be written to: %s\n", logFile)
			}

			logger.Info("fslock debug logging started")
		} else {
			logger = slog.New(slog.NewTextHandler(stderr, opts))
			_, _ = fmt.Fprintf(stderr, "⚠️ Failed to open log file: %v, using stderr instead\n", err)
		}
	} else {
		logger = slog.New(slog.NewTextHandler(stderr, opts))
	}

	return &DefaultLogger{
		logger:  logger,
		enabled: enabled,
		logFile: logFile,
		verbose: verbose,
		stdout:  stdout,
		stderr:  stderr,
		file:    file,
	}
}

// Nop returns a logger that writes nothing anywhere.
func Nop() *DefaultLogger {
	return &DefaultLogger{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		stdout: io.Discard,
		stderr: io.Discard,
	}
}

// Info logs an informational message (file only)
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return
	}

	l.logger.Info(fmt.Sprintf(format, args...))
}

// InfoToUser logs an informational message to both file and stdout
func (l *DefaultLogger) InfoToUser(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.enabled {
		l.logger.Info(msg)
	}

	_, _ = fmt.Fprintf(l.stdout, "ℹ️  %s\n", msg)
}

// Success logs a success message to both file and stdout
func (l *DefaultLogger) Success(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.enabled {
		l.logger.Info(msg)
	}

	_, _ = fmt.Fprintf(l.stdout, "✅ %s\n", msg)
}

// Warning logs a warning message
func (l *DefaultLogger) Warning(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.enabled {
		l.logger.Warn(msg)
	}

	if l.verbose {
		_, _ = fmt.Fprintf(l.stderr, "⚠️  %s\n", msg)
	}
}

// WarningToUser logs a warning message to both file and stderr
func (l *DefaultLogger) WarningToUser(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.enabled {
		l.logger.Warn(msg)
	}

	_, _ = fmt.Fprintf(l.stderr, "⚠️  %s\n", msg)
}

// Error logs an error message
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.enabled {
		l.logger.Error(msg)
	}

	_, _ = fmt.Fprintf(l.stderr, "❌ %s\n", msg)
}

// StatusMessage prints a status message to stdout only (no logging)
func (l *DefaultLogger) StatusMessage(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = fmt.Fprintln(l.stdout, fmt.Sprintf(format, args...))
}

// Progress returns stderr when verbose and io.Discard otherwise. The
// progress stream goes to stderr so piped stdout (e.g. `fslock cat`)
// stays clean.
func (l *DefaultLogger) Progress() io.Writer {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.verbose {
		return io.Discard
	}
	return l.stderr
}

// Close ensures any buffered data is written and closes open log file handles
func (l *DefaultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		if err := l.file.Sync(); err != nil {
			return err
		}
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// SetStdout sets a custom writer for user-facing stdout messages only.
// NOTE: This does not affect where structured log messages from slog are directed.
func (l *DefaultLogger) SetStdout(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stdout = w
}

// SetStderr sets a custom writer for user-facing stderr messages only.
// NOTE: This does not affect where structured log messages from slog are directed.
func (l *DefaultLogger) SetStderr(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stderr = w
}
