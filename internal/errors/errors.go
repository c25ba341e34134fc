package errors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors that can be used with errors.Is() for error type checking
var (
	// ErrAlreadyExists indicates an exclusive create found the lock file already present
	ErrAlreadyExists = errors.New("lock file already exists")

	// ErrTimeout indicates the wait budget ran out while the lock file was still present
	ErrTimeout = errors.New("timed out waiting for lock")

	// ErrAccessDenied indicates the directory that would hold the lock file is not writable
	ErrAccessDenied = errors.New("no write access to lock directory")

	// ErrProtocolViolation indicates a lock operation was called in a state that does not allow it
	ErrProtocolViolation = errors.New("lock protocol violation")

	// ErrNotFound indicates the file to be read or locked does not exist
	ErrNotFound = errors.New("file not found")

	// ErrNotLockable indicates the value passed to a scoped lock cannot provide a locker
	ErrNotLockable = errors.New("value is not lockable")

	// ErrInvalidConfiguration indicates an invalid or conflicting user configuration
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// New creates a new error with the given message.
// This is a convenience function that wraps errors.New.
func New(message string) error {
	return errors.New(message)
}

// Errorf creates a new formatted error.
// This is a convenience function that wraps fmt.Errorf.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Wrap wraps an error with a message for better context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message for better context.
func Wrapf(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether target is in err's chain.
// This is a convenience function that wraps errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience function that wraps errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join combines errors into one, dropping nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// LockError represents an error that occurred when interacting with lock files.
// It includes the lock file path, the owner token if known, and the underlying error.
type LockError struct {
	LockFile string
	Owner    string
	Err      error
}

// Error implements the error interface with details about the lock file and owner.
func (e *LockError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("lock error with file %s (owner: %s): %v", e.LockFile, e.Owner, e.Err)
	}
	return fmt.Sprintf("lock error with file %s: %v", e.LockFile, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *LockError) Unwrap() error {
	return e.Err
}

// NewLockError creates a new LockError with the given parameters.
func NewLockError(lockFile string, owner string, err error) *LockError {
	return &LockError{
		LockFile: lockFile,
		Owner:    owner,
		Err:      err,
	}
}

// TimeoutError reports a wait that exhausted its budget with no sign
// that the lock holder was still refreshing the lock file.
type TimeoutError struct {
	LockFile string
	WaitMax  time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("the maximum wait time (%s) has been reached and the lock file %s still exists",
		e.WaitMax, e.LockFile)
}

// Unwrap lets errors.Is match ErrTimeout.
func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(lockFile string, waitMax time.Duration) *TimeoutError {
	return &TimeoutError{
		LockFile: lockFile,
		WaitMax:  waitMax,
	}
}

// ProtocolError is a programming error: a lock operation was attempted
// from a state that forbids it, such as a read unlock while a write lock is held.
type ProtocolError struct {
	Op     string
	Target string
	Reason string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("cannot %s %s: %s", e.Op, e.Target, e.Reason)
}

// Unwrap lets errors.Is match ErrProtocolViolation.
func (e *ProtocolError) Unwrap() error {
	return ErrProtocolViolation
}

// NewProtocolError creates a new ProtocolError.
func NewProtocolError(op, target, reason string) *ProtocolError {
	return &ProtocolError{
		Op:     op,
		Target: target,
		Reason: reason,
	}
}

// ConfigError represents an error in the application configuration.
// It includes the parameter name, its value if available, and the underlying error.
type ConfigError struct {
	Parameter string
	Value     interface{}
	Err       error
}

// Error implements the error interface with details about the invalid configuration.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("configuration error for %s = %v: %v", e.Parameter, e.Value, e.Err)
	}
	return fmt.Sprintf("configuration error for %s: %v", e.Parameter, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError with the given parameters.
func NewConfigError(parameter string, value interface{}, err error) *ConfigError {
	return &ConfigError{
		Parameter: parameter,
		Value:     value,
		Err:       err,
	}
}
