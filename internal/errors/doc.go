// Package errors provides error handling utilities for fslock.
//
// This package defines the sentinel errors and typed errors produced by the
// locking subsystem and wraps the standard library helpers so callers can
// import a single errors package.
//
// # Error Taxonomy
//
//   - ErrAlreadyExists: an exclusive create found the lock file present. The
//     lock package recovers from this internally by waiting and retrying.
//   - ErrTimeout / TimeoutError: a wait ran out of budget with no sign that
//     the holder was still refreshing the lock file.
//   - ErrAccessDenied: the lock directory is not writable.
//   - ErrProtocolViolation / ProtocolError: a lock operation was called from
//     a state that forbids it. Always a programming error.
//   - ErrNotFound: the file to read does not exist.
//
// # Usage
//
//	if err := locker.WriteLock(); err != nil {
//	    var te *errors.TimeoutError
//	    if errors.As(err, &te) {
//	        // the lock at te.LockFile looks abandoned
//	    }
//	    return errors.Wrap(err, "failed to lock config")
//	}
//
// # Error Wrapping
//
// The package uses standard error wrapping conventions, allowing errors to be
// unwrapped and inspected using errors.Is and errors.As.
//
// # Thread Safety
//
// All types and functions in this package are safe for concurrent use
// by multiple goroutines.
package errors
