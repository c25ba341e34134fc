package errors

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

func TestWrap(t *testing.T) {
	originalErr := New("original error")
	wrappedErr := Wrap(originalErr, "wrapped message")

	if !Is(wrappedErr, originalErr) {
		t.Errorf("Expected wrapped error to match original, but it didn't")
	}

	expectedMsg := "wrapped message: original error"
	if wrappedErr.Error() != expectedMsg {
		t.Errorf("Expected message %q, got %q", expectedMsg, wrappedErr.Error())
	}
}

func TestWrapf(t *testing.T) {
	originalErr := New("original error")
	wrappedErr := Wrapf(originalErr, "wrapped message with %s", "format")

	if !Is(wrappedErr, originalErr) {
		t.Errorf("Expected wrapped error to match original, but it didn't")
	}

	expectedMsg := "wrapped message with format: original error"
	if wrappedErr.Error() != expectedMsg {
		t.Errorf("Expected message %q, got %q", expectedMsg, wrappedErr.Error())
	}
}

func TestLockError(t *testing.T) {
	err := errors.New("file not found")
	lockErr := NewLockError("/tmp/lock.data", "1234", err)

	expectedMsg := "lock error with file /tmp/lock.data (owner: 1234): file not found"
	if lockErr.Error() != expectedMsg {
		t.Errorf("Expected message %q, got %q", expectedMsg, lockErr.Error())
	}

	lockErr = NewLockError("/tmp/lock.data", "", err)
	expectedMsg = "lock error with file /tmp/lock.data: file not found"
	if lockErr.Error() != expectedMsg {
		t.Errorf("Expected message %q, got %q", expectedMsg, lockErr.Error())
	}

	if !errors.Is(lockErr, err) {
		t.Errorf("Expected LockError.Unwrap() to return the original error")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("/tmp/lock.data", 10*time.Millisecond)

	if !Is(err, ErrTimeout) {
		t.Errorf("Expected TimeoutError to match ErrTimeout")
	}

	expectedMsg := "the maximum wait time (10ms) has been reached and the lock file /tmp/lock.data still exists"
	if err.Error() != expectedMsg {
		t.Errorf("Expected message %q, got %q", expectedMsg, err.Error())
	}

	var te *TimeoutError
	if !As(Wrap(err, "write lock"), &te) {
		t.Fatal("Expected wrapped error to match TimeoutError type")
	}
	if te.WaitMax != 10*time.Millisecond {
		t.Errorf("Expected WaitMax 10ms, got %s", te.WaitMax)
	}
}

func TestProtocolError(t *testing.T) {
	err := NewProtocolError("read-unlock", "/data/file.yaml", "write lock is held; use write-unlock")

	if !Is(err, ErrProtocolViolation) {
		t.Errorf("Expected ProtocolError to match ErrProtocolViolation")
	}

	expectedMsg := "cannot read-unlock /data/file.yaml: write lock is held; use write-unlock"
	if err.Error() != expectedMsg {
		t.Errorf("Expected message %q, got %q", expectedMsg, err.Error())
	}
}

func TestConfigError(t *testing.T) {
	err := errors.New("invalid value")
	configErr := NewConfigError("wait-max", 0, err)

	expectedMsg := "configuration error for wait-max = 0: invalid value"
	if configErr.Error() != expectedMsg {
		t.Errorf("Expected message %q, got %q", expectedMsg, configErr.Error())
	}

	configErr = NewConfigError("owner", nil, err)
	expectedMsg = "configuration error for owner: invalid value"
	if configErr.Error() != expectedMsg {
		t.Errorf("Expected message %q, got %q", expectedMsg, configErr.Error())
	}

	if !errors.Is(configErr, err) {
		t.Errorf("Expected ConfigError.Unwrap() to return the original error")
	}
}

func TestErrorMatching(t *testing.T) {
	tests := map[string]struct {
		err    error
		target error
	}{
		"LockErrorWrapsAlreadyExists": {
			err:    NewLockError("/tmp/lock.x", "", Join(ErrAlreadyExists, os.ErrExist)),
			target: ErrAlreadyExists,
		},
		"LockErrorKeepsOSError": {
			err:    NewLockError("/tmp/lock.x", "", Join(ErrAlreadyExists, os.ErrExist)),
			target: os.ErrExist,
		},
		"WrappedAccessDenied": {
			err:    Wrap(NewLockError("/tmp/lock.x", "", ErrAccessDenied), "write lock"),
			target: ErrAccessDenied,
		},
		"WrappedTimeout": {
			err:    Wrapf(NewTimeoutError("/tmp/lock.x", time.Second), "waiting on %s", "x"),
			target: ErrTimeout,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if !Is(test.err, test.target) {
				t.Errorf("Expected %v to match %v", test.err, test.target)
			}
		})
	}
}

func TestErrorCases(t *testing.T) {
	t.Run("New creates errors", func(t *testing.T) {
		err := New("custom error")
		if err.Error() != "custom error" {
			t.Errorf("Expected error message 'custom error', got %s", err.Error())
		}
	})

	t.Run("Errorf formats errors", func(t *testing.T) {
		err := Errorf("formatted error: %d", 42)
		expected := "formatted error: 42"
		if err.Error() != expected {
			t.Errorf("Expected error message %q, got %q", expected, err.Error())
		}
	})

	t.Run("Join drops nils", func(t *testing.T) {
		if err := Join(nil, nil); err != nil {
			t.Errorf("Expected nil, got %v", err)
		}
	})
}

func ExampleWrap() {
	err := fmt.Errorf("original error")

	wrapped := Wrap(err, "context information")

	fmt.Println(wrapped)
	// Output: context information: original error
}

func ExampleNewLockError() {
	err := NewLockError("/data/lock.config.yaml", "4242", fmt.Errorf("permission denied"))

	fmt.Println(err)
	// Output: lock error with file /data/lock.config.yaml (owner: 4242): permission denied
}

func ExampleNewTimeoutError() {
	err := NewTimeoutError("/data/lock.config.yaml", 10*time.Second)

	fmt.Println(err)
	// Output: the maximum wait time (10s) has been reached and the lock file /data/lock.config.yaml still exists
}

func ExampleNewConfigError() {
	err := NewConfigError("wait-max", -1, fmt.Errorf("must be positive"))

	fmt.Println(err)
	// Output: configuration error for wait-max = -1: must be positive
}
