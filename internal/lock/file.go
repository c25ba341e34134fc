package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	lockErrors "github.com/bashhack/fslock/internal/errors"
)

// CreateRaceFree creates path, failing if it already exists. It succeeds
// only if this call actually created the file, which makes it the one
// race-free primitive every lock in this package is built on. The file is
// closed immediately and never written.
//
// A pre-existing file is left untouched and the error matches both
// errors.ErrAlreadyExists and os.ErrExist. A missing parent directory
// yields an error matching errors.ErrNotFound and os.ErrNotExist.
func CreateRaceFree(path string) error {
	// O_EXCL with O_CREATE ensures the file is created atomically
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		switch {
		case os.IsExist(err):
			return lockErrors.NewLockError(path, "", fmt.Errorf("%w: %w", lockErrors.ErrAlreadyExists, err))
		case os.IsNotExist(err):
			return lockErrors.NewLockError(path, "", fmt.Errorf("%w: %w", lockErrors.ErrNotFound, err))
		}
		return lockErrors.NewLockError(path, "", lockErrors.Wrap(err, "failed to create lock file"))
	}
	if err := f.Close(); err != nil {
		return lockErrors.NewLockError(path, "", lockErrors.Wrap(err, "failed to close lock file"))
	}
	return nil
}

// RemoveLock deletes the lock file at path and reports whether it was
// there. An absent lock file is not an error.
func RemoveLock(path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, lockErrors.NewLockError(path, "", lockErrors.Wrap(err, "failed to remove lock file"))
	}
	return true, nil
}

// createLockSecure waits for lockPath to be free and then creates it.
//
// If the parent directory of targetPath is missing it is created and the
// create retried once. If another process creates the lock between our
// wait and our create, we wait again and retry.
func (w *Waiter) createLockSecure(ctx context.Context, lockPath, targetPath string, waitMax time.Duration) error {
	if err := w.Wait(ctx, lockPath, waitMax); err != nil {
		return err
	}

	madeDir := false
	for {
		err := CreateRaceFree(lockPath)
		switch {
		case err == nil:
			w.logger.Info("Created lock at %s", filepath.Base(lockPath))
			return nil

		case lockErrors.Is(err, lockErrors.ErrAlreadyExists):
			raceLostCounter.Inc()
			w.logger.Info("The lock %s was created in the split second since the last lock existence check. Waiting",
				filepath.Base(lockPath))
			if err := w.Wait(ctx, lockPath, waitMax); err != nil {
				return err
			}

		case lockErrors.Is(err, lockErrors.ErrNotFound) && !madeDir:
			madeDir = true
			parent := filepath.Dir(targetPath)
			w.logger.Info("Creating missing directory %s for lock %s", parent, filepath.Base(lockPath))
			if mkErr := os.MkdirAll(parent, 0755); mkErr != nil {
				return lockErrors.NewLockError(lockPath, "", lockErrors.Wrap(mkErr, "failed to create lock directory"))
			}

		default:
			return err
		}
	}
}
