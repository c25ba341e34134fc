package lock

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bashhack/fslock/internal/common"
	lockErrors "github.com/bashhack/fslock/internal/errors"
	"github.com/bashhack/fslock/internal/logger"
)

// Backoff schedule for polling a held lock file.
const (
	initialInterval = time.Millisecond
	intervalStep    = 100 * time.Millisecond
	intervalGrowth  = 1.25
	maxInterval     = 10 * time.Second

	// dotsPerLine wraps the progress indicator
	dotsPerLine = 60
)

// Waiter polls lock files until they disappear.
type Waiter struct {
	logger   common.Logger
	progress io.Writer

	sleep func(ctx context.Context, d time.Duration) error
}

// NewWaiter returns a Waiter that logs to log and writes its progress
// indicator to progress. Either may be nil.
func NewWaiter(log common.Logger, progress io.Writer) *Waiter {
	if log == nil {
		log = logger.Nop()
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Waiter{
		logger:   log,
		progress: progress,
		sleep:    sleepContext,
	}
}

// WaitForLock blocks until lockPath does not exist, using a silent Waiter.
func WaitForLock(ctx context.Context, lockPath string, waitMax time.Duration) error {
	return NewWaiter(nil, nil).Wait(ctx, lockPath, waitMax)
}

// WaitForLocks waits for each of lockPaths in turn, using a silent Waiter.
func WaitForLocks(ctx context.Context, lockPaths []string, waitMax time.Duration) error {
	return NewWaiter(nil, nil).WaitAll(ctx, lockPaths, waitMax)
}

// nextInterval grows prev by the backoff schedule: (prev + 100ms) * 1.25,
// capped at 10s.
func nextInterval(prev time.Duration) time.Duration {
	next := time.Duration(float64(prev+intervalStep) * intervalGrowth)
	if next > maxInterval {
		return maxInterval
	}
	return next
}

// Wait returns as soon as lockPath does not exist.
//
// While the file exists it polls with exponential backoff. Once the summed
// sleep time reaches waitMax the lock file's modification time is compared
// with the one last seen: a newer mtime means the holder is still active,
// so the budget is reset and waiting continues; otherwise Wait fails with
// a *errors.TimeoutError. A holder that keeps touching its lock file can
// therefore keep us waiting indefinitely; callers that need a hard deadline
// should pass a context with one.
func (w *Waiter) Wait(ctx context.Context, lockPath string, waitMax time.Duration) error {
	observed, held, err := modTime(lockPath)
	if err != nil {
		return err
	}
	if !held {
		return nil
	}

	base := filepath.Base(lockPath)
	started := time.Now()
	w.logger.Info("Waiting for file lock: %s", base)
	_, _ = fmt.Fprintf(w.progress, "Waiting for file lock: %s ", base)

	interval := initialInterval
	var elapsed time.Duration
	dots := 0

	for {
		if err := w.sleep(ctx, interval); err != nil {
			_, _ = fmt.Fprintln(w.progress)
			return err
		}
		elapsed += interval
		interval = nextInterval(interval)

		current, held, err := modTime(lockPath)
		if err != nil {
			_, _ = fmt.Fprintln(w.progress)
			return err
		}
		if !held {
			break
		}

		_, _ = io.WriteString(w.progress, ".")
		dots++
		if dots%dotsPerLine == 0 {
			_, _ = io.WriteString(w.progress, "\n")
		}

		if elapsed >= waitMax {
			if current.After(observed) {
				w.logger.Info("Lock %s was refreshed by its holder; continuing to wait", base)
				refreshCounter.Inc()
				observed = current
				elapsed = 0
				interval = initialInterval
				continue
			}
			_, _ = fmt.Fprintln(w.progress)
			timeoutCounter.Inc()
			waitDuration.Observe(time.Since(started).Seconds())
			return lockErrors.NewTimeoutError(lockPath, waitMax)
		}
	}

	_, _ = fmt.Fprintln(w.progress)
	waitDuration.Observe(time.Since(started).Seconds())
	w.logger.Info("File unlocked: %s", base)
	return nil
}

// WaitAll waits for every path in lockPaths to be absent, one after another.
func (w *Waiter) WaitAll(ctx context.Context, lockPaths []string, waitMax time.Duration) error {
	for _, p := range lockPaths {
		if err := w.Wait(ctx, p, waitMax); err != nil {
			return err
		}
	}
	return nil
}

// modTime reports whether path exists and, if so, its modification time.
// A file that disappears between checks simply reads as not held.
func modTime(path string) (time.Time, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, lockErrors.NewLockError(path, "", lockErrors.Wrap(err, "failed to stat lock file"))
	}
	if info.IsDir() {
		return time.Time{}, false, nil
	}
	return info.ModTime(), true, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
