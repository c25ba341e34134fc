package lock

import (
	"context"
	"path/filepath"

	lockErrors "github.com/bashhack/fslock/internal/errors"
)

// SingleLocker is a mutual-exclusion locker over one lock file,
// "lock.<base>". Read and write locks are the same exclusive lock.
type SingleLocker struct {
	opts   *options
	waiter *Waiter

	// target is nil for a locker with no path; every operation on it
	// succeeds without touching the filesystem.
	target   *string
	lockPath string
	locked   bool
}

var _ Locker = (*SingleLocker)(nil)

// NewSingleLocker creates a SingleLocker for target. An empty target
// yields a locker whose operations are all successful no-ops.
func NewSingleLocker(target string, opts ...Option) (*SingleLocker, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	l := &SingleLocker{
		opts:   o,
		waiter: o.waiter(),
	}
	if target == "" {
		return l, nil
	}

	abs, err := MkAbs(target)
	if err != nil {
		return nil, err
	}
	l.target = &abs
	l.lockPath = LockPath(abs)
	return l, nil
}

// ReadLock takes the exclusive lock.
func (l *SingleLocker) ReadLock() (bool, error) {
	return l.lock(context.Background(), Read)
}

// WriteLock takes the exclusive lock.
func (l *SingleLocker) WriteLock() (bool, error) {
	return l.lock(context.Background(), Write)
}

// ReadLockContext is ReadLock with a context bounding the wait.
func (l *SingleLocker) ReadLockContext(ctx context.Context) (bool, error) {
	return l.lock(ctx, Read)
}

// WriteLockContext is WriteLock with a context bounding the wait.
func (l *SingleLocker) WriteLockContext(ctx context.Context) (bool, error) {
	return l.lock(ctx, Write)
}

// ReadUnlock removes the lock file.
func (l *SingleLocker) ReadUnlock() error {
	return l.unlock(Read)
}

// WriteUnlock removes the lock file.
func (l *SingleLocker) WriteUnlock() error {
	return l.unlock(Write)
}

func (l *SingleLocker) lock(ctx context.Context, mode Mode) (bool, error) {
	if l.target == nil {
		l.opts.logger.Info("No filepath, no need to lock.")
		return true, nil
	}
	if l.locked {
		return false, lockErrors.NewProtocolError(string(mode)+"-lock", *l.target, "lock is already held")
	}

	ok, err := EnsureWriteAccess(l.lockPath, l.opts.strict, l.opts.logger)
	if err != nil {
		return false, err
	}
	if !ok {
		skippedCounter.Inc()
		return false, nil
	}

	if err := l.waiter.createLockSecure(ctx, l.lockPath, *l.target, l.opts.waitMax); err != nil {
		return false, err
	}

	l.locked = true
	acquireCounter.WithLabelValues("single", string(mode)).Inc()
	return true, nil
}

// unlock removes the lock file whether or not this locker created it, so
// calling it on an unlocked locker is harmless.
func (l *SingleLocker) unlock(mode Mode) error {
	if l.target == nil {
		l.opts.logger.Info("No filepath, no need to unlock.")
		return nil
	}

	l.opts.logger.Info("Removing lock at %s", filepath.Base(l.lockPath))
	removed, err := RemoveLock(l.lockPath)
	l.locked = false
	if err != nil {
		return err
	}
	if removed {
		releaseCounter.WithLabelValues("single", string(mode)).Inc()
	}
	return nil
}

// Target returns the absolute path being guarded.
func (l *SingleLocker) Target() (string, bool) {
	if l.target == nil {
		return "", false
	}
	return *l.target, true
}

// LockPath returns the lock file path, or "" when no target is bound.
func (l *SingleLocker) LockPath() string {
	return l.lockPath
}

// State reports the held flags; Read and Write are always equal.
func (l *SingleLocker) State() State {
	return State{Read: l.locked, Write: l.locked}
}

// Close releases the lock if it is still held.
func (l *SingleLocker) Close() error {
	if l.target != nil && l.locked {
		return l.unlock(Write)
	}
	return nil
}

// Locker lets a SingleLocker be passed to WithReadLock and WithWriteLock.
func (l *SingleLocker) Locker() (Locker, error) {
	return l, nil
}

func (l *SingleLocker) String() string {
	target, _ := l.Target()
	return describe("SingleLocker", target, l.opts, l.State())
}
