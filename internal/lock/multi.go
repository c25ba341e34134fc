package lock

import (
	"context"
	"path/filepath"

	lockErrors "github.com/bashhack/fslock/internal/errors"
)

// MultiLocker implements many-readers/one-writer locking with three kinds
// of lock file beside the target:
//
//	lock-read-<owner>-<base>   one per registered reader
//	lock-write-<base>          held by the single writer
//	lock-universal-<base>      guards changes to the other two
//
// The universal lock is held only for the short registration steps, never
// for the duration of a read or write.
type MultiLocker struct {
	opts   *options
	waiter *Waiter

	// target is nil for a locker with no path; every operation on it
	// succeeds without touching the filesystem.
	target *lockSet
	state  State

	holdsUniversal bool
}

var _ Locker = (*MultiLocker)(nil)

// NewMultiLocker creates a MultiLocker for target. An empty target yields
// a locker whose operations are all successful no-ops.
func NewMultiLocker(target string, opts ...Option) (*MultiLocker, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	l := &MultiLocker{
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
	set := newLockSet(abs, o.owner)
	l.target = &set
	return l, nil
}

// ReadLock registers this owner as a reader.
func (l *MultiLocker) ReadLock() (bool, error) {
	return l.ReadLockContext(context.Background())
}

// WriteLock takes the exclusive write lock.
func (l *MultiLocker) WriteLock() (bool, error) {
	return l.WriteLockContext(context.Background())
}

// ReadLockContext registers this owner as a reader: under the universal
// lock it waits out any writer and creates its own read lock file.
//
// If the lock directory is read-only, non-strict mode logs a warning and
// returns false so the caller proceeds without a lock.
func (l *MultiLocker) ReadLockContext(ctx context.Context) (bool, error) {
	if l.target == nil {
		l.opts.logger.Info("No filepath, no need to lock.")
		return true, nil
	}
	if l.state.Held() {
		return false, lockErrors.NewProtocolError("read-lock", l.target.target, "a lock is already held")
	}

	ok, err := EnsureWriteAccess(l.target.read, l.opts.strict, l.opts.logger)
	if err != nil {
		return false, err
	}
	if !ok {
		skippedCounter.Inc()
		return false, nil
	}

	if err := l.withUniversal(ctx, func() error {
		if err := l.waiter.Wait(ctx, l.target.write, l.opts.waitMax); err != nil {
			return err
		}
		return l.waiter.createLockSecure(ctx, l.target.read, l.target.target, l.opts.waitMax)
	}); err != nil {
		return false, err
	}

	l.state.Read = true
	acquireCounter.WithLabelValues("multi", string(Read)).Inc()
	return true, nil
}

// WriteLockContext takes the write lock: under the universal lock it waits
// for every registered reader and any current writer to finish, then
// creates both its read and write lock files. Holding the read file too
// keeps the target marked busy to other writers.
//
// Unlike ReadLock, a read-only lock directory is always an error.
func (l *MultiLocker) WriteLockContext(ctx context.Context) (bool, error) {
	if l.target == nil {
		l.opts.logger.Info("No filepath, no need to lock.")
		return true, nil
	}
	if l.state.Held() {
		return false, lockErrors.NewProtocolError("write-lock", l.target.target, "a lock is already held")
	}

	ok, err := EnsureWriteAccess(l.target.write, l.opts.strict, l.opts.logger)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, lockErrors.NewLockError(l.target.write, l.opts.owner,
			lockErrors.Wrap(lockErrors.ErrAccessDenied, "can't lock file"))
	}

	if err := l.withUniversal(ctx, func() error {
		// the reader scan must happen after the universal lock is taken
		readers, err := ReaderLockFiles(l.target.target)
		if err != nil {
			return lockErrors.NewLockError(l.target.target, l.opts.owner,
				lockErrors.Wrap(err, "failed to list read locks"))
		}
		if err := l.waiter.WaitAll(ctx, append(readers, l.target.write), l.opts.waitMax); err != nil {
			return err
		}

		if err := l.waiter.createLockSecure(ctx, l.target.read, l.target.target, l.opts.waitMax); err != nil {
			return err
		}
		if err := l.waiter.createLockSecure(ctx, l.target.write, l.target.target, l.opts.waitMax); err != nil {
			_, _ = RemoveLock(l.target.read)
			return err
		}
		return nil
	}); err != nil {
		return false, err
	}

	l.state.Read = true
	l.state.Write = true
	acquireCounter.WithLabelValues("multi", string(Write)).Inc()
	return true, nil
}

// withUniversal runs fn while holding the universal lock and always drops
// the universal lock afterwards, including when fn fails.
func (l *MultiLocker) withUniversal(ctx context.Context, fn func() error) error {
	if err := l.waiter.createLockSecure(ctx, l.target.universal, l.target.target, l.opts.waitMax); err != nil {
		return err
	}
	l.holdsUniversal = true

	fnErr := fn()
	return lockErrors.Join(fnErr, l.dropUniversal())
}

func (l *MultiLocker) dropUniversal() error {
	if !l.holdsUniversal {
		return nil
	}
	l.holdsUniversal = false
	_, err := RemoveLock(l.target.universal)
	return err
}

// WriteUnlock removes both the write and this owner's read lock file.
func (l *MultiLocker) WriteUnlock() error {
	if l.target == nil {
		l.opts.logger.Info("No filepath, no need to unlock.")
		return nil
	}

	l.opts.logger.Info("Removing lock at %s", filepath.Base(l.target.write))
	_, writeErr := RemoveLock(l.target.write)
	l.opts.logger.Info("Removing lock at %s", filepath.Base(l.target.read))
	_, readErr := RemoveLock(l.target.read)

	if l.state.Write {
		releaseCounter.WithLabelValues("multi", string(Write)).Inc()
	}
	l.state = State{}
	return lockErrors.Join(writeErr, readErr)
}

// ReadUnlock removes this owner's read lock file. It is a protocol
// violation while the write lock is held; use WriteUnlock instead.
func (l *MultiLocker) ReadUnlock() error {
	if l.target == nil {
		l.opts.logger.Info("No filepath, no need to unlock.")
		return nil
	}
	if l.state.Write {
		return lockErrors.NewProtocolError("read-unlock", l.target.target,
			"write lock is held; use write-unlock")
	}

	l.opts.logger.Info("Removing lock at %s", filepath.Base(l.target.read))
	_, err := RemoveLock(l.target.read)
	if l.state.Read {
		releaseCounter.WithLabelValues("multi", string(Read)).Inc()
	}
	l.state.Read = false
	return err
}

// Require returns a *errors.ProtocolError unless the lock for mode is held.
// Operations that must only run under a lock call it first.
func (l *MultiLocker) Require(mode Mode) error {
	target, _ := l.Target()
	if l.target == nil {
		return lockErrors.NewProtocolError(string(mode), target, "file not lockable; no path bound to locker")
	}
	held := l.state.Read
	if mode == Write {
		held = l.state.Write
	}
	if !held {
		return lockErrors.NewProtocolError(string(mode), target, "this operation must run under a "+string(mode)+" lock")
	}
	return nil
}

// Target returns the absolute path being guarded.
func (l *MultiLocker) Target() (string, bool) {
	if l.target == nil {
		return "", false
	}
	return l.target.target, true
}

// Owner returns the token naming this locker's read lock file.
func (l *MultiLocker) Owner() string {
	return l.opts.owner
}

// LockPaths returns this locker's read, write and universal lock paths,
// or empty strings when no target is bound.
func (l *MultiLocker) LockPaths() (read, write, universal string) {
	if l.target == nil {
		return "", "", ""
	}
	return l.target.read, l.target.write, l.target.universal
}

// State reports the held flags. Write implies Read.
func (l *MultiLocker) State() State {
	return l.state
}

// Close releases whatever is still held, including a universal lock left
// by an interrupted registration.
func (l *MultiLocker) Close() error {
	if l.target == nil {
		return nil
	}

	var err error
	switch {
	case l.state.Write:
		err = l.WriteUnlock()
	case l.state.Read:
		err = l.ReadUnlock()
	}
	return lockErrors.Join(err, l.dropUniversal())
}

// Locker lets a MultiLocker be passed to WithReadLock and WithWriteLock.
func (l *MultiLocker) Locker() (Locker, error) {
	return l, nil
}

func (l *MultiLocker) String() string {
	target, _ := l.Target()
	return describe("MultiLocker", target, l.opts, l.state)
}
