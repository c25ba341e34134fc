package lock

import (
	"context"
	"sync"

	"github.com/bashhack/fslock/internal/common"
	lockErrors "github.com/bashhack/fslock/internal/errors"
)

// Holder is anything that can provide the Locker to use for a scoped lock.
// *SingleLocker and *MultiLocker return themselves; Path builds a
// MultiLocker for the path.
type Holder interface {
	Locker() (Locker, error)
}

// Path is a file path that can be handed directly to WithReadLock or
// WithWriteLock. It is locked with a default MultiLocker.
type Path string

// Locker builds a MultiLocker with default options for p.
func (p Path) Locker() (Locker, error) {
	return NewMultiLocker(string(p))
}

type scope struct {
	guard      Guard
	lockerOpts []Option
}

// ScopeOption configures WithReadLock and WithWriteLock.
type ScopeOption func(*scope)

// WithGuard replaces the default SignalGuard.
func WithGuard(g Guard) ScopeOption {
	return func(s *scope) {
		s.guard = g
	}
}

// WithLockerOptions sets the options used when the Holder is a Path.
// They also provide the scope's logger.
func WithLockerOptions(opts ...Option) ScopeOption {
	return func(s *scope) {
		s.lockerOpts = append(s.lockerOpts, opts...)
	}
}

// WithReadLock runs fn while holding a read lock on h.
func WithReadLock(h Holder, fn func() error, opts ...ScopeOption) error {
	return withLock(context.Background(), h, Read, fn, opts)
}

// WithWriteLock runs fn while holding a write lock on h.
func WithWriteLock(h Holder, fn func() error, opts ...ScopeOption) error {
	return withLock(context.Background(), h, Write, fn, opts)
}

// WithReadLockContext is WithReadLock with a context bounding the wait.
func WithReadLockContext(ctx context.Context, h Holder, fn func() error, opts ...ScopeOption) error {
	return withLock(ctx, h, Read, fn, opts)
}

// WithWriteLockContext is WithWriteLock with a context bounding the wait.
func WithWriteLockContext(ctx context.Context, h Holder, fn func() error, opts ...ScopeOption) error {
	return withLock(ctx, h, Write, fn, opts)
}

// withLock acquires the lock, runs fn and releases the lock on every way
// out of fn, including panics. While the scope is open the guard turns an
// interrupt into a full unlock followed by process exit.
//
// A lock skipped for lack of write access (non-strict read) still runs fn,
// unprotected, after a warning.
func withLock(ctx context.Context, h Holder, mode Mode, fn func() error, opts []ScopeOption) (err error) {
	if h == nil {
		return lockErrors.Wrap(lockErrors.ErrNotLockable, "nil holder")
	}

	s, log, err := newScope(opts)
	if err != nil {
		return err
	}

	locker, err := resolve(h, s.lockerOpts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// mu serialises the guard's cleanup with our own acquire and release
	var mu sync.Mutex
	restore, gErr := s.guard.Install(func() {
		cancel()
		mu.Lock()
		defer mu.Unlock()
		releaseOnInterrupt(locker, log)
	})
	if gErr != nil {
		log.Error("Failed to set interrupt handler: %v", gErr)
	} else {
		defer restore()
	}

	mu.Lock()
	var acquired bool
	if mode == Write {
		acquired, err = locker.WriteLockContext(ctx)
	} else {
		acquired, err = locker.ReadLockContext(ctx)
	}
	mu.Unlock()
	if err != nil {
		return err
	}

	if !acquired {
		target, _ := locker.Target()
		log.Warning("Proceeding without a %s lock on %s", mode, target)
	} else {
		defer func() {
			mu.Lock()
			defer mu.Unlock()

			var uErr error
			if mode == Write {
				uErr = locker.WriteUnlock()
			} else {
				uErr = locker.ReadUnlock()
			}
			if uErr != nil && err == nil {
				err = uErr
			}
		}()
	}

	return fn()
}

// newScope applies opts and fills in the defaults: the logger from the
// locker options and a SignalGuard.
func newScope(opts []ScopeOption) (*scope, common.Logger, error) {
	s := &scope{}
	for _, opt := range opts {
		opt(s)
	}
	o, err := newOptions(s.lockerOpts)
	if err != nil {
		return nil, nil, err
	}
	if s.guard == nil {
		s.guard = NewSignalGuard(o.logger)
	}
	return s, o.logger, nil
}

func resolve(h Holder, opts []Option) (Locker, error) {
	if p, ok := h.(Path); ok {
		return NewMultiLocker(string(p), opts...)
	}

	locker, err := h.Locker()
	if err != nil {
		return nil, lockErrors.Wrap(lockErrors.ErrNotLockable, err.Error())
	}
	if locker == nil {
		return nil, lockErrors.Wrap(lockErrors.ErrNotLockable, "holder returned no locker")
	}
	return locker, nil
}

func releaseOnInterrupt(locker Locker, log common.Logger) {
	if locker.State().Held() {
		if err := locker.WriteUnlock(); err != nil {
			log.Error("Failed to release lock on interrupt: %v", err)
		}
	}
	if err := locker.Close(); err != nil {
		log.Error("Failed to clean up lock on interrupt: %v", err)
	}
}
