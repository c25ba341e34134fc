package lock

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bashhack/fslock/internal/common"
	lockErrors "github.com/bashhack/fslock/internal/errors"
	"github.com/bashhack/fslock/internal/logger"
)

// DefaultWaitMax is how long a lock operation waits on a lock file that
// shows no sign of being refreshed.
const DefaultWaitMax = 10 * time.Second

// Mode names the kind of lock requested.
type Mode string

const (
	// Read is a shared lock under MultiLocker.
	Read Mode = "read"
	// Write is an exclusive lock.
	Write Mode = "write"
)

// State records which locks a locker currently holds.
type State struct {
	Read  bool
	Write bool
}

// Held reports whether any lock is held.
func (s State) Held() bool {
	return s.Read || s.Write
}

// Locker guards one target file with lock files placed beside it.
//
// A Locker is not safe for concurrent use by multiple goroutines. Locks are
// not reentrant: asking for a lock while one is held is a protocol
// violation rather than a self-deadlock.
type Locker interface {
	// ReadLock and WriteLock return false with a nil error when the lock
	// was skipped because the lock directory is read-only in non-strict mode.
	ReadLock() (bool, error)
	WriteLock() (bool, error)
	ReadLockContext(ctx context.Context) (bool, error)
	WriteLockContext(ctx context.Context) (bool, error)

	ReadUnlock() error
	WriteUnlock() error

	// Target returns the absolute path being guarded, if any.
	Target() (string, bool)
	State() State

	// Close releases whatever is still held.
	Close() error

	// Locker returns the receiver, so every Locker is also a Holder.
	Locker() (Locker, error)
}

// options configures both locker kinds.
type options struct {
	waitMax  time.Duration
	strict   bool
	owner    string
	logger   common.Logger
	progress io.Writer
}

// Option configures a locker.
type Option func(*options)

// WithWaitMax sets how long to wait on an unrefreshed lock before timing out.
func WithWaitMax(d time.Duration) Option {
	return func(o *options) {
		o.waitMax = d
	}
}

// WithStrict makes a read-only lock directory an error instead of a
// warning for read locks.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithOwner sets the token that names this locker's read lock file under
// MultiLocker. Tokens may not contain '-' or path separators.
func WithOwner(owner string) Option {
	return func(o *options) {
		o.owner = owner
	}
}

// WithLogger routes lock lifecycle messages to log.
func WithLogger(log common.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithProgress sets where the wait-loop progress indicator is written.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

func newOptions(opts []Option) (*options, error) {
	o := &options{
		waitMax: DefaultWaitMax,
		owner:   DefaultOwner(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = logger.Nop()
	}
	if o.waitMax <= 0 {
		return nil, lockErrors.NewConfigError("wait-max", o.waitMax,
			lockErrors.Wrap(lockErrors.ErrInvalidConfiguration, "must be positive"))
	}
	if err := ValidateOwner(o.owner); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *options) waiter() *Waiter {
	return NewWaiter(o.logger, o.progress)
}

// DefaultOwner is the owner token used when none is given: the process id,
// so concurrent processes register distinct read locks.
func DefaultOwner() string {
	return strconv.Itoa(os.Getpid())
}

// NewOwnerToken returns a random owner token, for callers that run several
// readers inside one process.
func NewOwnerToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidateOwner rejects owner tokens that would make read lock file names
// ambiguous or escape the target's directory.
func ValidateOwner(owner string) error {
	if owner == "" || strings.ContainsAny(owner, "-*?[\\") || strings.ContainsRune(owner, filepath.Separator) || strings.Contains(owner, "/") {
		return lockErrors.NewConfigError("owner", owner,
			lockErrors.Wrap(lockErrors.ErrInvalidConfiguration, "owner token must be non-empty and free of '-', glob characters and path separators"))
	}
	return nil
}

// MkAbs expands a leading ~ and environment variables in path and makes
// it absolute.
func MkAbs(path string) (string, error) {
	expanded := os.ExpandEnv(path)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", lockErrors.Wrap(err, "failed to resolve home directory")
		}
		expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~"))
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", lockErrors.Wrapf(err, "failed to resolve absolute path of %s", path)
	}
	return abs, nil
}

func describe(kind, target string, o *options, st State) string {
	return fmt.Sprintf("%s(filepath=%q, wait_max=%s, locked={read: %t, write: %t}, strict=%t)",
		kind, target, o.waitMax, st.Read, st.Write, o.strict)
}
