package lock

import (
	"fmt"
	"os"

	lockErrors "github.com/bashhack/fslock/internal/errors"
)

// LockedReadFile reads the whole of path under a read lock, so that no
// locking writer can change it mid-read. The lock is a MultiLocker built
// from opts.
//
// A missing file is an error matching errors.ErrNotFound, unless create is
// set, in which case the file is created race-free and "" is returned. If
// another process creates it first, the file is read normally.
func LockedReadFile(path string, create bool, opts ...Option) (string, error) {
	return LockedReadFileWith(Path(path), path, create, WithLockerOptions(opts...))
}

// LockedReadFileWith is LockedReadFile with the read lock taken through h,
// so callers choose the locker kind and the guard. h must guard path.
func LockedReadFileWith(h Holder, path string, create bool, opts ...ScopeOption) (string, error) {
	_, log, err := newScope(opts)
	if err != nil {
		return "", err
	}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		return readUnderLock(h, path, opts)

	case !os.IsNotExist(statErr):
		return "", lockErrors.Wrapf(statErr, "failed to stat %s", path)

	case create:
		log.Info("File %s does not exist, but create is set. Creating...", path)
		err := CreateRaceFree(path)
		if err == nil {
			return "", nil
		}
		if lockErrors.Is(err, lockErrors.ErrAlreadyExists) {
			return readUnderLock(h, path, opts)
		}
		return "", err
	}

	return "", fmt.Errorf("%w: no such file: %s: %w", lockErrors.ErrNotFound, path, statErr)
}

func readUnderLock(h Holder, path string, opts []ScopeOption) (string, error) {
	var contents []byte
	err := WithReadLock(h, func() error {
		var err error
		contents, err = os.ReadFile(path)
		return err
	}, opts...)
	if err != nil {
		return "", err
	}
	return string(contents), nil
}
