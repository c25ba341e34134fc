package lock

import (
	"os"
	"path/filepath"

	"github.com/bashhack/fslock/internal/common"
	lockErrors "github.com/bashhack/fslock/internal/errors"
)

// EnsureWriteAccess checks that the directory that would hold lockPath is
// writable. The lock file itself usually does not exist yet, so it is the
// directory that matters. A directory that does not exist yet counts as
// writable when its nearest existing ancestor is, since the lock will
// create it.
//
// When the directory is not writable, strict mode returns an error matching
// errors.ErrAccessDenied. Non-strict mode logs a warning and returns false,
// telling the caller to go on without the lock.
func EnsureWriteAccess(lockPath string, strict bool, log common.Logger) (bool, error) {
	if dirWritable(existingAncestor(filepath.Dir(lockPath))) {
		return true, nil
	}

	if strict {
		return false, lockErrors.NewLockError(lockPath, "",
			lockErrors.Wrap(lockErrors.ErrAccessDenied, "can't lock file"))
	}

	if log != nil {
		log.Warning("No write access to '%s'; can't lock file.", lockPath)
	}
	return false, nil
}

// existingAncestor returns dir, or the closest parent of dir that exists.
func existingAncestor(dir string) string {
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
