package lock

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LockPrefix is prepended to the target's base name in single-lock mode.
const LockPrefix = "lock."

// Roles of the lock files used by MultiLocker.
const (
	RoleRead      = "read"
	RoleWrite     = "write"
	RoleUniversal = "universal"
)

// rolePrefix is the file name prefix for role, e.g. "lock-write-".
func rolePrefix(role string) string {
	return "lock-" + role + "-"
}

// prefixed returns path with prefix prepended to its base name, unless the
// base name already carries it.
func prefixed(path, prefix string) string {
	dir, name := filepath.Split(path)
	if !strings.HasPrefix(name, prefix) {
		name = prefix + name
	}
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// LockPath returns the single-lock path for target: "lock.<base>" in the
// same directory. Applying it to an already prefixed path is a no-op.
func LockPath(target string) string {
	return prefixed(target, LockPrefix)
}

// LockPaths is the vectorized form of LockPath. The result has the same
// length and order as targets.
func LockPaths(targets []string) []string {
	if targets == nil {
		return nil
	}
	paths := make([]string, len(targets))
	for i, t := range targets {
		paths[i] = LockPath(t)
	}
	return paths
}

// RoleLockPath returns "lock-<role>-<base>" beside target. Like LockPath
// it does not prefix a name that already starts with the role prefix.
func RoleLockPath(target, role string) string {
	return prefixed(target, rolePrefix(role))
}

// RoleLockPaths is the vectorized form of RoleLockPath.
func RoleLockPaths(targets []string, role string) []string {
	if targets == nil {
		return nil
	}
	paths := make([]string, len(targets))
	for i, t := range targets {
		paths[i] = RoleLockPath(t, role)
	}
	return paths
}

// lockSet holds every path the three-file protocol touches for one target.
type lockSet struct {
	target    string
	read      string // this owner's read lock
	write     string
	universal string
}

func newLockSet(target, owner string) lockSet {
	return lockSet{
		target:    target,
		read:      RoleLockPath(target, RoleRead+"-"+owner),
		write:     RoleLockPath(target, RoleWrite),
		universal: RoleLockPath(target, RoleUniversal),
	}
}

// isReaderLockName reports whether name is "lock-read-<owner>-<base>" for
// some owner. Owner tokens never contain '-', so the owner segment ends at
// the first dash after the prefix.
func isReaderLockName(name, base string) bool {
	rest, ok := strings.CutPrefix(name, rolePrefix(RoleRead))
	if !ok {
		return false
	}
	owner, tail, ok := strings.Cut(rest, "-")
	return ok && owner != "" && tail == base
}

// ReaderLockFiles lists the read lock files currently present for target,
// across all owners, sorted by name.
func ReaderLockFiles(target string) ([]string, error) {
	dir, base := filepath.Split(target)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var readers []string
	for _, e := range entries {
		if !e.IsDir() && isReaderLockName(e.Name(), base) {
			readers = append(readers, filepath.Join(dir, e.Name()))
		}
	}
	return readers, nil
}

// ExistingLocks lists every lock file, from either locking mode, that is
// currently present for target.
func ExistingLocks(target string) ([]string, error) {
	found, err := ReaderLockFiles(target)
	if err != nil {
		return nil, err
	}

	candidates := []string{
		LockPath(target),
		RoleLockPath(target, RoleWrite),
		RoleLockPath(target, RoleUniversal),
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			found = append(found, p)
		}
	}
	sort.Strings(found)
	return found, nil
}
