// Package lock provides advisory, file-based locking between unrelated
// processes that share nothing but a filesystem.
//
// A lock is a zero-length marker file beside the file it protects. Its
// existence IS the lock; its modification time is used only as a sign of
// life while someone waits on it. Every lock file is created with an
// exclusive create (O_CREATE|O_EXCL), the one race-free primitive the
// package relies on.
//
// # Core Components
//
// - SingleLocker: one lock file, "lock.<name>"; every lock is exclusive
// - MultiLocker: many readers or one writer, using read, write and universal lock files
// - Waiter: polls a held lock file with exponential backoff and a time budget
// - Guard: releases a scoped lock when the process is interrupted
//
// # Usage
//
// Scoped locking releases the lock on every exit path:
//
//	err := lock.WithWriteLock(lock.Path("/data/samples.yaml"), func() error {
//	    return os.WriteFile("/data/samples.yaml", updated, 0644)
//	})
//
// Explicit locking:
//
//	locker, err := lock.NewMultiLocker("/data/samples.yaml", lock.WithWaitMax(30*time.Second))
//	if err != nil {
//	    // Handle error
//	}
//	defer locker.Close()
//
//	if _, err := locker.ReadLock(); err != nil {
//	    // Timed out, or the lock directory is not writable in strict mode
//	}
//	// read the file
//	_ = locker.ReadUnlock()
//
// # Lock Files
//
// For a target /data/samples.yaml the lock files are:
//
//	/data/lock.samples.yaml                  SingleLocker
//	/data/lock-read-<owner>-samples.yaml     MultiLocker, one per reader
//	/data/lock-write-samples.yaml            MultiLocker writer
//	/data/lock-universal-samples.yaml        MultiLocker registration lock
//
// The owner token defaults to the process id. Callers running several
// readers in one process give each its own token with WithOwner.
//
// # Waiting
//
// A locker that finds the lock held polls for it to disappear, starting at
// 1ms and growing each interval to (prev+100ms)*1.25, up to 10s. After
// waiting for the wait budget (10s by default) it fails with a
// TimeoutError, unless the lock file's mtime has moved since it was first
// seen, in which case the holder is considered alive and the budget starts
// over.
//
// # Read-only Directories
//
// When the lock directory is not writable, a read lock is skipped with a
// warning (ReadLock returns false, nil) unless strict mode is set. A write
// lock always fails.
//
// # Thread Safety
//
// Lockers are not safe for concurrent use by multiple goroutines. The
// locking protocol itself is safe between any number of processes, or
// goroutines holding separate lockers with distinct owner tokens.
//
// # System Requirements
//
// The lock directory must be on a filesystem where exclusive create is
// atomic. Network filesystems without that guarantee are not supported.
package lock
