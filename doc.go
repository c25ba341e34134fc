// Package fslock provides advisory file locks for processes that share only
// a filesystem.
//
// A lock is an ordinary file placed beside the file it guards, created with
// an exclusive create so that exactly one process wins. There is no lock
// server and no kernel lock; cooperating processes agree on the lock file
// names and wait for each other by polling.
//
// # Quick Start
//
//	# Rewrite a file while no other fslock user reads or writes it
//	fslock run data.csv -- ./regenerate.sh data.csv
//
//	# Read it while other readers may be reading too
//	fslock run --read data.csv -- wc -l data.csv
//
//	# Print a file under a read lock
//	fslock cat data.csv
//
// # Locking Modes
//
//   - Read/write (default): many readers or one writer. Readers each own a
//     lock-read-<owner>-<name> file; a writer owns lock-write-<name>; a short
//     lived lock-universal-<name> serializes the check-then-create steps.
//   - Single (--single): one lock.<name> file, exclusive for readers and
//     writers alike.
//
// # Module Structure
//
//   - cmd/fslock: Command-line interface
//   - internal/lock: Lockers, the wait loop, interrupt guard and scoped locks
//   - internal/bench: Single versus read/write locker comparison
//   - internal/config: Flag, environment and config file handling
//   - internal/logger: Logging facilities
//   - internal/errors: Error types and helpers
//   - internal/constants: Fixed values
//
// # Common Configuration Options
//
//	# Give up after 30 seconds instead of 10
//	fslock --wait-max 30s run data.csv -- ./job.sh
//
//	# Fail rather than read without a lock when the directory is read-only
//	fslock --strict cat /mnt/ro/data.csv
//
//	# Write lock counters to a node_exporter textfile on exit
//	fslock --metrics-file /var/lib/node_exporter/fslock.prom run data.csv -- ./job.sh
//
// # Platform Support
//
// fslock runs on Linux and macOS. Write access checks use access(2) where
// available and fall back to a probe file elsewhere.
//
// # Implementation Notes
//
// A waiting process gives up once its wait budget is spent, unless the lock
// file's modification time changes, which restarts the budget. Long running
// holders can therefore keep waiters patient by touching their lock file.
//
// While a lock is held, SIGINT and SIGTERM release it before the process
// exits with 128 plus the signal number.
package fslock
