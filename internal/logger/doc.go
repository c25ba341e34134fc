// Package logger provides logging facilities for fslock.
//
// DefaultLogger writes structured (log/slog text) records to a debug log
// file when debugging is enabled, and short prefixed messages to the
// terminal for the person running the command. It implements common.Logger,
// which is the only logging contract the lock package depends on.
//
// # Message Types
//
//   - Info: debug-only, file only
//   - Warning: file, plus stderr when verbose
//   - Error: file, plus stderr always
//   - InfoToUser, Success: file, plus stdout always
//   - WarningToUser: file, plus stderr always
//   - StatusMessage: stdout only, never logged
//
// # Wait Progress
//
// Progress returns the writer that receives the dot stream printed while a
// process is blocked on someone else's lock. It is stderr when verbose so
// that commands piping file contents to stdout stay clean, and io.Discard
// otherwise.
//
// # Resource Management
//
// Close flushes and closes the log file and should be deferred by the owner:
//
//	log := logger.New(cfg.Debug, cfg.LogFile, cfg.Verbose)
//	defer log.Close()
//
// # Thread Safety
//
// DefaultLogger is safe for concurrent use by multiple goroutines.
package logger
