package common

// Logger is the logging contract shared by the lock package and the CLI.
// Format strings follow fmt.Printf conventions.
type Logger interface {
	// Debug trail (log file only)

	// Info records lock lifecycle detail such as lock files created and removed
	Info(format string, args ...interface{})

	// Warning records a degraded but non-fatal condition, such as a read
	// lock skipped because the lock directory is read-only
	Warning(format string, args ...interface{})

	// Error records a failure, such as a lock file that could not be removed
	Error(format string, args ...interface{})

	// Terminal output for the person running the command

	// InfoToUser reports what the process is doing, e.g. which lock it waits on
	InfoToUser(format string, args ...interface{})

	// WarningToUser reports a condition the user must notice, e.g. an interrupt
	WarningToUser(format string, args ...interface{})

	// Success reports a completed operation
	Success(format string, args ...interface{})

	// StatusMessage prints plain output without a prefix and without logging
	StatusMessage(format string, args ...interface{})
}
