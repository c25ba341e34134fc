// Package common holds the interfaces shared across fslock packages.
//
// It has no dependencies on other internal packages, so the lock package can
// accept a Logger without importing the concrete logger implementation.
//
// # Usage
//
//	locker, err := lock.NewMultiLocker(path, lock.WithLogger(log))
//
// where log is any common.Logger, typically a *logger.DefaultLogger.
package common
