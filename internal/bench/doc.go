// Package bench compares the two locker kinds.
//
// It measures two things: how fast each locker cycles an exclusive
// lock/unlock with no contention, and how long a group of concurrent
// readers takes when every reader holds its lock for a fixed time. The
// single locker serializes readers; the multi locker lets them overlap.
//
// Readers run as goroutines on an errgroup, each with its own owner token,
// and are released together from a common start line.
package bench
