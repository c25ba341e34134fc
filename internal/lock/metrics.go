package lock

import "github.com/prometheus/client_golang/prometheus"

var (
	// acquireCounter counts locks taken, labelled by locker kind and mode.
	acquireCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fslock_acquire_total",
		Help: "Total number of locks acquired",
	}, []string{"locker", "mode"})

	// releaseCounter counts locks released, labelled by locker kind and mode.
	releaseCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fslock_release_total",
		Help: "Total number of locks released",
	}, []string{"locker", "mode"})

	// skippedCounter counts read locks skipped because the lock directory was read-only.
	skippedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fslock_skipped_total",
		Help: "Total number of non-strict locks skipped for lack of write access",
	})

	// timeoutCounter counts waits that ran out of budget.
	timeoutCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fslock_timeout_total",
		Help: "Total number of lock waits that timed out",
	})

	// refreshCounter counts budget resets caused by a refreshed lock file.
	refreshCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fslock_refresh_total",
		Help: "Total number of wait budget resets due to a refreshed lock file",
	})

	// raceLostCounter counts exclusive creates that lost to another process.
	raceLostCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fslock_race_lost_total",
		Help: "Total number of exclusive creates that found the lock already present",
	})

	// waitDuration observes how long callers blocked on a held lock file.
	waitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fslock_wait_seconds",
		Help:    "Time spent waiting for a held lock file to disappear",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})
)

// RegisterMetrics registers the lock metrics on the provided registry.
// Registering twice on the same registry panics.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		acquireCounter,
		releaseCounter,
		skippedCounter,
		timeoutCounter,
		refreshCounter,
		raceLostCounter,
		waitDuration,
	)
}
