package bench

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/bashhack/fslock/internal/errors"
	"github.com/bashhack/fslock/internal/lock"
)

// Factory builds a locker for target.
type Factory func(target string, opts ...lock.Option) (lock.Locker, error)

// Single and Multi are the factories for the two locker kinds.
var (
	Single Factory = func(target string, opts ...lock.Option) (lock.Locker, error) {
		return lock.NewSingleLocker(target, opts...)
	}
	Multi Factory = func(target string, opts ...lock.Option) (lock.Locker, error) {
		return lock.NewMultiLocker(target, opts...)
	}
)

// Options configures a benchmark run.
type Options struct {
	// Dir holds the benchmark file and its locks. Empty means a fresh
	// temporary directory, removed afterwards.
	Dir string

	Iterations int
	Readers    int
	Holds      []time.Duration

	// LockOptions are applied to every locker, before the per-reader owner.
	LockOptions []lock.Option
}

// Exclusive is the result of the exclusive lock/unlock cycle benchmark.
type Exclusive struct {
	Iterations int
	Single     time.Duration
	Multi      time.Duration
}

// PerCycle returns the mean time of one lock/unlock cycle.
func (e Exclusive) PerCycle(total time.Duration) time.Duration {
	if e.Iterations == 0 {
		return 0
	}
	return total / time.Duration(e.Iterations)
}

// Speedup is how many times faster the single locker cycled.
func (e Exclusive) Speedup() float64 {
	if e.Single == 0 {
		return 0
	}
	return float64(e.Multi) / float64(e.Single)
}

// Reads is the result of one concurrent-reader run.
type Reads struct {
	// Wall is the time from the first reader asking for its lock to the
	// last reader releasing it.
	Wall time.Duration
	// AvgWait is the mean time a reader spent acquiring its lock.
	AvgWait time.Duration
}

// ReadRound compares both lockers for one hold time.
type ReadRound struct {
	Readers int
	Hold    time.Duration
	Single  Reads
	Multi   Reads
}

// Report is everything a benchmark run measured.
type Report struct {
	Exclusive Exclusive
	Rounds    []ReadRound
}

// Run measures the exclusive cycle speed of both lockers, then runs the
// concurrent-reader comparison once per hold time.
func Run(ctx context.Context, o Options) (*Report, error) {
	dir := o.Dir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "fslock-bench-")
		if err != nil {
			return nil, errors.Wrap(err, "failed to create benchmark directory")
		}
		defer func() { _ = os.RemoveAll(tmp) }()
		dir = tmp
	}

	target := filepath.Join(dir, "benchmark.txt")
	if err := os.WriteFile(target, []byte("benchmark data"), 0644); err != nil {
		return nil, errors.Wrap(err, "failed to create benchmark file")
	}
	defer func() { _ = os.Remove(target) }()

	excl, err := ExclusiveCycles(ctx, target, o.Iterations, o.LockOptions...)
	if err != nil {
		return nil, err
	}
	report := &Report{Exclusive: excl}

	for _, hold := range o.Holds {
		round := ReadRound{Readers: o.Readers, Hold: hold}
		if round.Single, err = ConcurrentReads(ctx, Single, target, o.Readers, hold, o.LockOptions...); err != nil {
			return nil, err
		}
		if round.Multi, err = ConcurrentReads(ctx, Multi, target, o.Readers, hold, o.LockOptions...); err != nil {
			return nil, err
		}
		report.Rounds = append(report.Rounds, round)
	}
	return report, nil
}

// ExclusiveCycles times iterations write lock/unlock cycles on target with
// each locker kind.
func ExclusiveCycles(ctx context.Context, target string, iterations int, opts ...lock.Option) (Exclusive, error) {
	res := Exclusive{Iterations: iterations}

	var err error
	if res.Single, err = cycle(ctx, Single, target, iterations, opts); err != nil {
		return res, err
	}
	if res.Multi, err = cycle(ctx, Multi, target, iterations, opts); err != nil {
		return res, err
	}
	return res, nil
}

func cycle(ctx context.Context, newLocker Factory, target string, iterations int, opts []lock.Option) (time.Duration, error) {
	l, err := newLocker(target, opts...)
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()

	start := time.Now()
	for i := 0; i < iterations; i++ {
		if _, err := l.WriteLockContext(ctx); err != nil {
			return 0, err
		}
		if err := l.WriteUnlock(); err != nil {
			return 0, err
		}
	}
	return time.Since(start), nil
}

// ConcurrentReads starts readers goroutines behind a common start line.
// Each takes a read lock on target with its own owner token, holds it for
// hold and releases it. A reader's wait budget always covers every other
// reader holding the lock in turn, so exclusive lockers queue instead of
// timing out.
func ConcurrentReads(ctx context.Context, newLocker Factory, target string, readers int, hold time.Duration, opts ...lock.Option) (Reads, error) {
	if readers < 1 {
		return Reads{}, errors.NewConfigError("readers", readers, errors.Wrap(errors.ErrInvalidConfiguration, "must be at least 1"))
	}

	type stamp struct {
		start, acquired, done time.Time
	}
	stamps := make([]stamp, readers)

	lockers := make([]lock.Locker, readers)
	for i := range lockers {
		readerOpts := append(append([]lock.Option{}, opts...),
			lock.WithOwner(lock.NewOwnerToken()),
			lock.WithWaitMax(time.Duration(readers)*hold+lock.DefaultWaitMax))
		l, err := newLocker(target, readerOpts...)
		if err != nil {
			return Reads{}, err
		}
		lockers[i] = l
	}

	g, ctx := errgroup.WithContext(ctx)
	var ready sync.WaitGroup
	ready.Add(readers)
	startLine := make(chan struct{})

	for i, l := range lockers {
		i, l := i, l
		g.Go(func() error {
			defer func() { _ = l.Close() }()

			ready.Done()
			select {
			case <-startLine:
			case <-ctx.Done():
				return ctx.Err()
			}

			stamps[i].start = time.Now()
			if _, err := l.ReadLockContext(ctx); err != nil {
				return err
			}
			stamps[i].acquired = time.Now()

			select {
			case <-time.After(hold):
			case <-ctx.Done():
				_ = l.ReadUnlock()
				return ctx.Err()
			}

			if err := l.ReadUnlock(); err != nil {
				return err
			}
			stamps[i].done = time.Now()
			return nil
		})
	}

	ready.Wait()
	close(startLine)
	if err := g.Wait(); err != nil {
		return Reads{}, err
	}

	first, last := stamps[0].start, stamps[0].done
	var waited time.Duration
	for _, s := range stamps {
		if s.start.Before(first) {
			first = s.start
		}
		if s.done.After(last) {
			last = s.done
		}
		waited += s.acquired.Sub(s.start)
	}
	return Reads{
		Wall:    last.Sub(first),
		AvgWait: waited / time.Duration(readers),
	}, nil
}

// MetricTotal is the summed value of one counter family.
type MetricTotal struct {
	Name  string
	Value float64
}

func (m MetricTotal) String() string {
	return fmt.Sprintf("%s %g", m.Name, m.Value)
}

// CounterTotals gathers g and sums every counter family across its
// labels, sorted by name.
func CounterTotals(g prometheus.Gatherer) ([]MetricTotal, error) {
	mfs, err := g.Gather()
	if err != nil {
		return nil, errors.Wrap(err, "failed to gather metrics")
	}

	var totals []MetricTotal
	for _, mf := range mfs {
		var sum float64
		counter := false
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				sum += c.GetValue()
				counter = true
			}
		}
		if counter {
			totals = append(totals, MetricTotal{Name: mf.GetName(), Value: sum})
		}
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Name < totals[j].Name })
	return totals, nil
}
