package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/bashhack/fslock/internal/bench"
	"github.com/bashhack/fslock/internal/config"
	"github.com/bashhack/fslock/internal/constants"
	internalErrors "github.com/bashhack/fslock/internal/errors"
	"github.com/bashhack/fslock/internal/lock"
)

// rootCommand builds the command tree. Global flags are bound to the app's
// viper instance; configuration is loaded once flags are parsed.
func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   constants.AppName,
		Short: "Advisory file locks for processes that share a filesystem",
		Long: `fslock guards files with lock files placed beside them, so that
cooperating processes on the same filesystem can take shared read locks
or exclusive write locks without any lock server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.Initialize()
		},
	}

	if err := config.BindFlags(root.PersistentFlags(), a.viper); err != nil {
		// flags are defined here, so a binding failure is a programming error
		panic(err)
	}

	root.AddCommand(
		a.runCommandCmd(),
		a.catCmd(),
		a.waitCmd(),
		a.statusCmd(),
		a.benchCmd(),
		a.versionCmd(),
	)
	return root
}

func (a *App) runCommandCmd() *cobra.Command {
	var read bool

	cmd := &cobra.Command{
		Use:   "run [--read] <target> -- <command> [args...]",
		Short: "Run a command while holding a lock on target",
		Long: `Run takes a write lock on target (or a read lock with --read), runs the
command, and releases the lock when the command exits. The command's exit
status becomes fslock's. An interrupt releases the lock before exiting.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, argv := args[0], args[1:]
			if argv[0] == "--" {
				argv = argv[1:]
			}
			if len(argv) == 0 {
				return internalErrors.New("no command given")
			}

			if _, err := a.execLookPath(argv[0]); err != nil {
				return &exitCodeError{code: 127, msg: fmt.Sprintf("%s: command not found", argv[0])}
			}

			locker, err := a.NewLocker(target, a.lockOptions()...)
			if err != nil {
				return err
			}

			var code int
			fn := func() error {
				a.Logger.Info("Running %v under a %s lock on %s", argv, modeOf(read), target)
				var runErr error
				code, runErr = a.runCommand(cmd.Context(), argv, a.Stdin, a.Stdout, a.Stderr)
				return runErr
			}

			if read {
				err = lock.WithReadLockContext(cmd.Context(), locker, fn, lock.WithGuard(a.Guard))
			} else {
				err = lock.WithWriteLockContext(cmd.Context(), locker, fn, lock.WithGuard(a.Guard))
			}
			if err != nil {
				return err
			}
			if code != 0 {
				return &exitCodeError{code: code}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&read, "read", false, "Take a shared read lock instead of a write lock")
	// everything after the target belongs to the child command
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func modeOf(read bool) lock.Mode {
	if read {
		return lock.Read
	}
	return lock.Write
}

func (a *App) catCmd() *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "cat [--create] <file>",
		Short: "Print a file under a read lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locker, err := a.NewLocker(args[0], a.lockOptions()...)
			if err != nil {
				return err
			}
			defer func() { _ = locker.Close() }()

			contents, err := lock.LockedReadFileWith(locker, args[0], create,
				lock.WithGuard(a.Guard), lock.WithLockerOptions(a.lockOptions()...))
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(a.Stdout, contents)
			return err
		},
	}
	cmd.Flags().BoolVar(&create, "create", false, "Create the file, empty, if it does not exist")
	return cmd
}

func (a *App) waitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wait <lockfile>",
		Short: "Wait until a lock file disappears",
		Long: `Wait polls the given lock file until it is removed. It gives up after the
wait budget (--wait-max) unless the lock file keeps being refreshed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := lock.MkAbs(args[0])
			if err != nil {
				return err
			}
			w := lock.NewWaiter(a.Logger, a.Logger.Progress())
			if err := w.Wait(cmd.Context(), path, a.Config.WaitMax); err != nil {
				return err
			}
			a.Logger.Success("%s is free", path)
			return nil
		},
	}
}

func (a *App) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <target>",
		Short: "List the lock files present for target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := lock.MkAbs(args[0])
			if err != nil {
				return err
			}
			locks, err := lock.ExistingLocks(target)
			if err != nil {
				return internalErrors.Wrapf(err, "failed to list locks for %s", target)
			}
			if len(locks) == 0 {
				a.Logger.StatusMessage("No locks held on %s", target)
				return nil
			}
			for _, l := range locks {
				a.Logger.StatusMessage("%s", l)
			}
			return nil
		},
	}
}

func (a *App) benchCmd() *cobra.Command {
	var (
		iterations int
		readers    int
		holds      []time.Duration
		dir        string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare single and read/write lockers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := bench.Run(cmd.Context(), bench.Options{
				Dir:         dir,
				Iterations:  iterations,
				Readers:     readers,
				Holds:       holds,
				LockOptions: append(a.lockOptions(), lock.WithProgress(io.Discard)),
			})
			if err != nil {
				return err
			}
			a.printReport(report)

			totals, err := bench.CounterTotals(a.Registry)
			if err != nil {
				return err
			}
			a.Logger.StatusMessage("\nLock metrics")
			a.Logger.StatusMessage("%s", rule)
			for _, t := range totals {
				a.Logger.StatusMessage("   %s", t)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&iterations, "iterations", 100, "Exclusive lock/unlock cycles per locker")
	cmd.Flags().IntVar(&readers, "readers", 4, "Concurrent readers")
	cmd.Flags().DurationSliceVar(&holds, "hold", []time.Duration{500 * time.Millisecond, 3 * time.Second}, "How long each reader holds its lock")
	cmd.Flags().StringVar(&dir, "dir", "", "Directory for the benchmark file (default: a temporary directory)")
	return cmd
}

const rule = "--------------------------------------------------"

func (a *App) printReport(r *bench.Report) {
	e := r.Exclusive
	a.Logger.StatusMessage("fslock locker benchmark")
	a.Logger.StatusMessage("==================================================")
	a.Logger.StatusMessage("\n1. Exclusive lock/unlock (%d iterations)", e.Iterations)
	a.Logger.StatusMessage("%s", rule)
	a.Logger.StatusMessage("   SingleLocker: %.4fs  (%.2fms/cycle)", e.Single.Seconds(), ms(e.PerCycle(e.Single)))
	a.Logger.StatusMessage("   MultiLocker:  %.4fs  (%.2fms/cycle)", e.Multi.Seconds(), ms(e.PerCycle(e.Multi)))
	a.Logger.StatusMessage("   SingleLocker %.1fx faster", e.Speedup())

	for _, round := range r.Rounds {
		a.Logger.StatusMessage("\n2. Concurrent readers (%d readers, %s hold each)", round.Readers, round.Hold)
		a.Logger.StatusMessage("%s", rule)
		a.Logger.StatusMessage("   SingleLocker: %.2fs wall  (avg %.2fs wait)", round.Single.Wall.Seconds(), round.Single.AvgWait.Seconds())
		a.Logger.StatusMessage("   MultiLocker:  %.2fs wall  (avg %.2fs wait)", round.Multi.Wall.Seconds(), round.Multi.AvgWait.Seconds())
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.ShowVersion()
			_, _ = fmt.Fprintln(a.Stdout, constants.Tagline)
			return nil
		},
	}
}
