package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/bashhack/fslock/internal/config"
	internalErrors "github.com/bashhack/fslock/internal/errors"
	"github.com/bashhack/fslock/internal/lock"
	"github.com/bashhack/fslock/internal/logger"
)

// Logger alias to logger.Logger
type Logger = logger.Logger

// LockerFactory builds the locker used by the run command.
type LockerFactory func(target string, opts ...lock.Option) (lock.Locker, error)

// AppOptions contains app configuration and dependencies
type AppOptions struct {
	// Required
	VersionInfo config.VersionInfo

	// Optional components
	Config    *config.Config
	Logger    Logger
	NewLocker LockerFactory
	Guard     lock.Guard
	Registry  *prometheus.Registry

	// I/O dependencies
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// System dependencies
	Exit         func(code int)
	ExecLookPath func(file string) (string, error)
	RunCommand   func(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) (int, error)
}

// App is the main fslock application
type App struct {
	Config    *config.Config
	Logger    Logger
	NewLocker LockerFactory
	Guard     lock.Guard
	Registry  *prometheus.Registry

	// I/O streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	versionInfo config.VersionInfo
	viper       *viper.Viper

	// System dependencies
	exit         func(code int)
	execLookPath func(file string) (string, error)
	runCommand   func(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) (int, error)
}

// exitCodeError carries the exit status of a child process out of the
// command tree.
type exitCodeError struct {
	code int
	msg  string // reported on stderr when set
}

func (e *exitCodeError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return fmt.Sprintf("exit status %d", e.code)
}

// NewDefaultApp creates an App with standard dependencies
func NewDefaultApp(versionInfo config.VersionInfo) *App {
	return NewApp(AppOptions{
		VersionInfo:  versionInfo,
		Stdin:        os.Stdin,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Exit:         os.Exit,
		ExecLookPath: exec.LookPath,
		RunCommand:   runCommand,
	})
}

// NewApp creates an App with custom dependencies
func NewApp(opts AppOptions) *App {
	app := &App{
		Config:       opts.Config,
		Logger:       opts.Logger,
		NewLocker:    opts.NewLocker,
		Guard:        opts.Guard,
		Registry:     opts.Registry,
		Stdin:        opts.Stdin,
		Stdout:       opts.Stdout,
		Stderr:       opts.Stderr,
		versionInfo:  opts.VersionInfo,
		viper:        viper.New(),
		exit:         opts.Exit,
		execLookPath: opts.ExecLookPath,
		runCommand:   opts.RunCommand,
	}

	// Set defaults for nil dependencies
	if app.Stdin == nil {
		app.Stdin = os.Stdin
	}
	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}
	if app.exit == nil {
		app.exit = os.Exit
	}
	if app.execLookPath == nil {
		app.execLookPath = exec.LookPath
	}
	if app.runCommand == nil {
		app.runCommand = runCommand
	}

	return app
}

// Initialize loads the configuration from flags, environment and config
// file, and sets up components not provided during construction.
func (a *App) Initialize() error {
	if a.Config == nil {
		cfg, err := config.Load(a.viper)
		if err != nil {
			// config.Load already returns a wrapped configuration error
			if internalErrors.Is(err, internalErrors.ErrInvalidConfiguration) {
				return err
			}
			return internalErrors.Wrap(internalErrors.ErrInvalidConfiguration, err.Error())
		}
		a.Config = cfg
	}
	a.Config.VersionInfo = a.versionInfo

	if a.Logger == nil {
		l := logger.NewWithOutput(a.Config.Debug, a.Config.LogFile, a.Config.Verbose, a.Stdout, a.Stderr)
		a.Logger = l
	}

	if a.NewLocker == nil {
		if a.Config.Single {
			a.NewLocker = func(target string, opts ...lock.Option) (lock.Locker, error) {
				return lock.NewSingleLocker(target, opts...)
			}
		} else {
			a.NewLocker = func(target string, opts ...lock.Option) (lock.Locker, error) {
				return lock.NewMultiLocker(target, opts...)
			}
		}
	}

	if a.Guard == nil {
		// the guard exits the process itself, so metrics and the log are
		// flushed here rather than by Execute
		a.Guard = lock.NewSignalGuardWithExit(a.Logger, func(code int) {
			if err := a.Close(); err != nil {
				_, _ = fmt.Fprintf(a.Stderr, "❌ Error during cleanup: %v\n", err)
			}
			a.exit(code)
		})
	}

	if a.Registry == nil {
		a.Registry = prometheus.NewRegistry()
		lock.RegisterMetrics(a.Registry)
	}

	return nil
}

// lockOptions returns the lock options for the loaded configuration.
func (a *App) lockOptions() []lock.Option {
	return a.Config.Options(a.Logger, a.Logger.Progress())
}

// Execute runs the command line in args and returns the process exit code.
func (a *App) Execute(ctx context.Context, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(a.Stdin)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	err := root.ExecuteContext(ctx)
	if cErr := a.Close(); cErr != nil {
		_, _ = fmt.Fprintf(a.Stderr, "❌ Error during cleanup: %v\n", cErr)
	}

	var exitErr *exitCodeError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		if exitErr.msg != "" {
			_, _ = fmt.Fprintf(a.Stderr, "❌ Error: %s\n", exitErr.msg)
		}
		return exitErr.code
	}

	_, _ = fmt.Fprintf(a.Stderr, "❌ Error: %v\n", err)
	return 1
}

// ShowVersion displays version information
func (a *App) ShowVersion() {
	_, _ = fmt.Fprintf(a.Stdout, "fslock %s (%s) built on %s\n",
		a.versionInfo.Version,
		a.versionInfo.Commit,
		a.versionInfo.Date)
}

// Close writes the metrics file, if one is configured, and closes the
// logger.
func (a *App) Close() error {
	var errs []error

	if a.Config != nil && a.Config.MetricsFile != "" && a.Registry != nil {
		if err := prometheus.WriteToTextfile(a.Config.MetricsFile, a.Registry); err != nil {
			if a.Logger != nil {
				a.Logger.Error("Failed to write metrics file: %v", err)
			}
			errs = append(errs, internalErrors.Wrapf(err, "failed to write metrics to %s", a.Config.MetricsFile))
		}
	}

	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil {
			_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to close logger: %v\n", err)
			errs = append(errs, err)
		}
	}

	return internalErrors.Join(errs...)
}

// runCommand runs argv with the given standard streams and returns its
// exit status. A command that cannot be started is an error.
func runCommand(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, internalErrors.Wrapf(err, "failed to run %s", argv[0])
	}
	return 0, nil
}
