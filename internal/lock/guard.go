package lock

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bashhack/fslock/internal/common"
	"github.com/bashhack/fslock/internal/logger"
)

// Guard arranges for cleanup to run if the process is asked to terminate
// while a scoped lock is held.
//
// Install registers cleanup and returns a restore function that undoes the
// registration. Implementations that cannot register anything return an
// error; scoped locking logs it and carries on without the safety net.
type Guard interface {
	Install(cleanup func()) (restore func(), err error)
}

// NopGuard installs nothing. Use it where asynchronous signals are not
// available or are owned by someone else.
type NopGuard struct{}

// Install implements Guard.
func (NopGuard) Install(func()) (func(), error) {
	return func() {}, nil
}

// SignalGuard runs cleanup on SIGINT or SIGTERM and then exits the process
// with status 128+signal.
type SignalGuard struct {
	logger  common.Logger
	signals []os.Signal
	exit    func(code int)
}

// NewSignalGuard returns a SignalGuard for SIGINT and SIGTERM that reports
// the interrupt to log and exits with os.Exit.
func NewSignalGuard(log common.Logger) *SignalGuard {
	if log == nil {
		log = logger.Nop()
	}
	return &SignalGuard{
		logger:  log,
		signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
		exit:    os.Exit,
	}
}

// NewSignalGuardWithExit is NewSignalGuard with exit called in place of
// os.Exit, so the caller can flush its own state before the process ends.
func NewSignalGuardWithExit(log common.Logger, exit func(code int)) *SignalGuard {
	g := NewSignalGuard(log)
	if exit != nil {
		g.exit = exit
	}
	return g
}

// Install starts watching for the guarded signals. The returned restore
// function stops the watch, which hands the signals back to whatever
// handled them before; it is safe to call more than once.
func (g *SignalGuard) Install(cleanup func()) (func(), error) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, g.signals...)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			g.logger.WarningToUser("Received %s, unlocking file and exiting...", sig)
			cleanup()
			g.exit(exitCode(sig))
		case <-done:
		}
	}()

	var once sync.Once
	restore := func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
	return restore, nil
}

func exitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}
