// Package lock provides cross-process mutual exclusion for one target
// directory via an exclusively created marker file. Two stowaway invocations
// against the same target must never interleave mutations; the marker makes
// the second one fail fast with a path the operator can inspect and remove.
package lock

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/arthur-debert/stowaway/pkg/errors"
	"github.com/arthur-debert/stowaway/pkg/logging"
)

// MarkerName is the lock marker created inside the target root.
const MarkerName = ".stowaway.lock"

// Lock guards one target directory for the lifetime of an invocation.
type Lock struct {
	path     string
	acquired bool
	sigCh    chan os.Signal
	done     chan struct{}
}

// New returns an unacquired lock for the given target root.
func New(targetRoot string) *Lock {
	return &Lock{path: filepath.Join(targetRoot, MarkerName)}
}

// Path returns the marker location, for diagnostics.
func (l *Lock) Path() string {
	return l.path
}

// Acquire creates the marker exclusively. A pre-existing marker means
// another invocation holds (or died holding) the lock; the error names the
// marker path so the operator can remove a stale one by hand.
func (l *Lock) Acquire() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return errors.Newf(errors.ErrLockHeld,
				"another stowaway run is in progress (lock marker: %s; remove it if the previous run was killed)", l.path)
		}
		return errors.Wrapf(err, errors.ErrLockHeld, "failed to create lock marker %s", l.path)
	}
	// The pid lets an operator check whether the holder is still alive.
	fmt.Fprintf(f, "%d\n", os.Getpid())
	_ = f.Close()

	l.acquired = true
	logger := logging.GetLogger("lock")
	logger.Debug().Str("path", l.path).Msg("Lock acquired")
	return nil
}

// Release removes the marker. Safe to call more than once.
func (l *Lock) Release() {
	if !l.acquired {
		return
	}
	l.acquired = false
	if l.sigCh != nil {
		signal.Stop(l.sigCh)
		close(l.done)
		l.sigCh = nil
	}
	logger := logging.GetLogger("lock")
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Str("path", l.path).Msg("Failed to remove lock marker")
		return
	}
	logger.Debug().Str("path", l.path).Msg("Lock released")
}

// ReleaseOnSignal installs a handler so SIGINT/SIGTERM remove the marker
// before the process exits. In-flight filesystem work is not rolled back.
func (l *Lock) ReleaseOnSignal() {
	l.sigCh = make(chan os.Signal, 1)
	l.done = make(chan struct{})
	signal.Notify(l.sigCh, os.Interrupt, syscall.SIGTERM)

	go func(ch chan os.Signal, done chan struct{}) {
		logger := logging.GetLogger("lock")
		select {
		case sig := <-ch:
			logger.Warn().Str("signal", sig.String()).Msg("Interrupted, releasing lock")
			if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
				logger.Error().Err(err).Str("path", l.path).Msg("Failed to remove lock marker on signal")
			}
			os.Exit(130)
		case <-done:
		}
	}(l.sigCh, l.done)
}
