// Package router implements the Signal Router of spec §4.4: for each
// dequeued signal, decide whether to reap, forward (to the child or its
// process group), latch a shutdown request, or ignore it.
package router

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/sinit-project/sinit/internal/config"
	"github.com/sinit-project/sinit/internal/logger"
	"github.com/sinit-project/sinit/internal/reaper"
	"github.com/sinit-project/sinit/internal/state"
)

// Route dispatches one dequeued signal against the runtime state and
// reports whether it was "meaningful" — whether the Shutdown Sequencer
// should re-evaluate its steps. A false return means the event loop
// should simply fetch the next signal.
func Route(sig unix.Signal, cfg *config.Config, st *state.State, log logger.Logger) bool {
	switch sig {
	case unix.SIGCHLD:
		return routeChildStateChange(st, log)

	case unix.SIGTERM:
		return routeTerminate(cfg, st, log)

	case unix.SIGINT:
		return routeInterrupt(cfg, st, log)

	default:
		routeOther(sig, st, log)
		return false
	}
}

func routeChildStateChange(st *state.State, log logger.Logger) bool {
	res := reaper.Drain(st.ChildPID, log)
	if res.ChildExited {
		st.ClearChild()
		st.SetExitCode(res.ChildExitCode)
	}
	// Reaping is always meaningful: it may have cleared the primary
	// child or drained the subtree, either of which a sequencer step is
	// waiting on.
	return true
}

func routeTerminate(cfg *config.Config, st *state.State, log logger.Logger) bool {
	log.Infof("received SIGTERM")
	if st.HasChild() {
		if cfg.CreateSubprocGroup {
			log.Infof("forwarding SIGTERM to process group (pgid=%d)", st.ChildPID)
			killGroup(st.ChildPID, unix.SIGTERM, log)
		} else {
			forward(st.ChildPID, unix.SIGTERM, log)
		}
	}
	st.LatchExitSignal()
	return true
}

func routeInterrupt(cfg *config.Config, st *state.State, log logger.Logger) bool {
	// A configured command owns SIGINT: forward it while the child is
	// still running, but never latch our own exit on it, even once the
	// child has been reaped and we're only draining the rest of the
	// subtree (spec §4.4, §6's "-I... ignored when you specify a
	// command").
	if cfg.Command != nil {
		if st.HasChild() {
			forward(st.ChildPID, unix.SIGINT, log)
		}
		return false
	}
	if cfg.ExitOnSigint {
		st.LatchExitSignal()
		return true
	}
	return false
}

func routeOther(sig unix.Signal, st *state.State, log logger.Logger) {
	if st.HasChild() {
		forward(st.ChildPID, sig, log)
	}
	// Without a configured command, any other signal is simply dropped:
	// it was dequeued (not left pending) but has no effect.
}

// forward sends sig to a single pid, swallowing "process already gone"
// (spec §7 kind 4: it naturally races with reaping).
func forward(pid int, sig unix.Signal, log logger.Logger) {
	log.Debugf("forwarding signal=%d to pid=%d", sig, pid)
	if err := unix.Kill(pid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		log.Errorf("kill(%d, %d): %s", pid, sig, err)
	}
}

// killGroup sends sig to the process group led by pid using the
// negative-pid group-send convention.
func killGroup(pid int, sig unix.Signal, log logger.Logger) {
	if err := unix.Kill(-pid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		log.Errorf("kill(-%d, %d): %s", pid, sig, err)
	}
}
