// Package sequencer implements the Shutdown Sequencer of spec §4.5: a
// fixed, ordered list of predicates, each advanced at most once, that
// together decide when the supervisor may exit.
package sequencer

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"

	"github.com/sinit-project/sinit/internal/config"
	"github.com/sinit-project/sinit/internal/descendants"
	"github.com/sinit-project/sinit/internal/logger"
	"github.com/sinit-project/sinit/internal/reaper"
	"github.com/sinit-project/sinit/internal/state"
)

// step is one gate predicate. firstTry is true only on the first
// evaluation of this step since the cursor landed on it; a step may use
// it to emit a one-shot log line but must not otherwise vary its side
// effects on it (spec §4.5).
type step func(cfg *config.Config, st *state.State, log logger.Logger, firstTry bool) bool

// steps is the fixed order from spec §4.5: child-finished,
// exit-signal-observed, broadcast-terminate, subtree-drained.
var steps = []step{
	stepChildFinished,
	stepExitSignalObserved,
	stepBroadcastTerminate,
	stepSubtreeDrained,
}

// Advance evaluates steps starting at st.StepCursor, moving forward as
// far as they return true, and reports whether the sequence has reached
// its end (the supervisor may exit).
func Advance(cfg *config.Config, st *state.State, log logger.Logger) (done bool) {
	for st.StepCursor < len(steps) {
		first := st.ConsumeFirstTry()
		if !steps[st.StepCursor](cfg, st, log, first) {
			return false
		}
		st.AdvanceStep()
	}
	return true
}

func stepChildFinished(cfg *config.Config, st *state.State, log logger.Logger, firstTry bool) bool {
	if cfg.Command == nil {
		return true
	}
	if firstTry {
		log.Infof("waiting for subprocess (pid=%d) to finish...", st.ChildPID)
	}
	return !st.HasChild()
}

func stepExitSignalObserved(cfg *config.Config, st *state.State, log logger.Logger, firstTry bool) bool {
	if cfg.Command != nil {
		// Driven by the child's exit (step 1), not directly by a signal.
		return true
	}
	if firstTry {
		if cfg.ExitOnSigint {
			log.Infof("waiting for SIGTERM/SIGINT to exit...")
		} else {
			log.Infof("waiting for SIGTERM to exit...")
		}
	}
	return st.ExitSignalReceived
}

func stepBroadcastTerminate(cfg *config.Config, st *state.State, log logger.Logger, firstTry bool) bool {
	if cfg.WaitForChildren && cfg.BroadcastSigtermBeforeWait {
		log.Infof("broadcasting SIGTERM before waiting for children")
		if err := unix.Kill(-1, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
			log.Errorf("kill(-1, SIGTERM): %s", err)
		}
	}
	return true
}

func stepSubtreeDrained(cfg *config.Config, st *state.State, log logger.Logger, firstTry bool) bool {
	if !cfg.WaitForChildren {
		return true
	}
	if firstTry {
		log.Infof("waiting for child processes to finish... (%d descendants remaining)", descendants.Count(os.Getpid()))
	}

	res := reaper.Drain(st.ChildPID, log)
	if res.ChildExited {
		st.ClearChild()
		st.SetExitCode(res.ChildExitCode)
	}
	return res.SubtreeEmpty
}
