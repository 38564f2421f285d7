// Package supervisor wires state, the signal gate, the launcher, the
// router and the sequencer into the single event loop described in spec
// §2 and §5.
package supervisor

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/sinit-project/sinit/internal/config"
	"github.com/sinit-project/sinit/internal/launcher"
	"github.com/sinit-project/sinit/internal/logger"
	"github.com/sinit-project/sinit/internal/router"
	"github.com/sinit-project/sinit/internal/sequencer"
	"github.com/sinit-project/sinit/internal/sigmask"
	"github.com/sinit-project/sinit/internal/state"
	"github.com/sinit-project/sinit/internal/subreaper"
)

// Run executes the full supervisor lifecycle for cfg and returns the
// exit code this process should itself exit with, along with a non-nil
// error only for the setup failures of spec §7 kinds 1-2 and for the
// fatal loss of the signal channel (kind 5); the caller reports any such
// error and turns it into exit code 1.
func Run(cfg *config.Config, log logger.Logger) (int, error) {
	if cfg.CheckPID1 && os.Getpid() != 1 {
		return 1, fmt.Errorf("not running as pid 1 (use -D to skip this check)")
	}

	if !cfg.CheckPID1 && os.Getpid() != 1 {
		// Not really PID 1 (debug run): the kernel won't hand us
		// orphans automatically, so ask to become a subreaper instead.
		if supported, err := subreaper.Set(); err != nil {
			log.Errorf("prctl(PR_SET_CHILD_SUBREAPER): %s", err)
		} else if !supported {
			log.Debugf("child subreaper not supported on this kernel")
		}
	}

	// Signal Gate: installed before any child is spawned (spec §4.1).
	// The returned signal set is consumed purely by signal.Notify's own
	// filtering; nothing downstream needs a second copy of it.
	sigCh, _ := sigmask.Install(cfg.ForwardRealtimeSignals)

	st := state.New()

	if cfg.Command != nil {
		pid, err := launcher.Spawn(cfg.Command, cfg.CreateSubprocGroup, log)
		if err != nil {
			return 1, err
		}
		st.SetChild(pid)
	}

	for {
		if sequencer.Advance(cfg, st, log) {
			break
		}

		if !waitForMeaningfulSignal(sigCh, cfg, st, log) {
			// The signal channel will never close in normal operation;
			// this is only reachable if the runtime tears it down,
			// which this program treats as the fatal "lost our input"
			// condition of spec §4.5's failure semantics.
			return 1, fmt.Errorf("signal channel closed unexpectedly")
		}
	}

	log.Infof("finished")
	return st.ExitCode, nil
}

// waitForMeaningfulSignal dequeues signals one at a time, routing each,
// until one is reported meaningful (or the channel is closed).
func waitForMeaningfulSignal(sigCh <-chan os.Signal, cfg *config.Config, st *state.State, log logger.Logger) bool {
	for {
		sig, ok := <-sigCh
		if !ok {
			return false
		}

		s, ok := sig.(syscall.Signal)
		if !ok {
			continue
		}

		if router.Route(unix.Signal(s), cfg, st, log) {
			return true
		}
	}
}
