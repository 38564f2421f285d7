package router_test

import (
	"os/exec"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/sinit-project/sinit/internal/config"
	"github.com/sinit-project/sinit/internal/logger"
	"github.com/sinit-project/sinit/internal/router"
	"github.com/sinit-project/sinit/internal/state"
)

func baseConfig() *config.Config {
	return &config.Config{
		WaitForChildren:            true,
		BroadcastSigtermBeforeWait: true,
		ExitOnSigint:               true,
		CheckPID1:                  true,
		Command:                    []string{"sleep", "120"},
	}
}

func TestRouteTerminateWithoutChildLatchesAndIsMeaningful(t *testing.T) {
	cfg := baseConfig()
	cfg.Command = nil
	st := state.New()

	meaningful := router.Route(unix.SIGTERM, cfg, st, logger.Null)
	if !meaningful {
		t.Fatalf("SIGTERM must always be meaningful")
	}
	if !st.ExitSignalReceived {
		t.Fatalf("SIGTERM must latch ExitSignalReceived")
	}
}

func TestRouteInterruptWithoutChildHonorsExitOnSigint(t *testing.T) {
	cfg := baseConfig()
	cfg.Command = nil
	cfg.ExitOnSigint = false
	st := state.New()

	if router.Route(unix.SIGINT, cfg, st, logger.Null) {
		t.Fatalf("SIGINT should be ignored (not meaningful) when ExitOnSigint is false")
	}
	if st.ExitSignalReceived {
		t.Fatalf("latch must not be set when SIGINT is ignored")
	}

	cfg.ExitOnSigint = true
	if !router.Route(unix.SIGINT, cfg, st, logger.Null) {
		t.Fatalf("SIGINT should be meaningful when ExitOnSigint is true")
	}
	if !st.ExitSignalReceived {
		t.Fatalf("latch must be set once ExitOnSigint allows it")
	}
}

func TestRouteInterruptWithChildForwardsAndIsNotMeaningful(t *testing.T) {
	cmd := exec.Command("sleep", "120")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = cmd.Process.Kill() }()

	cfg := baseConfig()
	st := state.New()
	st.SetChild(cmd.Process.Pid)

	meaningful := router.Route(unix.SIGINT, cfg, st, logger.Null)
	if meaningful {
		t.Fatalf("SIGINT forwarded to an existing child must not itself be meaningful")
	}
	if st.ExitSignalReceived {
		t.Fatalf("supervisor must not latch its own exit on a forwarded SIGINT")
	}
}

func TestRouteChildStateChangeReapsAndIsAlwaysMeaningful(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	pid := cmd.Process.Pid

	cfg := baseConfig()
	st := state.New()
	st.SetChild(pid)

	deadline := time.Now().Add(time.Second)
	for {
		meaningful := router.Route(unix.SIGCHLD, cfg, st, logger.Null)
		if !meaningful {
			t.Fatalf("SIGCHLD routing must always be meaningful")
		}
		if !st.HasChild() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for child to be reaped")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if st.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, want 0", st.ExitCode)
	}
}

func TestRouteInterruptWithCommandButNoChildIsInertNotMeaningful(t *testing.T) {
	// A command was configured and its primary child has already been
	// reaped (e.g. wait_for_children is still draining orphans); SIGINT
	// must remain a no-op here, not fall through to the no-command
	// ExitOnSigint branch.
	cfg := baseConfig()
	st := state.New()

	if router.Route(unix.SIGINT, cfg, st, logger.Null) {
		t.Fatalf("SIGINT must not be meaningful once a command is configured, even with no child tracked")
	}
	if st.ExitSignalReceived {
		t.Fatalf("SIGINT must not latch the exit signal when a command is configured")
	}
}

func TestRouteOtherSignalWithoutChildIsIgnored(t *testing.T) {
	cfg := baseConfig()
	cfg.Command = nil
	st := state.New()

	if router.Route(unix.SIGUSR1, cfg, st, logger.Null) {
		t.Fatalf("an unrelated signal without a child must not be meaningful")
	}
}
