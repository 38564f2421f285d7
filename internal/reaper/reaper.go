// Package reaper implements the non-blocking descendant drain described in
// spec §4.3. It is grounded on canonical-pebble's internal/overlord/servstate
// reapOnce (itself built on golang.org/x/sys/unix.Wait4/WaitStatus) and on
// msantos-goreap's own wait4 loop in reap/reap.go and main.go.
package reaper

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/sinit-project/sinit/internal/logger"
)

// UnknownExitSentinel is returned as the child's exit code when wait4
// reports a termination that is neither a normal exit nor a signal kill
// (spec §9: "an implementation may clamp to a defined sentinel"). 125 is
// a plain non-negative process exit status below the 128+signal range
// this program itself uses for signaled children. It is inside the 0-127
// normal-exit range, so a child that exits with status 125 on its own
// yields the same exit code.
const UnknownExitSentinel = 125

// Result reports what a single drain pass observed.
type Result struct {
	// ChildExited is true if the primary child (childPID) was reaped
	// during this pass.
	ChildExited bool
	// ChildExitCode is meaningful only if ChildExited is true.
	ChildExitCode int
	// SubtreeEmpty is true once wait4 reports ECHILD: no descendants
	// remain anywhere in the subtree.
	SubtreeEmpty bool
}

// Drain repeatedly reaps any terminated descendant in non-blocking mode
// until none remain ready. childPID identifies the primary child (or
// state.NoChild if none was spawned) so its exit status can be
// distinguished from an orphan's.
func Drain(childPID int, log logger.Logger) Result {
	var res Result

	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG, nil)

		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			// No children exist at all: the subtree is empty.
			res.SubtreeEmpty = true
			return res
		case err != nil:
			// Transient kernel error (spec §7 kind 4): logged and
			// treated as "subtree empty" defensively so the loop can
			// conclude rather than spin forever.
			log.Errorf("wait4: %s", err)
			res.SubtreeEmpty = true
			return res
		case pid == 0:
			// More children exist but none are ready right now.
			return res
		}

		if pid == childPID {
			res.ChildExited = true
			res.ChildExitCode = exitCodeFor(ws)
			log.Infof("primary child (pid=%d) finished with exit code %d", pid, res.ChildExitCode)
			continue
		}

		log.Debugf("reaped orphan pid=%d", pid)
	}
}

func exitCodeFor(ws unix.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 0x80 | int(ws.Signal())
	default:
		return UnknownExitSentinel
	}
}
