// Package launcher implements the Child Launcher of spec §4.2: produce the
// primary child with the correct process-group and controlling-terminal
// state, then exec the user program.
//
// It builds on os/exec the way msantos-goreap's own execv helpers
// (main.go, cmd/goreap/main.go, reap/reap.go) do, adding the
// Setpgid/Foreground SysProcAttr fields the Linux runtime's fork/exec
// trampoline already implements natively in the child before exec, which
// is exactly the "create a process group, then claim the controlling
// terminal's foreground group" sequence spec §4.2 step 2 asks for (see
// SPEC_FULL.md §C.2 for why this is preferred over a hand-rolled
// syscall.ForkExec).
package launcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/sinit-project/sinit/internal/logger"
)

// Spawn starts argv[0] with argv[1:] as its arguments, inheriting this
// process's standard streams and environment. If group is true the child
// becomes the leader of a new process group and that group is made the
// foreground group of the controlling terminal on fd 0; a missing
// controlling terminal (ENOTTY) is tolerated by retrying without the
// foreground claim (but still in its own group), matching spec §4.2's
// "no controlling terminal is benign" rule.
//
// Unlike ordinary os/exec use, the returned *exec.Cmd's Wait method must
// never be called: this program's own Reaper (spec §4.3) reaps every
// descendant, including the primary child, via a single centralized
// wait4(-1, ...) loop, so a second independent wait on the same pid would
// race the kernel's "no such child" bookkeeping. Callers need only the
// pid.
func Spawn(argv []string, group bool, log logger.Logger) (pid int, err error) {
	log.Infof("spawning subprocess %q", argv[0])

	cmd := build(argv, group, true)
	startErr := cmd.Start()

	if startErr != nil && group && isENOTTY(startErr) {
		log.Infof("no controlling terminal; creating process group without claiming foreground")
		cmd = build(argv, group, false)
		startErr = cmd.Start()
	}

	if startErr != nil {
		return 0, fmt.Errorf("spawn %q: %w", argv[0], startErr)
	}

	return cmd.Process.Pid, nil
}

func build(argv []string, group, foreground bool) *exec.Cmd {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if group {
		cmd.SysProcAttr = &syscall.SysProcAttr{
			Setpgid:    true,
			Foreground: foreground,
			Ctty:       0, // stdin; only consulted when Foreground is set
		}
	}

	return cmd
}

func isENOTTY(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ENOTTY
	}
	return false
}
