// Package subreaper lets the supervisor collect orphaned descendants
// even when it is not actually running as PID 1 (spec §6: -D/check_pid_1
// disabled is "intended for debugging outside a container"). The kernel
// normally re-parents orphans onto PID 1; PR_SET_CHILD_SUBREAPER asks it
// to re-parent them onto the nearest ancestor with the flag set instead,
// so the Reaper (spec §4.3) keeps working in that debug configuration.
//
// Adapted from msantos-goreap's subreaper package and from
// canonical-pebble's setChildSubreaper (internal/overlord/servstate):
// like pebble's version, Set reports whether the kernel even supports
// the flag (EINVAL on Linux < 3.4) rather than treating that as an
// error.
package subreaper

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Set marks this process as a child subreaper. It returns supported=false
// (with a nil error) on kernels too old to know about the flag; any other
// error is a genuine failure.
func Set() (supported bool, err error) {
	err = unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0)
	if err == unix.EINVAL {
		return false, nil
	}
	return err == nil, err
}

// Get reports whether this process is currently a child subreaper.
func Get() bool {
	var arg2 int
	err := unix.Prctl(unix.PR_GET_CHILD_SUBREAPER, uintptr(unsafe.Pointer(&arg2)), 0, 0, 0)
	return err == nil && arg2 == 1
}
