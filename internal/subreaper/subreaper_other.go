//go:build !linux

package subreaper

import "golang.org/x/sys/unix"

// Set is unsupported outside Linux: there's no subreaper concept, so
// debugging with -D on other platforms just won't see re-parented
// orphans.
func Set() (supported bool, err error) {
	return false, unix.ENOSYS
}

// Get always reports false on this platform.
func Get() bool {
	return false
}
