// Package sigmask implements the Signal Gate of spec §4.1: it computes
// the set of signals the event loop cares about and installs the
// process-wide "defer delivery until explicitly dequeued" contract.
//
// Go has no portable way to block signals at the process mask level and
// later fetch them with a synchronous primitive the way sigprocmask(2) +
// sigwait(2) do in C (the runtime owns SIGCHLD/SIGURG and multiplexes
// every OS thread); os/signal.Notify is the idiomatic equivalent,
// guaranteed by the runtime to never run user code at delivery time and
// to only enqueue onto a channel — this program's single select/receive
// on that channel is its one synchronous dequeue point (spec §5, §9; see
// SPEC_FULL.md §C.1 for the full rationale, and msantos-goreap's own
// main.go/cmd/goreap/main.go for the precedent of using signal.Notify
// this way).
package sigmask

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// rtSigMin and rtSigMax bound the real-time signal range forwarded when
// forward_realtime_signals is set. Go has no portable SIGRTMIN/SIGRTMAX
// accessor (unlike glibc's sigrtmin()/sigrtmax()), so this uses the
// stable Linux kernel range after glibc's two reserved signals, which is
// the same range dumb-init and tini document for their own -r/realtime
// forwarding.
const (
	rtSigMin = 34
	rtSigMax = 64
)

// Used computes the full monitored signal set (spec §3's used_sigmask):
// the fixed standard set plus, if forwardRealtime, every real-time
// signal.
func Used(forwardRealtime bool) []unix.Signal {
	sigs := []unix.Signal{
		unix.SIGHUP,
		unix.SIGINT,
		unix.SIGQUIT,
		unix.SIGUSR1,
		unix.SIGUSR2,
		unix.SIGTERM,
		unix.SIGCHLD,
	}

	if forwardRealtime {
		for n := rtSigMin; n <= rtSigMax; n++ {
			sigs = append(sigs, unix.Signal(n))
		}
	}

	return sigs
}

// Install routes Used(forwardRealtime) into a buffered channel and
// unconditionally ignores SIGTTOU so the Child Launcher's
// foreground-group reassignment (spec §4.2 step 2) can't stop this
// process. It returns the channel the event loop dequeues from.
func Install(forwardRealtime bool) (<-chan os.Signal, []unix.Signal) {
	used := Used(forwardRealtime)

	osSigs := make([]os.Signal, len(used))
	for i, s := range used {
		osSigs[i] = s
	}

	// Buffered generously: non-realtime signals coalesce in the kernel,
	// but queued realtime signals do not, and the event loop may be busy
	// running a sequencer step when several arrive back to back.
	ch := make(chan os.Signal, 64)
	signal.Notify(ch, osSigs...)

	signal.Ignore(unix.SIGTTOU)

	return ch, used
}
