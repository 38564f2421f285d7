// Package descendants counts a process's descendants by walking procfs.
// It exists purely to make the Shutdown Sequencer's "waiting for child
// processes to finish..." log line informative (spec §4.5's first-try
// logging); the Reaper itself never needs this (it drains via a single
// wait4(-1, ...) loop regardless of how many descendants exist or how
// they're related).
//
// Adapted from msantos-goreap's process package (process/process.go,
// process/list.go), which offers several competing strategies
// (/proc/<pid>/stat walking vs. /proc/<pid>/task/<pid>/children) for the
// same job; this keeps only the plain /proc/<pid>/stat walk, since a
// best-effort diagnostic count has no need for the children-file fast
// path goreap's reaper uses to issue signals.
package descendants

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const procfs = "/proc"

type pidEntry struct {
	pid  int
	ppid int
}

// Count returns the number of live descendants of pid, found by walking
// /proc. Any error (procfs unavailable, a stat file vanishing mid-walk)
// yields 0 rather than propagating, since this is a best-effort log
// enrichment, never a correctness dependency.
func Count(pid int) int {
	all, err := snapshot(procfs)
	if err != nil {
		return 0
	}
	return len(walk(all, pid))
}

func snapshot(root string) ([]pidEntry, error) {
	matches, err := filepath.Glob(filepath.Join(root, "[0-9]*", "stat"))
	if err != nil {
		return nil, err
	}

	entries := make([]pidEntry, 0, len(matches))
	for _, stat := range matches {
		e, err := readProcStat(stat)
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// readProcStat parses the pid and ppid out of a /proc/<pid>/stat line:
//
//	<pid> (<comm>) <state> <ppid> ...
//
// comm may itself contain spaces or parentheses, so the split point is
// the *last* ')' on the line, not the first.
func readProcStat(name string) (pidEntry, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return pidEntry{}, err
	}
	stat := string(b)

	var pid int
	if n, err := fmt.Sscanf(stat, "%d ", &pid); err != nil || n != 1 {
		return pidEntry{}, fmt.Errorf("malformed stat line: %s", name)
	}

	bracket := strings.LastIndexByte(stat, ')')
	if bracket == -1 {
		return pidEntry{}, fmt.Errorf("malformed stat line: %s", name)
	}

	var state byte
	var ppid int
	if n, err := fmt.Sscanf(stat[bracket+1:], " %c %d", &state, &ppid); err != nil || n != 2 {
		return pidEntry{}, fmt.Errorf("malformed stat line: %s", name)
	}

	return pidEntry{pid: pid, ppid: ppid}, nil
}

func walk(all []pidEntry, root int) []int {
	seen := make(map[int]struct{})
	var visit func(parent int)
	visit = func(parent int) {
		for _, e := range all {
			if e.ppid != parent {
				continue
			}
			if _, ok := seen[e.pid]; ok {
				continue
			}
			seen[e.pid] = struct{}{}
			visit(e.pid)
		}
	}
	visit(root)

	out := make([]int, 0, len(seen))
	for pid := range seen {
		out = append(out, pid)
	}
	return out
}
