package launcher_test

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/sinit-project/sinit/internal/launcher"
	"github.com/sinit-project/sinit/internal/logger"
)

func TestSpawnWithoutGroupSharesSupervisorGroup(t *testing.T) {
	pid, err := launcher.Spawn([]string{"sleep", "5"}, false, logger.Null)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer func() { _ = unix.Kill(pid, unix.SIGKILL) }()

	childPgid, err := unix.Getpgid(pid)
	if err != nil {
		t.Fatalf("Getpgid(child): %v", err)
	}
	ownPgid, err := unix.Getpgid(unix.Getpid())
	if err != nil {
		t.Fatalf("Getpgid(self): %v", err)
	}
	if childPgid != ownPgid {
		t.Fatalf("without group isolation the child's pgid (%d) should match the supervisor's (%d)", childPgid, ownPgid)
	}
}

func TestSpawnWithGroupCreatesNewProcessGroup(t *testing.T) {
	pid, err := launcher.Spawn([]string{"sleep", "5"}, true, logger.Null)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer func() { _ = unix.Kill(-pid, unix.SIGKILL) }()

	childPgid, err := unix.Getpgid(pid)
	if err != nil {
		t.Fatalf("Getpgid(child): %v", err)
	}
	if childPgid != pid {
		t.Fatalf("with group isolation the child should lead its own group (pgid=%d, pid=%d)", childPgid, pid)
	}
}
