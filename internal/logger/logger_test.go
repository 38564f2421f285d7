package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sinit-project/sinit/internal/logger"
)

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(&buf, "/usr/bin/sinit", logger.LevelError)

	l.Errorf("boom")
	l.Infof("should not appear")
	l.Debugf("should not appear either")

	out := buf.String()
	if !strings.Contains(out, "[ERROR][sinit] boom") {
		t.Fatalf("missing error line, got %q", out)
	}
	if strings.Contains(out, "should not appear") {
		t.Fatalf("info/debug leaked at error level: %q", out)
	}
}

func TestLevelDebugEmitsEverything(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(&buf, "sinit", logger.LevelDebug)

	l.Errorf("e")
	l.Infof("i")
	l.Debugf("d")

	out := buf.String()
	for _, want := range []string{"[ERROR][sinit] e", "[INFO][sinit] i", "[DEBUG][sinit] d"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestFromVerbosity(t *testing.T) {
	cases := map[int]logger.Level{
		0: logger.LevelError,
		1: logger.LevelInfo,
		2: logger.LevelDebug,
		3: logger.LevelDebug,
	}
	for v, want := range cases {
		if got := logger.FromVerbosity(v); got != want {
			t.Fatalf("FromVerbosity(%d) = %v, want %v", v, got, want)
		}
	}
}
