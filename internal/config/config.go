// Package config parses the command line into an immutable Config record.
//
// The surface mirrors the original docker-container-init getopt string
// "+hWBIgrDv": a handful of negating/enabling boolean short flags, a
// stackable -v, and a positional command that begins at the first
// non-option argument (or after a bare "--").
package config

import (
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/canonical/go-flags"
)

// Config is the immutable result of parsing the command line. It is built
// once in main() and handed down to the supervisor; nothing in this repo
// mutates it afterwards.
type Config struct {
	WaitForChildren            bool
	BroadcastSigtermBeforeWait bool
	CreateSubprocGroup         bool
	ForwardRealtimeSignals     bool
	ExitOnSigint               bool
	CheckPID1                  bool
	Verbosity                  int
	Command                    []string // nil if no command was configured
}

// rawOptions mirrors the getopt-style short flags of the original program.
// Every flag is phrased as "disable" or "enable" because the defaults match
// the original's defaults (wait/broadcast/exit-on-sigint default on; group/
// realtime default off).
type rawOptions struct {
	NoWait       bool `short:"W" description:"Don't wait for all children (including inherited/orphaned ones) before exit. This wait is performed after your command (if any) has exited."`
	NoBroadcast  bool `short:"B" description:"Don't broadcast a termination signal before waiting for all children. Ignored when -W is used."`
	NoExitSigint bool `short:"I" description:"Don't exit on SIGINT. Exit only on SIGTERM. Ignored when you specify a command."`
	Group        bool `short:"g" description:"Run your command in its own process group and forward SIGTERM to the group instead of the process created from your command."`
	Realtime     bool `short:"r" description:"Enable forwarding of realtime signals to the specified command. Without this option only the standard signals are forwarded."`
	NoPID1Check  bool `short:"D" description:"Don't check whether this process is running as pid 1. Comes in handy for debugging."`
	Verbose      []bool `short:"v" description:"Log a limited number of info messages to stderr. Repeat (-vv) for a spammy debug level."`

	Positional struct {
		Command []string `positional-arg-name:"command" description:"program to run and its arguments"`
	} `positional-args:"yes"`
}

const usageSuffix = "[options] [--] [command [args...]]"

// Parse interprets args (normally os.Args[1:]) and returns a Config, or an
// error already suitable for printing to the operator. A request for help
// (-h) is reported via ErrHelp so callers can distinguish "print usage and
// exit 1" from a genuine parse failure; both exit 1 per spec.
var ErrHelp = fmt.Errorf("help requested")

func Parse(args []string) (*Config, error) {
	var raw rawOptions
	parser := flags.NewParser(&raw, flags.HelpFlag|flags.PassDoubleDash|flags.PassAfterNonOption)
	parser.Usage = usageSuffix

	if _, err := parser.ParseArgs(args); err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			return nil, ErrHelp
		}
		return nil, err
	}

	cfg := &Config{
		WaitForChildren:            !raw.NoWait,
		BroadcastSigtermBeforeWait: !raw.NoBroadcast,
		CreateSubprocGroup:         raw.Group,
		ForwardRealtimeSignals:     raw.Realtime,
		ExitOnSigint:               !raw.NoExitSigint,
		CheckPID1:                  !raw.NoPID1Check,
		Verbosity:                  len(raw.Verbose),
	}

	if len(raw.Positional.Command) > 0 {
		cfg.Command = raw.Positional.Command
	}

	return cfg, nil
}

// Usage writes the full usage text (program banner plus flag list) to w,
// matching the original program's combined "usage + options" block.
func Usage(w *os.File, programPath string) {
	fmt.Fprintf(w, "Usage: %s %s\n\n", filepath.Base(programPath), usageSuffix)
	var raw rawOptions
	parser := flags.NewParser(&raw, flags.PassDoubleDash|flags.PassAfterNonOption)
	parser.WriteHelp(w)
}
