// Command sinit is a minimal process-1 supervisor: it runs a single
// command as PID 1's child, forwards signals to it, reaps every process
// in its subtree (including re-parented orphans), and exits only once
// the subtree has quiesced. See spec.md / SPEC_FULL.md for the full
// design this implements.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sinit-project/sinit/internal/config"
	"github.com/sinit-project/sinit/internal/logger"
	"github.com/sinit-project/sinit/internal/supervisor"
)

var version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Parse(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		fmt.Fprintf(os.Stdout, "sinit v%s\n", version)
		config.Usage(os.Stdout, os.Args[0])
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR][%s] %s\n", progName(), err)
		config.Usage(os.Stderr, os.Args[0])
		return 1
	}

	log := logger.NewStderr(logger.FromVerbosity(cfg.Verbosity))

	code, err := supervisor.Run(cfg, log)
	if err != nil {
		log.Errorf("%s", err)
		return 1
	}
	return code
}

func progName() string {
	if len(os.Args) == 0 {
		return "sinit"
	}
	return os.Args[0]
}
