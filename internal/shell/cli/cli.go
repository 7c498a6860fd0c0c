// Package cli is the shell's entrypoint: flag parsing, the hidden
// pipeline-leader re-exec dispatch, and the read-eval loop.
package cli

import (
	"flag"
	"os"

	"github.com/drpotato/pysh/internal/shell"
	"github.com/drpotato/pysh/internal/shell/reexec"
	"github.com/drpotato/pysh/internal/log"
)

var logger = log.New(os.Stderr, "cli")

var (
	promptFlag       = flag.String("prompt", "", "shell prompt; defaults to a \"<user> : <cwd basename> > \" prompt")
	historyLimitFlag = flag.Int("history-limit", 0, "bound retained history entries (0 = unbounded)")
)

const (
	ecSuccess = 0
	ecREPL    = 1
)

// Run is the entrypoint of the gopysh executable. It doubles as the
// entrypoint for the hidden pipeline-leader re-exec: when the last
// argument is the PipelineLeader sentinel, Run hands off to
// reexec.RunLeader instead of starting the interactive loop.
func Run() int {
	if len(os.Args) >= 2 && os.Args[len(os.Args)-1] == shell.PipelineLeader {
		return reexec.RunLeader()
	}

	flag.Parse()

	if err := runREPL(*promptFlag, *historyLimitFlag); err != nil {
		logger.Errorf("repl: %s", err)
		return ecREPL
	}
	return ecSuccess
}
