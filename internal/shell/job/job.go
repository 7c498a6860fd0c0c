// Package job implements the process-wide job table: the registry of
// background and stopped jobs, their numeric job ids, the stopped stack
// fg/bg resume from, and the reaper goroutines that learn of
// background-job completion asynchronously.
package job

import (
	"fmt"
	"os"

	"github.com/drpotato/pysh/internal/shell/command"
	"github.com/drpotato/pysh/internal/log"
)

var logger = log.New(os.Stderr, "job")

// State is a Job's current lifecycle state.
type State int

const (
	// Running indicates the job's process is executing (in the
	// background; a foreground job that is merely being waited on has no
	// Job record at all until it stops).
	Running State = iota
	// Stopped indicates the job was suspended by a terminal-stop signal.
	Stopped
	// Done indicates the job's process has exited. The table never
	// assigns it: a reaper removes a job from the table as soon as it
	// observes the exit.
	Done
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Job is one background or stopped process tracked by the table.
type Job struct {
	Number  int
	Pid     int
	Command command.Tree
	State   State
}

// Render renders a job-table listing line: "[n]\t<state> <command>".
// The rendered state is read live from /proc/<pid>/stat rather than
// j.State: the table's own State only distinguishes Running/Stopped/
// Done, which cannot tell a sleeping job from a running one or notice a
// zombie, all of which the operating system actually knows. j.State is
// used as a fallback when the live lookup fails (e.g. the pid has
// already exited and this Job has not yet been reaped out of the
// table).
func (j Job) Render() string {
	state, err := processState(j.Pid)
	if err != nil {
		state = j.State.String()
	}
	return fmt.Sprintf("[%d]\t%s %s", j.Number, state, j.Command.Render())
}
