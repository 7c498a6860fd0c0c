// Package executor spawns a single external command, wiring the file
// descriptors a pipeline stage is given and waiting for (or detaching
// from) the spawned child.
package executor

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/drpotato/pysh/internal/shell/command"
	"github.com/drpotato/pysh/internal/shell/job"
	"github.com/drpotato/pysh/internal/shell/procwait"
	"github.com/drpotato/pysh/internal/log"
)

var logger = log.New(os.Stderr, "executor")

// notFoundExitCode is returned to the caller when the named program
// cannot be located, mirroring the shell convention for "command not
// found".
const notFoundExitCode = 127

// Result is what Run reports back to its caller.
type Result struct {
	// Pid is the spawned child's process id. Zero if the program could
	// not be found at all (no process was ever created).
	Pid int
	// Backgrounded is true when Run returned immediately without
	// waiting for the child.
	Backgrounded bool
	// Outcome is populated when Backgrounded is false: the result of
	// waiting for the child (exited, signaled, or stopped).
	Outcome procwait.Outcome
}

// Run spawns seg as a child with stdin/stdout set to the given file
// descriptors. If forceBackground is set (callers pass the Tree's
// Background flag here), Run returns immediately without waiting; otherwise it waits for
// the child, reporting Stopped if the child was suspended by a
// terminal-stop signal rather than exiting.
//
// pgid controls process-group membership: 0 makes the child the leader
// of its own new group (the single-command case); a nonzero value joins
// the child to that existing group instead (used to put every pipeline
// stage into its leader's group, so a terminal-stop or kill aimed at the
// group in job.Table.StopForeground/Kill reaches every stage, not just
// whichever pid happens to be signaled).
//
// Go cannot safely raw-fork() a multi-threaded runtime, so os/exec's
// fork+exec plumbing is used instead: the child process truly is a
// separate process, dup'd descriptors and all — only the "fork in our
// own address space" detail differs from a raw fork()+execvp().
func Run(table *job.Table, seg command.Segment, stdin, stdout *os.File, forceBackground bool, pgid int) (Result, error) {
	program := seg.Program()
	cmd := exec.Command(program, seg...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: pgid}

	if err := cmd.Start(); err != nil {
		if isNotFound(err) {
			fmt.Fprintf(os.Stderr, "command not found: %s\n", program)
			return Result{
				Outcome: procwait.Outcome{Exited: true, ExitCode: notFoundExitCode},
			}, nil
		}
		return Result{}, fmt.Errorf("start %q: %w", program, err)
	}

	pid := cmd.Process.Pid
	logger.Debugf("spawned %q; pid: %d", program, pid)

	if forceBackground {
		return Result{Pid: pid, Backgrounded: true}, nil
	}

	// Record current_pid only around the foreground wait: a backgrounded
	// child never blocks the shell, so it is never "the process being
	// waited on."
	table.SetCurrentPid(pid)
	defer table.ClearCurrentPid()

	outcome, err := procwait.Wait(pid, true)
	if err != nil {
		return Result{Pid: pid}, err
	}
	return Result{Pid: pid, Outcome: outcome}, nil
}

func isNotFound(err error) bool {
	execErr, ok := err.(*exec.Error)
	return ok && execErr.Err == exec.ErrNotFound
}
