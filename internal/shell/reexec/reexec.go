// Package reexec implements the pipeline executor by re-executing the
// shell's own binary as a "pipeline leader" process: a cmd pipe carries
// the work description (the pipeline's stages) to the re-exec'd child,
// which then fans out the per-stage grandchildren itself.
package reexec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/drpotato/pysh/internal/shell"
	"github.com/drpotato/pysh/internal/shell/builtin"
	"github.com/drpotato/pysh/internal/shell/command"
	"github.com/drpotato/pysh/internal/shell/executor"
	"github.com/drpotato/pysh/internal/shell/history"
	"github.com/drpotato/pysh/internal/shell/job"
	"github.com/drpotato/pysh/internal/shell/procwait"
	"github.com/drpotato/pysh/internal/log"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var logger = log.New(os.Stderr, "reexec")

// Stage is one pipeline stage as shipped to the leader process: the full
// argument vector (argv[0] is the program name), same shape as
// command.Segment, plus the Kind the shell already classified it as so
// the leader can dispatch a built-in stage instead of exec'ing it.
type Stage struct {
	Argv []string
	Kind command.Kind
}

// Pipeline is the data shipped from the shell to its re-exec'd leader
// over the cmd pipe.
type Pipeline struct {
	// ID correlates a leader's log lines with the shell that launched
	// it; it has no user-facing meaning (the user-facing identifier is
	// the job table's small integer job number, assigned by the caller,
	// not by the leader).
	ID     uuid.UUID
	Stages []Stage
}

func stagesFromTree(tree command.Tree) []Stage {
	stages := make([]Stage, len(tree.Stages))
	for i, s := range tree.Stages {
		stages[i] = Stage{Argv: []string(s.Segment), Kind: s.Kind}
	}
	return stages
}

// Result mirrors executor.Result: what the pipeline executor reports to
// its caller.
type Result struct {
	// Pid is the pipeline leader's process id.
	Pid int
	// Backgrounded is true when Launch returned without waiting.
	Backgrounded bool
	// Outcome is populated when Backgrounded is false.
	Outcome procwait.Outcome
}

// Launch forks a pipeline leader child for tree, then either returns
// immediately (background) or waits for it, reporting Stopped if the
// leader was suspended.
func Launch(table *job.Table, tree command.Tree, stdin, stdout *os.File, background bool) (Result, error) {
	self, err := os.Executable()
	if err != nil {
		return Result{}, errors.Wrap(err, "find own executable for pipeline leader")
	}

	cmdOut, cmdIn, err := os.Pipe()
	if err != nil {
		return Result{}, errors.Wrap(err, "new pipeline cmd pipe")
	}

	leader := exec.Command(self, shell.PipelineLeader)
	leader.Stdin = stdin
	leader.Stdout = stdout
	leader.Stderr = os.Stderr
	leader.ExtraFiles = []*os.File{cmdOut}
	leader.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := leader.Start(); err != nil {
		cmdOut.Close()
		cmdIn.Close()
		return Result{}, errors.Wrap(err, "start pipeline leader")
	}
	cmdOut.Close()

	pipeline := Pipeline{ID: uuid.New(), Stages: stagesFromTree(tree)}
	go func() {
		defer cmdIn.Close()
		b, err := json.Marshal(pipeline)
		if err != nil {
			logger.Errorf("marshal pipeline; error: %s", err)
			return
		}
		if _, err := cmdIn.Write(b); err != nil {
			logger.Errorf("write pipeline; error: %s", err)
		}
	}()

	pid := leader.Process.Pid
	logger.Debugf("pipeline leader %s spawned; pid: %d", pipeline.ID, pid)

	if background {
		return Result{Pid: pid, Backgrounded: true}, nil
	}

	table.SetCurrentPid(pid)
	defer table.ClearCurrentPid()

	outcome, err := procwait.Wait(pid, true)
	if err != nil {
		return Result{Pid: pid}, err
	}
	return Result{Pid: pid, Outcome: outcome}, nil
}

// runStage runs one pipeline stage. An External stage is exec'd via
// executor.Run, same as the single-command path. A BuiltIn stage (e.g.
// "cd" or "jobs" mid-pipeline) is not a real program on $PATH, so it is
// dispatched directly in this (already-forked, already a distinct
// process from the shell) leader process instead — this still satisfies
// "built-in effects don't persist in the shell", since the leader's own
// cwd/state is discarded the moment it exits, and gives the caller a
// synthetic Result with no pid to wait for or sweep.
func runStage(table *job.Table, stage Stage, stdin, stdout *os.File, forceBackground bool, pgid int) (executor.Result, error) {
	if stage.Kind != command.BuiltIn {
		return executor.Run(table, command.Segment(stage.Argv), stdin, stdout, forceBackground, pgid)
	}

	dispatcher := builtin.New(table, history.New(0), stdout, os.Stderr, func(command.Tree) error {
		return fmt.Errorf("history replay is not available inside a pipeline stage")
	})
	_, err := dispatcher.Run(command.NewBuiltIn(command.Segment(stage.Argv), false))
	if err != nil && !errors.Is(err, builtin.ErrExit) {
		fmt.Fprintln(os.Stderr, err)
		return executor.Result{Outcome: procwait.Outcome{Exited: true, ExitCode: 1}}, nil
	}
	return executor.Result{Outcome: procwait.Outcome{Exited: true, ExitCode: 0}}, nil
}

// RunLeader is the entrypoint for the re-exec'd pipeline-leader
// process. It reads the Pipeline off fd 3, wires a pipe between each
// consecutive pair of stages, spawns every stage but the last with
// force_background=true so it does not block on them, spawns the last
// stage in the foreground, and exits with that stage's exit status.
func RunLeader() int {
	cmdfd := os.NewFile(uintptr(3), "/proc/self/fd/3")
	if cmdfd == nil {
		logger.Errorf("pipeline cmd pipe not found")
		return 1
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(cmdfd); err != nil {
		logger.Errorf("read pipeline; error: %s", err)
		return 1
	}
	var pipeline Pipeline
	if err := json.Unmarshal(buf.Bytes(), &pipeline); err != nil {
		logger.Errorf("unmarshal pipeline; error: %s", err)
		return 1
	}
	if len(pipeline.Stages) < 2 {
		logger.Errorf("pipeline %s has fewer than 2 stages", pipeline.ID)
		return 1
	}

	// A throwaway table: only used to satisfy executor.Run's current_pid
	// bookkeeping within this process. It is never observed by the shell
	// that launched this leader — the shell tracks only the leader's own
	// pid as current_pid.
	table := job.New()

	// This process is already the leader of its own process group (see
	// Launch's Setpgid:true, Pgid:0), so its own pid is that group's id.
	// Every stage joins it instead of starting its own group, so a
	// terminal-stop or kill aimed at -leaderPid (job.Table.StopForeground/
	// Kill) reaches every stage, not just this leader.
	pgid := os.Getpid()

	lastRead := os.Stdin
	var spawnedPids []int

	for i, stage := range pipeline.Stages[:len(pipeline.Stages)-1] {
		r, w, err := os.Pipe()
		if err != nil {
			logger.Errorf("pipe for stage %d; error: %s", i, err)
			return 1
		}

		result, err := runStage(table, stage, lastRead, w, true, pgid)
		w.Close()
		if lastRead != os.Stdin {
			lastRead.Close()
		}
		if err != nil {
			logger.Errorf("spawn stage %d (%s); error: %s", i, stage.Argv, err)
			return 1
		}

		lastRead = r
		if result.Pid != 0 {
			spawnedPids = append(spawnedPids, result.Pid)
		}
	}

	last := pipeline.Stages[len(pipeline.Stages)-1]
	result, err := runStage(table, last, lastRead, os.Stdout, false, pgid)
	if lastRead != os.Stdin {
		lastRead.Close()
	}
	if err != nil {
		logger.Errorf("spawn last stage (%s); error: %s", last.Argv, err)
		return 1
	}

	// Sweep up earlier stages so they are not left as zombies under this
	// (init-less) leader process once it exits (see DESIGN.md).
	for _, pid := range spawnedPids {
		if _, _, err := procwait.WaitNoHang(pid); err != nil {
			logger.Warnf("sweep stage pid %d; error: %s", pid, err)
		}
	}

	if result.Outcome.Signaled {
		return 1
	}
	return result.Outcome.ExitCode
}
