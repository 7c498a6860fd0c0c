// Package builtin implements the shell's built-in command dispatcher:
// cd, pwd, exit, jobs, fg, bg, kill, history/h. Built-ins run in the
// shell process itself, never forked.
package builtin

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/drpotato/pysh/internal/shell/command"
	"github.com/drpotato/pysh/internal/shell/history"
	"github.com/drpotato/pysh/internal/shell/job"
	"github.com/drpotato/pysh/internal/validator"
)

// ErrExit signals that the "exit" built-in was invoked; the read-eval
// loop treats it as the cue to stop looping, after the Dispatcher has
// already killed every live job.
var ErrExit = errors.New("exit")

// ExecuteFunc re-runs an arbitrary command.Tree. The "history"/"h"
// replay operation needs it because a recorded entry may be an
// External or Pipeline tree, not just another built-in; the dispatcher
// is given this callback rather than importing the executor/pipeline
// packages itself, to avoid a dependency cycle with the package that
// already owns dispatch (cli).
type ExecuteFunc func(tree command.Tree) error

// Dispatcher runs built-in commands against the shared job table and
// history store.
type Dispatcher struct {
	Table   *job.Table
	History *history.Store
	Out     io.Writer
	Err     io.Writer
	Execute ExecuteFunc
}

// New creates a Dispatcher instance.
func New(table *job.Table, store *history.Store, out, errOut io.Writer, execute ExecuteFunc) *Dispatcher {
	return &Dispatcher{Table: table, History: store, Out: out, Err: errOut, Execute: execute}
}

// Run dispatches tree, which must be a BuiltIn-kind Tree. It returns
// whether the command should be recorded in history: every built-in
// but history/h returns true.
func (d *Dispatcher) Run(tree command.Tree) (recordHistory bool, err error) {
	seg := tree.Segment
	args := []string(seg[1:])

	switch seg.Program() {
	case "exit":
		d.Table.KillAll()
		return true, ErrExit
	case "cd":
		return true, d.cd(args)
	case "pwd":
		return true, d.pwd()
	case "jobs":
		return true, d.jobs()
	case "fg":
		return true, d.resume(args, false)
	case "bg":
		return true, d.resume(args, true)
	case "kill":
		return true, d.kill(args)
	case "history", "h":
		return false, d.history(args)
	default:
		return true, fmt.Errorf("unrecognized built-in: %s", seg.Program())
	}
}

func (d *Dispatcher) cd(args []string) error {
	target := strings.Join(args, " ")
	if target == "" {
		u, err := user.Current()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		target = u.HomeDir
	} else if strings.HasPrefix(target, "~") {
		u, err := user.Current()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		target = filepath.Join(u.HomeDir, strings.TrimPrefix(target, "~"))
	}

	if err := os.Chdir(target); err != nil {
		fmt.Fprintf(d.Err, "no such file or directory: %s\n", target)
		return nil
	}
	return nil
}

func (d *Dispatcher) pwd() error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}
	fmt.Fprintln(d.Out, dir)
	return nil
}

func (d *Dispatcher) jobs() error {
	rendered := d.Table.Render()
	if rendered == "" {
		return nil
	}
	fmt.Fprintln(d.Out, rendered)
	return nil
}

func (d *Dispatcher) resume(args []string, background bool) error {
	v := validator.New()
	v.Assert(len(args) <= 1, "fg/bg takes at most 1 argument")
	if err := v.Err(); err != nil {
		fmt.Fprintln(d.Err, err)
		return nil
	}

	n := 0
	if len(args) == 1 {
		n = v.ParseJobNumber(args[0])
		if err := v.Err(); err != nil {
			fmt.Fprintln(d.Err, err)
			return nil
		}
	}

	j, err := d.Table.Resume(n, background)
	if errors.Is(err, job.ErrNoStoppedJobs) {
		fmt.Fprintln(d.Err, "no stopped processes")
		return nil
	}
	if errors.Is(err, job.ErrNoSuchJob) {
		fmt.Fprintf(d.Err, "no such job: %d\n", n)
		return nil
	}
	if err != nil {
		return err
	}
	if background {
		fmt.Fprintf(d.Out, "[%d]\t%s\n", j.Number, j.Command.Render())
	}
	return nil
}

func (d *Dispatcher) kill(args []string) error {
	v := validator.New()
	v.AssertArgCount(args, 1, "kill takes exactly 1 argument")
	if err := v.Err(); err != nil {
		fmt.Fprintln(d.Err, "kill takes exactly 1 argument")
		return nil
	}

	n := v.ParseJobNumber(args[0])
	if err := v.Err(); err != nil {
		fmt.Fprintln(d.Err, err)
		return nil
	}

	if err := d.Table.Kill(n); err != nil {
		if errors.Is(err, job.ErrNoSuchJob) {
			fmt.Fprintf(d.Err, "no such job: %d\n", n)
			return nil
		}
		return err
	}
	return nil
}

func (d *Dispatcher) history(args []string) error {
	v := validator.New()
	v.Assert(len(args) <= 1, "history takes at most 1 argument")
	if err := v.Err(); err != nil {
		fmt.Fprintln(d.Err, err)
		return nil
	}

	if len(args) == 0 {
		rendered := d.History.Render()
		if rendered != "" {
			fmt.Fprintln(d.Out, rendered)
		}
		return nil
	}

	n := v.ParseJobNumber(args[0])
	if err := v.Err(); err != nil {
		fmt.Fprintln(d.Err, err)
		return nil
	}

	entry, err := d.History.Get(n)
	if errors.Is(err, history.ErrNoRecord) {
		fmt.Fprintf(d.Err, "no record for: %d\n", n)
		return nil
	}
	if err != nil {
		return err
	}

	err = d.Execute(entry.Command)
	d.History.Append(entry.Command)
	if errors.Is(err, ErrExit) {
		return ErrExit
	}
	if err != nil {
		fmt.Fprintln(d.Err, err)
	}
	return nil
}
