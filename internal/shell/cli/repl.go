package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/drpotato/pysh/internal/shell/builtin"
	"github.com/drpotato/pysh/internal/shell/command"
	"github.com/drpotato/pysh/internal/shell/executor"
	"github.com/drpotato/pysh/internal/shell/history"
	"github.com/drpotato/pysh/internal/shell/job"
	"github.com/drpotato/pysh/internal/shell/procwait"
	"github.com/drpotato/pysh/internal/shell/reexec"
	"github.com/drpotato/pysh/internal/shell/signal"
	"github.com/drpotato/pysh/internal/shell/token"

	"github.com/chzyer/readline"
)

// runREPL drives the read-eval loop: read a line, tokenize it into one
// or more pipeline stages, classify and dispatch the result to a
// built-in, the single-command executor, or the pipeline executor,
// record it in history, and loop until "exit" or end-of-input.
func runREPL(prompt string, historyLimit int) error {
	table := job.New()
	store := history.New(historyLimit)

	sigCtrl := signal.New(table)
	defer sigCtrl.Stop()

	go drainNotices(table)
	go drainEvents(sigCtrl)

	var execute func(command.Tree) error
	dispatcher := builtin.New(table, store, os.Stdout, os.Stderr, func(tree command.Tree) error {
		return execute(tree)
	})
	execute = func(tree command.Tree) error {
		_, err := dispatch(table, dispatcher, tree)
		return err
	}

	promptFn := func() string {
		if prompt != "" {
			return prompt
		}
		return defaultPrompt()
	}

	loop := loop{table: table, dispatcher: dispatcher, store: store}

	if isTerminal(int(os.Stdin.Fd())) {
		return loop.runInteractive(promptFn)
	}
	return loop.runScripted()
}

// defaultPrompt renders "<user> : <basename of cwd> > " when no -prompt
// flag was given.
func defaultPrompt() string {
	user := os.Getenv("USER")
	if user == "" {
		user = "shell"
	}
	dir, err := os.Getwd()
	if err != nil {
		dir = "?"
	}
	return fmt.Sprintf("%s : %s > ", user, filepath.Base(dir))
}

// drainNotices prints job-started/job-finished lines as they arrive. The
// line editor owns cursor state for the line currently being typed; this
// is a deliberately simple prompt-redraw rendering that does not attempt
// to choreograph cursor position with readline's internal buffer (see
// DESIGN.md).
func drainNotices(table *job.Table) {
	for n := range table.Notices() {
		fmt.Println(n.Line)
	}
}

// drainEvents keeps the signal controller's redraw-event channel from
// filling; the line editor already redraws its own prompt after an
// interrupted read; see signal.Controller for SIGINT/SIGTSTP routing.
func drainEvents(ctrl *signal.Controller) {
	for range ctrl.Events() {
	}
}

// loop bundles the handles a read-eval iteration needs.
type loop struct {
	table      *job.Table
	dispatcher *builtin.Dispatcher
	store      *history.Store
}

func (l loop) runInteractive(promptFn func() string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptFn(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("new line editor: %w", err)
	}
	defer rl.Close()

	for {
		rl.SetPrompt(promptFn())
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err == io.EOF {
			l.table.KillAll()
			return nil
		}
		if err != nil {
			return fmt.Errorf("read line: %w", err)
		}

		if l.runLine(line) {
			return nil
		}
	}
}

// runScripted drives the loop from a non-terminal stdin, echoing each
// line before processing it.
func (l loop) runScripted() error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Println(line)
		if l.runLine(line) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	l.table.KillAll()
	return nil
}

// runLine tokenizes and dispatches one input line, recording it in
// history, and reports whether the loop should stop.
func (l loop) runLine(line string) (exit bool) {
	result, err := token.Tokenize(line)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	if result.Empty() {
		return false
	}

	tree := treeFromSegments(result.Segments, result.Background)

	recordHistory, err := dispatch(l.table, l.dispatcher, tree)
	if recordHistory {
		l.store.Append(tree)
	}
	if errors.Is(err, builtin.ErrExit) {
		return true
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return false
}

func treeFromSegments(segments []command.Segment, background bool) command.Tree {
	if len(segments) == 1 {
		return command.Classify(segments[0], background)
	}
	stages := make([]command.Tree, len(segments))
	for i, seg := range segments {
		stages[i] = command.Classify(seg, false)
	}
	return command.NewPipeline(stages, background)
}

// dispatch runs tree against the built-in dispatcher, the single-command
// executor, or the pipeline executor, depending on its Kind, and reports
// whether it should be recorded in history.
func dispatch(table *job.Table, dispatcher *builtin.Dispatcher, tree command.Tree) (recordHistory bool, err error) {
	switch tree.Kind {
	case command.BuiltIn:
		return dispatcher.Run(tree)
	case command.External:
		result, err := executor.Run(table, tree.Segment, os.Stdin, os.Stdout, tree.Background, 0)
		return true, finish(table, tree, result.Pid, result.Backgrounded, result.Outcome, err)
	case command.Pipeline:
		result, err := reexec.Launch(table, tree, os.Stdin, os.Stdout, tree.Background)
		return true, finish(table, tree, result.Pid, result.Backgrounded, result.Outcome, err)
	default:
		return true, fmt.Errorf("unrecognized command kind: %d", tree.Kind)
	}
}

// finish registers tree's outcome in the job table: a backgrounded
// launch becomes a running job with a reaper, a foreground launch that
// stopped becomes a stopped job, and anything else (a clean foreground
// exit, or a launch error) needs no further bookkeeping.
func finish(table *job.Table, tree command.Tree, pid int, backgrounded bool, outcome procwait.Outcome, err error) error {
	if err != nil {
		return err
	}
	if backgrounded {
		table.RegisterBackground(tree, pid)
		return nil
	}
	if outcome.Stopped {
		table.RegisterStopped(tree, pid)
		return nil
	}
	// A clean exit, a signaled exit, or a non-zero exit code all need no
	// further bookkeeping here; a non-zero code is not a shell-level
	// error, and the command's own stderr already reported whatever went
	// wrong.
	return nil
}
