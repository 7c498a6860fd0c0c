package builtin

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/drpotato/pysh/internal/shell/command"
	"github.com/drpotato/pysh/internal/shell/history"
	"github.com/drpotato/pysh/internal/shell/job"
)

func newDispatcher() (*Dispatcher, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	table := job.New()
	store := history.New(0)
	d := New(table, store, &out, &errOut, func(command.Tree) error { return nil })
	return d, &out, &errOut
}

func TestPwd(t *testing.T) {
	d, out, _ := newDispatcher()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	if _, err := d.Run(command.NewBuiltIn(command.Segment{"pwd"}, false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out.String()) != wd {
		t.Fatalf("unexpected pwd output; actual: %q, expected: %q", out.String(), wd)
	}
}

func TestExitSignalsLoop(t *testing.T) {
	d, _, _ := newDispatcher()

	_, err := d.Run(command.NewBuiltIn(command.Segment{"exit"}, false))
	if !errors.Is(err, ErrExit) {
		t.Fatalf("unexpected error; actual: %v, expected: %v", err, ErrExit)
	}
}

func TestFgWithNoStoppedJobs(t *testing.T) {
	d, _, errOut := newDispatcher()

	if _, err := d.Run(command.NewBuiltIn(command.Segment{"fg"}, false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(errOut.String()) != "no stopped processes" {
		t.Fatalf("unexpected message; actual: %q", errOut.String())
	}
}

func TestKillNoSuchJob(t *testing.T) {
	d, _, errOut := newDispatcher()

	if _, err := d.Run(command.NewBuiltIn(command.Segment{"kill", "7"}, false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(errOut.String()) != "no such job: 7" {
		t.Fatalf("unexpected message; actual: %q", errOut.String())
	}
}

func TestKillWrongArgCount(t *testing.T) {
	d, _, errOut := newDispatcher()

	if _, err := d.Run(command.NewBuiltIn(command.Segment{"kill"}, false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(errOut.String()) != "kill takes exactly 1 argument" {
		t.Fatalf("unexpected message; actual: %q", errOut.String())
	}
}

func TestHistoryNoRecord(t *testing.T) {
	d, _, errOut := newDispatcher()

	recordHistory, err := d.Run(command.NewBuiltIn(command.Segment{"history", "3"}, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recordHistory {
		t.Fatal("history/h replay should never itself be recorded via the dispatcher's return value")
	}
	if strings.TrimSpace(errOut.String()) != "no record for: 3" {
		t.Fatalf("unexpected message; actual: %q", errOut.String())
	}
}

func TestHistoryEmptyRendersNothing(t *testing.T) {
	d, out, _ := newDispatcher()

	if _, err := d.Run(command.NewBuiltIn(command.Segment{"history"}, false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output for empty history; actual: %q", out.String())
	}
}

func TestRecordHistoryFlags(t *testing.T) {
	d, _, _ := newDispatcher()

	tests := map[string]struct {
		tree command.Tree
		exp  bool
	}{
		"pwd records":      {tree: command.NewBuiltIn(command.Segment{"pwd"}, false), exp: true},
		"jobs records":     {tree: command.NewBuiltIn(command.Segment{"jobs"}, false), exp: true},
		"history skips":    {tree: command.NewBuiltIn(command.Segment{"history"}, false), exp: false},
		"h alias skips":    {tree: command.NewBuiltIn(command.Segment{"h"}, false), exp: false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			recordHistory, err := d.Run(test.tree)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if recordHistory != test.exp {
				t.Fatalf("unexpected recordHistory; actual: %v, expected: %v", recordHistory, test.exp)
			}
		})
	}
}
