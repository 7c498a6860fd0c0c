package token

import (
	"errors"
	"reflect"
	"testing"

	"github.com/drpotato/pysh/internal/shell/command"
)

func TestTokenize(t *testing.T) {
	type expected struct {
		result Result
		err    error
	}
	tests := map[string]struct {
		line string
		exp  expected
	}{
		"empty line": {
			line: "",
			exp:  expected{result: Result{}},
		},
		"single word": {
			line: "pwd",
			exp: expected{
				result: Result{Segments: []command.Segment{{"pwd"}}},
			},
		},
		"args": {
			line: "ls -la /tmp",
			exp: expected{
				result: Result{Segments: []command.Segment{{"ls", "-la", "/tmp"}}},
			},
		},
		"quoted word with space": {
			line: `echo "hello world"`,
			exp: expected{
				result: Result{Segments: []command.Segment{{"echo", "hello world"}}},
			},
		},
		"pipeline": {
			line: "cat file.txt | grep foo | wc -l",
			exp: expected{
				result: Result{Segments: []command.Segment{
					{"cat", "file.txt"},
					{"grep", "foo"},
					{"wc", "-l"},
				}},
			},
		},
		"trailing background": {
			line: "sleep 10 &",
			exp: expected{
				result: Result{Segments: []command.Segment{{"sleep", "10"}}, Background: true},
			},
		},
		"background with no space": {
			line: "sleep 10&",
			exp: expected{
				result: Result{Segments: []command.Segment{{"sleep", "10"}}, Background: true},
			},
		},
		"pipe with no space": {
			line: "echo a|b",
			exp: expected{
				result: Result{Segments: []command.Segment{{"echo", "a"}, {"b"}}},
			},
		},
		"ampersand only": {
			line: "&",
			exp:  expected{result: Result{Background: true}},
		},
		"pipeline with trailing background": {
			line: "yes | head &",
			exp: expected{
				result: Result{
					Segments:   []command.Segment{{"yes"}, {"head"}},
					Background: true,
				},
			},
		},
		"unterminated quote": {
			line: `echo "unterminated`,
			exp:  expected{err: ErrTokenize},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			result, err := Tokenize(test.line)
			if test.exp.err != nil {
				if !errors.Is(err, test.exp.err) {
					t.Fatalf("unexpected error; actual: %v, expected: %v", err, test.exp.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(result, test.exp.result) {
				t.Fatalf("unexpected result; actual: %#v, expected: %#v", result, test.exp.result)
			}
		})
	}
}
