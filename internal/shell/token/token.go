// Package token splits an input line into pipeline segments.
package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/drpotato/pysh/internal/shell/command"

	"github.com/google/shlex"
)

// ErrTokenize indicates a line could not be split into words, generally
// because of an unterminated quote.
var ErrTokenize = errors.New("tokenize")

// newErrTokenize wraps the underlying shlex error with ErrTokenize so
// callers can errors.Is against a stable sentinel.
func newErrTokenize(reason error) error {
	return fmt.Errorf("%w: %s", ErrTokenize, reason)
}

// Result is the outcome of tokenizing one input line.
type Result struct {
	// Segments is the ordered, non-empty sequence of pipeline stages. It
	// is nil for an empty or "&"-only input line.
	Segments []command.Segment
	// Background reports whether a trailing standalone "&" was present
	// on the last segment.
	Background bool
}

// Empty reports whether the tokenized line produced no segments at all —
// either the input was blank, or it consisted only of "&".
func (r Result) Empty() bool {
	return len(r.Segments) == 0
}

// Tokenize splits line into pipeline segments. Quoting follows POSIX
// rules (single and double quotes group characters into one word); `|`
// separates segments and never appears inside one; a trailing standalone
// "&" on the last segment sets Result.Background and is removed. Neither
// `|` nor `&` needs surrounding whitespace to act as a word boundary —
// "10&" tokenizes the same as "10 &", and "a|b" the same as "a | b".
func Tokenize(line string) (Result, error) {
	words, err := shlex.Split(padPunctuation(line))
	if err != nil {
		return Result{}, newErrTokenize(err)
	}
	if len(words) == 0 {
		return Result{}, nil
	}

	segments := group(words)

	background := false
	last := segments[len(segments)-1]
	if len(last) > 0 && last[len(last)-1] == "&" {
		background = true
		last = last[:len(last)-1]
		segments[len(segments)-1] = last
	}

	// Drop a now-empty trailing segment: a line consisting only of "&"
	// groups to a single segment ["&"], which becomes empty once "&" is
	// stripped — equivalent to empty input.
	if len(segments[len(segments)-1]) == 0 {
		segments = segments[:len(segments)-1]
	}

	if len(segments) == 0 {
		return Result{Background: background}, nil
	}

	return Result{Segments: segments, Background: background}, nil
}

// padPunctuation inserts surrounding spaces around every unquoted `|` or
// `&` rune so shlex.Split, which only ever splits on whitespace and
// quotes, also treats them as standalone words even when run directly
// against another word with no space in between. Quote state is tracked
// character-by-character so a `|` or `&` inside a quoted word is left
// untouched.
func padPunctuation(line string) string {
	var b strings.Builder
	var quote rune
	for _, r := range line {
		if quote != 0 {
			b.WriteRune(r)
			if r == quote {
				quote = 0
			}
			continue
		}
		switch r {
		case '\'', '"':
			quote = r
			b.WriteRune(r)
		case '|', '&':
			b.WriteRune(' ')
			b.WriteRune(r)
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// group splits a flat word list into segments on the literal "|" word.
func group(words []string) []command.Segment {
	var segments []command.Segment
	var current command.Segment
	for _, w := range words {
		if w == "|" {
			segments = append(segments, current)
			current = nil
			continue
		}
		current = append(current, w)
	}
	segments = append(segments, current)
	return segments
}
