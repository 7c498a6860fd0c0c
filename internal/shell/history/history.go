// Package history implements the process-wide, append-only history
// store and its replay operation.
package history

import (
	"errors"
	"fmt"
	"sync"

	"github.com/drpotato/pysh/internal/shell/command"
)

// ErrNoRecord indicates a replay or lookup was attempted for an index
// with no corresponding entry.
var ErrNoRecord = errors.New("no record")

// Entry is one recorded command, 1-indexed to match the user-facing
// rendering ("[i]\t<command>").
type Entry struct {
	Index   int
	Command command.Tree
}

// Store is the process-wide, append-only history of executed commands.
// Index 0 in entries corresponds to history index 1.
type Store struct {
	mutex   sync.Mutex
	entries []Entry
	// limit bounds entries, 0 meaning unbounded. The oldest entry is
	// dropped once limit is exceeded, and the retained entries are
	// renumbered from 1.
	limit int
}

// New creates a Store instance. limit bounds the number of retained
// entries; 0 means unbounded.
func New(limit int) *Store {
	return &Store{limit: limit}
}

// Append records tree as the next history entry and returns its index.
func (s *Store) Append(tree command.Tree) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = append(s.entries, Entry{Command: tree})
	s.reindexLocked()

	if s.limit > 0 && len(s.entries) > s.limit {
		s.entries = s.entries[len(s.entries)-s.limit:]
		s.reindexLocked()
	}

	return s.entries[len(s.entries)-1].Index
}

// reindexLocked assigns 1-based indices to every retained entry. Must be
// called with mutex held.
func (s *Store) reindexLocked() {
	for i := range s.entries {
		s.entries[i].Index = i + 1
	}
}

// Get retrieves the entry at the given 1-based index, or ErrNoRecord if
// n is out of range.
func (s *Store) Get(n int) (Entry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if n < 1 || n > len(s.entries) {
		return Entry{}, fmt.Errorf("%w for: %d", ErrNoRecord, n)
	}
	return s.entries[n-1], nil
}

// List returns a snapshot of every retained entry, oldest first.
func (s *Store) List() []Entry {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Render renders the full history as "[i]\t<command>" lines joined by
// newlines, with no trailing newline.
func (s *Store) Render() string {
	entries := s.List()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("[%d]\t%s", e.Index, e.Command.Render())
	}
	return joinLines(lines)
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
