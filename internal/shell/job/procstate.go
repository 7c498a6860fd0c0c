package job

import (
	"fmt"
	"os"
	"strings"
)

// processState reads /proc/<pid>/stat and maps the kernel's state letter
// to one of "sleeping", "running", "zombie", "stopped", "done". The comm
// field (the process name) can itself contain spaces and parentheses, so
// the state letter is located by the last ')' in the line rather than by
// splitting on whitespace from the start.
func processState(pid int) (string, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return "", fmt.Errorf("read /proc/%d/stat: %w", pid, err)
	}

	text := string(data)
	paren := strings.LastIndexByte(text, ')')
	if paren < 0 {
		return "", fmt.Errorf("unexpected /proc/%d/stat format", pid)
	}

	fields := strings.Fields(text[paren+1:])
	if len(fields) == 0 {
		return "", fmt.Errorf("unexpected /proc/%d/stat format", pid)
	}

	return mapProcState(fields[0]), nil
}

// mapProcState translates a Linux /proc/<pid>/stat state letter into
// gopysh's five-value job-status vocabulary.
func mapProcState(code string) string {
	switch code {
	case "R":
		return "running"
	case "S", "D", "I":
		return "sleeping"
	case "T", "t":
		return "stopped"
	case "Z":
		return "zombie"
	default:
		return "done"
	}
}
