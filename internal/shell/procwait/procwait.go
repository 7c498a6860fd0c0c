// Package procwait provides a single waitpid-with-WUNTRACED primitive
// shared by the process executor, the pipeline leader, and the job
// table's reapers.
//
// Detecting "stopped" by catching an interrupted wait(2) is fragile;
// waitpid with WUNTRACED observes a stop directly in the status word
// rather than inferring it from an EINTR.
package procwait

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Outcome describes why Wait returned.
type Outcome struct {
	// Exited is true when the child ran to completion (including via an
	// uncaught termination signal, in which case ExitCode is noExit-like
	// -1; callers distinguish with Signaled).
	Exited bool
	// ExitCode is the child's exit status, valid when Exited is true and
	// Signaled is false.
	ExitCode int
	// Signaled is true when the child was terminated by a signal rather
	// than exiting normally.
	Signaled bool
	// Stopped is true when the child was suspended (SIGSTOP/SIGTSTP)
	// rather than exited.
	Stopped bool
}

// Wait blocks until pid changes state (exits or, with untraced, stops),
// reporting the outcome. It is a thin wrapper around unix.Wait4 so every
// caller in the shell observes stop/exit the same way.
func Wait(pid int, untraced bool) (Outcome, error) {
	var status unix.WaitStatus
	var options int
	if untraced {
		options = unix.WUNTRACED
	}

	for {
		_, err := unix.Wait4(pid, &status, options, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return Outcome{}, fmt.Errorf("wait4 pid %d: %w", pid, err)
		}
		break
	}

	switch {
	case status.Stopped():
		return Outcome{Stopped: true}, nil
	case status.Signaled():
		return Outcome{Exited: true, Signaled: true, ExitCode: -1}, nil
	default:
		return Outcome{Exited: true, ExitCode: status.ExitStatus()}, nil
	}
}

// WaitNoHang performs a non-blocking reap of pid, for sweeping up
// orphaned pipeline stages the leader did not explicitly wait for. It
// reports ok=false if pid has not yet changed state.
func WaitNoHang(pid int) (outcome Outcome, ok bool, err error) {
	var status unix.WaitStatus
	got, err := unix.Wait4(pid, &status, unix.WNOHANG, nil)
	if err != nil {
		return Outcome{}, false, fmt.Errorf("wait4 nohang pid %d: %w", pid, err)
	}
	if got == 0 {
		return Outcome{}, false, nil
	}
	if status.Signaled() {
		return Outcome{Exited: true, Signaled: true, ExitCode: -1}, true, nil
	}
	return Outcome{Exited: true, ExitCode: status.ExitStatus()}, true, nil
}
