package procwait

import (
	"os/exec"
	"syscall"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestWaitExited(t *testing.T) {
	cmd := exec.Command("sh", "-c", "exit 3")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	outcome, err := Wait(cmd.Process.Pid, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Exited || outcome.Signaled || outcome.Stopped {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.ExitCode != 3 {
		t.Fatalf("unexpected exit code; actual: %d, expected: 3", outcome.ExitCode)
	}
}

func TestWaitSignaled(t *testing.T) {
	cmd := exec.Command("sleep", "5")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := unix.Kill(cmd.Process.Pid, unix.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	outcome, err := Wait(cmd.Process.Pid, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Exited || !outcome.Signaled {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestWaitStopped(t *testing.T) {
	cmd := exec.Command("sleep", "5")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}()

	if err := unix.Kill(cmd.Process.Pid, unix.SIGSTOP); err != nil {
		t.Fatalf("stop: %v", err)
	}

	outcome, err := Wait(cmd.Process.Pid, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Stopped {
		t.Fatalf("expected Stopped outcome; actual: %+v", outcome)
	}

	if err := unix.Kill(cmd.Process.Pid, unix.SIGCONT); err != nil {
		t.Fatalf("continue: %v", err)
	}
}

func TestWaitNoHang(t *testing.T) {
	cmd := exec.Command("sleep", "5")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}()

	if _, ok, err := WaitNoHang(cmd.Process.Pid); err != nil || ok {
		t.Fatalf("expected ok=false for a still-running child; ok: %v, err: %v", ok, err)
	}

	if err := unix.Kill(cmd.Process.Pid, unix.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	outcome, ok, err := WaitNoHang(cmd.Process.Pid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true once the child has exited")
	}
	if !outcome.Signaled {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}
