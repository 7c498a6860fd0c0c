package job

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/drpotato/pysh/internal/shell/command"
	"github.com/drpotato/pysh/internal/shell/procwait"

	"golang.org/x/sys/unix"
)

// ErrNoSuchJob indicates a job number has no corresponding live Job.
var ErrNoSuchJob = errors.New("no such job")

// ErrNoStoppedJobs indicates fg/bg was invoked with an empty stopped
// stack.
var ErrNoStoppedJobs = errors.New("no stopped processes")

// Notice is an asynchronous event the table emits for the read-eval
// loop's prompt-redraw path to surface: a job-started line at
// registration time, or a job-finished line once a reaper observes
// completion.
type Notice struct {
	Line string
}

// Table is the process-wide registry of background and stopped jobs. Its
// zero value is not usable; construct with New. current_pid is an
// atomic.Int64 read directly by the signal controller, which must never
// take Table's mutex.
type Table struct {
	mutex   sync.Mutex
	jobs    []*Job
	stopped []*Job // LIFO: last element is top of stack

	currentPid atomic.Int64

	notices chan Notice
}

// New creates a Table instance. cli.Run constructs one Table and
// threads it through the executor, builtin dispatcher, and signal
// controller as an explicit handle, rather than reaching for a
// package-level global.
func New() *Table {
	return &Table{notices: make(chan Notice, 16)}
}

// Notices returns the channel job-started and job-finished lines are
// published on. The read-eval loop drains this alongside line input so
// it can redraw the prompt around an asynchronous notice.
func (t *Table) Notices() <-chan Notice {
	return t.notices
}

func (t *Table) publish(line string) {
	select {
	case t.notices <- Notice{Line: line}:
	default:
		// Never block a reaper or the foreground path on a slow/absent
		// consumer; a dropped notice is lost, but it never corrupts
		// state.
		logger.Warnf("notice channel full, dropping: %s", line)
	}
}

// SetCurrentPid records pid as the process currently being waited on in
// the foreground. Called by the process/pipeline executors around a
// foreground wait.
func (t *Table) SetCurrentPid(pid int) {
	t.currentPid.Store(int64(pid))
}

// ClearCurrentPid resets current_pid to 0, meaning the shell itself is in
// the foreground.
func (t *Table) ClearCurrentPid() {
	t.currentPid.Store(0)
}

// CurrentPid returns the pid currently in the foreground, or 0 if the
// shell itself is in the foreground. Safe to call from a signal handler:
// it performs no locking.
func (t *Table) CurrentPid() int {
	return int(t.currentPid.Load())
}

// nextNumberLocked assigns the next job number: max(existing)+1, starting
// at 1. Must be called with mutex held.
func (t *Table) nextNumberLocked() int {
	max := 0
	for _, j := range t.jobs {
		if j.Number > max {
			max = j.Number
		}
	}
	return max + 1
}

// RegisterBackground registers a newly backgrounded command, prints its
// job-started line, and spawns a reaper for it.
func (t *Table) RegisterBackground(tree command.Tree, pid int) *Job {
	t.mutex.Lock()
	j := &Job{Number: t.nextNumberLocked(), Pid: pid, Command: tree, State: Running}
	t.jobs = append(t.jobs, j)
	t.mutex.Unlock()

	t.publish(fmt.Sprintf("[%d]\t%s", j.Number, tree.Render()))
	go t.reap(j)
	return j
}

// RegisterStopped registers a command stopped by a terminal-stop signal
// while running in the foreground, pushing it onto the stopped stack.
func (t *Table) RegisterStopped(tree command.Tree, pid int) *Job {
	t.mutex.Lock()
	j := &Job{Number: t.nextNumberLocked(), Pid: pid, Command: tree, State: Stopped}
	t.jobs = append(t.jobs, j)
	t.stopped = append(t.stopped, j)
	t.mutex.Unlock()

	t.publish(fmt.Sprintf("[%d]\t%s", j.Number, tree.Render()))
	return j
}

// removeLocked deletes j from jobs (and stopped, if present). Must be
// called with mutex held.
func (t *Table) removeLocked(j *Job) {
	for i, candidate := range t.jobs {
		if candidate == j {
			t.jobs = append(t.jobs[:i], t.jobs[i+1:]...)
			break
		}
	}
	t.removeStoppedLocked(j)
}

func (t *Table) removeStoppedLocked(j *Job) {
	for i, candidate := range t.stopped {
		if candidate == j {
			t.stopped = append(t.stopped[:i], t.stopped[i+1:]...)
			return
		}
	}
}

// reap blocks until j's process exits, then publishes a job-finished
// notice and removes j from the table. One reaper goroutine runs per
// background, resumed-background, or killed stopped job; a job sitting
// on the stopped stack has no reaper.
func (t *Table) reap(j *Job) {
	outcome, err := procwait.Wait(j.Pid, false)
	if err != nil {
		logger.Errorf("reap job %d (pid %d): %s", j.Number, j.Pid, err)
		t.mutex.Lock()
		t.removeLocked(j)
		t.mutex.Unlock()
		return
	}

	state := "done"
	if outcome.Signaled {
		state = "killed"
	}

	t.mutex.Lock()
	t.removeLocked(j)
	t.mutex.Unlock()

	t.publish(fmt.Sprintf("[%d]\t%d %s\t%s", j.Number, j.Pid, state, j.Command.Render()))
}

// GetByNumber looks up the live job with the given number.
func (t *Table) GetByNumber(n int) (*Job, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for _, j := range t.jobs {
		if j.Number == n {
			return j, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrNoSuchJob, n)
}

// popStopped pops the target from the stopped stack: by number if n > 0,
// otherwise the top of the stack. It does not remove the job from jobs —
// only from the stopped stack — since the caller determines next state.
func (t *Table) popStopped(n int) (*Job, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if len(t.stopped) == 0 {
		return nil, ErrNoStoppedJobs
	}

	if n <= 0 {
		j := t.stopped[len(t.stopped)-1]
		t.stopped = t.stopped[:len(t.stopped)-1]
		return j, nil
	}

	for i := len(t.stopped) - 1; i >= 0; i-- {
		if t.stopped[i].Number == n {
			j := t.stopped[i]
			t.stopped = append(t.stopped[:i], t.stopped[i+1:]...)
			return j, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrNoSuchJob, n)
}

// pushStopped pushes j back onto the top of the stopped stack, for the
// case where a resumed job is immediately re-stopped.
func (t *Table) pushStopped(j *Job) {
	t.mutex.Lock()
	t.stopped = append(t.stopped, j)
	j.State = Stopped
	t.mutex.Unlock()
}

// Resume continues a stopped job (by number, or the top of the stopped
// stack when n <= 0). If background, the job is moved back to Running
// and a reaper is spawned; otherwise Resume waits for it synchronously,
// re-stopping it (pushing back onto the stopped stack) if it stops
// again, exactly like the foreground executor.
func (t *Table) Resume(n int, background bool) (*Job, error) {
	j, err := t.popStopped(n)
	if err != nil {
		return nil, err
	}

	if err := unix.Kill(-j.Pid, unix.SIGCONT); err != nil {
		t.pushStopped(j)
		return nil, fmt.Errorf("continue job %d (pid %d): %w", j.Number, j.Pid, err)
	}

	t.mutex.Lock()
	j.State = Running
	t.mutex.Unlock()

	if background {
		go t.reap(j)
		return j, nil
	}

	t.SetCurrentPid(j.Pid)
	defer t.ClearCurrentPid()

	outcome, err := procwait.Wait(j.Pid, true)
	if err != nil {
		return j, err
	}
	if outcome.Stopped {
		t.pushStopped(j)
		return j, nil
	}

	t.mutex.Lock()
	t.removeLocked(j)
	t.mutex.Unlock()
	return j, nil
}

// InterruptForeground sends an interrupt signal to the current
// foreground job's process group, if any. Every spawned child starts in
// a process group distinct from the shell's own, and nothing in this
// tree hands the controlling terminal over to it (no `tcsetpgrp`), so
// the kernel never delivers a terminal-generated SIGINT to that group
// on its own — it must be forwarded explicitly, the same way
// StopForeground sends a stop (SIGSTOP) to that group.
func (t *Table) InterruptForeground() {
	pid := t.CurrentPid()
	if pid == 0 {
		return
	}
	if err := unix.Kill(-pid, unix.SIGINT); err != nil {
		logger.Errorf("interrupt foreground pid %d: %s", pid, err)
	}
}

// StopForeground sends SIGSTOP to the current foreground
// job's process group, if any. A single command is the leader of its
// own group; a pipeline leader's later stages are explicitly placed
// into the leader's group (see executor.Run's pgid parameter and
// reexec.RunLeader), so signaling the group rather than the lone pid
// also suspends every running stage, not just the leader.
func (t *Table) StopForeground() {
	pid := t.CurrentPid()
	if pid == 0 {
		return
	}
	if err := unix.Kill(-pid, unix.SIGSTOP); err != nil {
		logger.Errorf("stop foreground pid %d: %s", pid, err)
	}
}

// Kill sends a terminate signal to the job with the given number's
// process group; the job's reaper observes the exit and removes the
// table entry.
func (t *Table) Kill(n int) error {
	j, err := t.GetByNumber(n)
	if err != nil {
		return err
	}
	if err := unix.Kill(-j.Pid, unix.SIGTERM); err != nil {
		return fmt.Errorf("kill job %d (pid %d): %w", n, j.Pid, err)
	}

	// A stopped job has no reaper and cannot act on SIGTERM until it is
	// continued: take it off the stopped stack, continue it, and reap it.
	t.mutex.Lock()
	stopped := j.State == Stopped
	if stopped {
		t.removeStoppedLocked(j)
		j.State = Running
	}
	t.mutex.Unlock()
	if stopped {
		if err := unix.Kill(-j.Pid, unix.SIGCONT); err != nil {
			logger.Warnf("continue killed job %d (pid %d): %s", n, j.Pid, err)
		}
		go t.reap(j)
	}
	return nil
}

// KillAll sends a terminate signal to every live job's process group, used on
// shell exit. It does not wait for the signaled processes to exit — the
// shell is about to terminate itself — but it does clear the table
// immediately so the invariant "after kill_all, no job remains" holds
// without depending on reaper goroutines winning a race with process
// exit.
func (t *Table) KillAll() {
	t.mutex.Lock()
	pids := make([]int, len(t.jobs))
	for i, j := range t.jobs {
		pids[i] = j.Pid
	}
	t.jobs = nil
	t.stopped = nil
	t.mutex.Unlock()

	for _, pid := range pids {
		if err := unix.Kill(-pid, unix.SIGTERM); err != nil {
			logger.Warnf("kill_all pid %d: %s", pid, err)
		}
	}
}

// List returns a snapshot of every live job, insertion order.
func (t *Table) List() []Job {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	out := make([]Job, len(t.jobs))
	for i, j := range t.jobs {
		out[i] = *j
	}
	return out
}

// Render renders the full job table as "[n]\t<state> <command>" lines,
// one per live job.
func (t *Table) Render() string {
	jobs := t.List()
	lines := make([]string, len(jobs))
	for i, j := range jobs {
		lines[i] = j.Render()
	}
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
