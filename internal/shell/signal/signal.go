// Package signal implements the shell's signal controller: it owns the
// SIGINT/SIGTSTP handling, forwarding each to the foreground job when
// one exists or publishing a redraw event for the read-eval loop when
// the shell itself is in the foreground.
//
// Go cannot install an async-signal-safe C-style handler; the idiomatic
// substitute is a channel fed by signal.Notify and drained by a
// dedicated goroutine that does no more than read current_pid (an
// atomic, read without taking the job table's mutex) and publish an
// event.
package signal

import (
	"os"
	"os/signal"

	"github.com/drpotato/pysh/internal/shell/job"
	"github.com/drpotato/pysh/internal/log"

	"golang.org/x/sys/unix"
)

var logger = log.New(os.Stderr, "signal")

// Event is published when the shell itself (not a foreground child) was
// the target of an interrupt, so the read-eval loop can redraw its
// prompt.
type Event struct {
	// Interrupted is true for a SIGINT observed with no foreground job.
	Interrupted bool
}

// Controller owns the shell's SIGINT/SIGTSTP routing.
type Controller struct {
	table   *job.Table
	events  chan Event
	signals chan os.Signal
	done    chan struct{}
}

// New installs the controller's signal handlers and starts its routing
// goroutine. Callers should defer Stop.
func New(table *job.Table) *Controller {
	c := &Controller{
		table:   table,
		events:  make(chan Event, 8),
		signals: make(chan os.Signal, 8),
		done:    make(chan struct{}),
	}
	signal.Notify(c.signals, unix.SIGINT, unix.SIGTSTP)
	go c.route()
	return c
}

// Events returns the channel redraw events are published on.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Stop stops routing signals and restores default handling.
func (c *Controller) Stop() {
	signal.Stop(c.signals)
	close(c.done)
}

func (c *Controller) route() {
	for {
		select {
		case <-c.done:
			return
		case sig := <-c.signals:
			c.handle(sig)
		}
	}
}

func (c *Controller) handle(sig os.Signal) {
	pid := c.table.CurrentPid()

	switch sig {
	case unix.SIGINT:
		if pid == 0 {
			// No foreground child: the shell itself was interrupted.
			// There is no process group to forward to — just ask the
			// loop to redraw.
			c.publish(Event{Interrupted: true})
			return
		}
		// A foreground child exists. Its process group is distinct from
		// the shell's own and never received the controlling terminal
		// via tcsetpgrp, so the kernel delivered this SIGINT only to the
		// shell's group — forward it explicitly.
		c.table.InterruptForeground()

	case unix.SIGTSTP:
		if pid == 0 {
			return
		}
		c.table.StopForeground()
	}
}

func (c *Controller) publish(e Event) {
	select {
	case c.events <- e:
	default:
		logger.Warnf("event channel full, dropping redraw event")
	}
}
