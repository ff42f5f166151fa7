/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package shutdown races the dispatcher against the process's interrupt
// signal and performs the graceful-stop sequence of spec.md §2 item 10,
// §4.8.
package shutdown

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/mcservernap/internal/lifecycle"
)

// DrainDelay is how long the coordinator waits after issuing stop for the
// game server to flush world state before the process exits (spec.md §5).
const DrainDelay = 10 * time.Second

// Admin is the minimal administration-channel surface the coordinator needs
// to issue the final stop command.
type Admin interface {
	Execute(cmd string, timeout time.Duration) (string, error)
	Close() error
}

// Dialer opens a fresh administration connection on demand.
type Dialer func() (Admin, error)

// Coordinator performs the shutdown sequence once, on signal.
type Coordinator struct {
	machine *lifecycle.Machine
	dial    Dialer
	log     logrus.FieldLogger
	drain   time.Duration
}

// New builds a Coordinator.
func New(machine *lifecycle.Machine, dial Dialer, log logrus.FieldLogger) *Coordinator {
	return &Coordinator{machine: machine, dial: dial, log: log, drain: DrainDelay}
}

// SetDrainDelay overrides the post-stop sleep. Production code never needs
// this; it exists so tests can exercise the full sequence without waiting
// out the real DrainDelay.
func (c *Coordinator) SetDrainDelay(d time.Duration) {
	c.drain = d
}

// Shutdown implements spec.md §4.8: acquire the state lock, leave Running if
// that's the current state (cancelling the watchdog as a side effect of the
// transition), release the lock, best-effort issue stop over a fresh
// connection, then sleep DrainDelay.
func (c *Coordinator) Shutdown() {
	release := c.machine.Acquire()
	wasRunning := c.machine.CurrentLocked().Variant == lifecycle.Running

	if wasRunning {
		if err := c.machine.SwitchToLocked(lifecycle.State{Variant: lifecycle.Stopped}); err != nil {
			c.log.Errorf("shutdown: could not leave Running: %v", err)
		}
	}
	release()

	if !wasRunning {
		c.log.Infof("shutdown: server was not Running, nothing to stop")
		return
	}

	admin, err := c.dial()
	if err != nil {
		c.log.Warnf("shutdown: could not open administration connection to issue stop: %v", err)
	} else {
		if _, err := admin.Execute("stop", 5*time.Second); err != nil {
			c.log.Warnf("shutdown: stop command failed: %v", err)
		}
		_ = admin.Close()
	}

	c.log.Infof("shutdown: draining for %s before exit", c.drain)
	time.Sleep(c.drain)
}
