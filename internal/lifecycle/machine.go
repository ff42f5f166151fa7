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

package lifecycle

import (
	"errors"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/mcservernap/internal/launcher"
)

// LockTimeout is the maximum time any caller may wait to acquire the state
// lock (spec.md §5) before the process is considered deadlocked.
const LockTimeout = 5 * time.Second

// ErrIllegalTransition is returned by SwitchTo when the requested edge is not
// part of the graph in spec.md §3.
var ErrIllegalTransition = errors.New("lifecycle: illegal state transition")

// State is a snapshot of the lifecycle value: the current variant plus the
// resources that variant owns.
type State struct {
	Variant  Variant
	Child    *launcher.Process
	CancelWD func()
}

// Machine is the single, process-wide, mutex-protected lifecycle value
// described in spec.md §3. All access goes through Acquire (and the release
// func it returns) or the convenience SwitchTo/Snapshot helpers, which wrap
// that same lock.
type Machine struct {
	log  logrus.FieldLogger
	sem  chan struct{}
	cur  State
	exit func(int)
}

// New returns a Stopped Machine.
func New(log logrus.FieldLogger) *Machine {
	m := &Machine{
		log:  log,
		sem:  make(chan struct{}, 1),
		cur:  State{Variant: Stopped},
		exit: os.Exit,
	}
	m.sem <- struct{}{}
	return m
}

// Acquire takes the state lock, bounded by LockTimeout. A timeout is treated
// as an unrecoverable deadlock: per spec.md §4.6/§7, it aborts the process
// (the only place such an abort is permitted). The returned release function
// must be called exactly once to give the lock back up.
func (m *Machine) Acquire() (release func()) {
	select {
	case <-m.sem:
		return func() { m.sem <- struct{}{} }
	case <-time.After(LockTimeout):
		m.log.Errorf("lifecycle: state lock acquisition timed out after %s, aborting process", LockTimeout)
		m.exit(1)
		// unreachable in production; keeps the compiler happy when exit is
		// stubbed out in tests.
		return func() {}
	}
}

// SetExitFunc overrides the process-abort hook used when lock acquisition
// times out. Production code never needs this; it exists so tests can
// observe the deadlock-abort path without actually terminating the test
// binary.
func (m *Machine) SetExitFunc(f func(int)) {
	m.exit = f
}

// Snapshot returns the current state under the lock.
func (m *Machine) Snapshot() State {
	release := m.Acquire()
	defer release()
	return m.cur
}

// CurrentLocked returns the current state without acquiring the lock. Callers
// must already hold it via Acquire — this exists for the dispatcher's
// Stopped/Starting branches (spec.md §4.7), which need to read the variant
// and, depending on it, call SwitchToLocked within the same critical section.
func (m *Machine) CurrentLocked() State {
	return m.cur
}

// SwitchTo attempts the transition to next, which must already carry any
// newly-owned resources (child handle, watchdog cancel func). It acquires
// the lock itself; callers that already hold it (the dispatcher's
// Stopped/Starting branch, per spec.md §4.7) must use SwitchToLocked instead.
func (m *Machine) SwitchTo(next State) error {
	release := m.Acquire()
	defer release()
	return m.SwitchToLocked(next)
}

// SwitchToLocked performs the transition assuming the caller already holds
// the lock (obtained via Acquire). It enforces the legal transition graph of
// spec.md §3, no-ops on Stopped -> Stopped, and cancels the outgoing
// watchdog whenever a transition leaves Running.
func (m *Machine) SwitchToLocked(next State) error {
	cur := m.cur.Variant

	if cur == Stopped && next.Variant == Stopped {
		return nil
	}

	if !isLegal(cur, next.Variant) {
		m.log.Errorf("lifecycle: rejected illegal transition %s -> %s", cur, next.Variant)
		return ErrIllegalTransition
	}

	if cur == Running && m.cur.CancelWD != nil {
		m.cur.CancelWD()
	}

	m.log.Infof("lifecycle: %s -> %s", cur, next.Variant)
	m.cur = next
	return nil
}
