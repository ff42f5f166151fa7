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

// Package dispatcher is the core of mcservernap (spec.md §2 item 9, §4.7):
// the single accept loop that classifies every incoming connection under the
// lifecycle state lock and branches into one of four behaviors.
package dispatcher

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nabbar/mcservernap/internal/handshake"
	"github.com/nabbar/mcservernap/internal/launcher"
	"github.com/nabbar/mcservernap/internal/lifecycle"
	"github.com/nabbar/mcservernap/internal/mclog"
	"github.com/nabbar/mcservernap/internal/rcon"
	"github.com/nabbar/mcservernap/internal/watchdog"
)

// AcceptCooldown is the pause after a logged accept() error, so a persistent
// kernel-level failure doesn't spin the loop hot (spec.md §4.7, §7).
const AcceptCooldown = 100 * time.Millisecond

// Dispatcher owns the listener and the lifecycle machine it dispatches
// against.
type Dispatcher struct {
	listener *net.TCPListener
	machine  *lifecycle.Machine
	resp     *handshake.Responder

	serverPort int

	launchPath string
	launchArgs []string

	rconPort int
	rconPass string

	pollInterval time.Duration
	idleTimeout  time.Duration

	log logrus.FieldLogger
}

// Config bundles the values Dispatcher needs beyond the listener and
// lifecycle machine it's constructed with.
type Config struct {
	ServerPort   int
	LaunchPath   string
	LaunchArgs   []string
	RconPort     int
	RconPass     string
	PollInterval time.Duration
	IdleTimeout  time.Duration
}

// New builds a Dispatcher bound to ln.
func New(ln *net.TCPListener, machine *lifecycle.Machine, resp *handshake.Responder, cfg Config, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		listener:     ln,
		machine:      machine,
		resp:         resp,
		serverPort:   cfg.ServerPort,
		launchPath:   cfg.LaunchPath,
		launchArgs:   cfg.LaunchArgs,
		rconPort:     cfg.RconPort,
		rconPass:     cfg.RconPass,
		pollInterval: cfg.PollInterval,
		idleTimeout:  cfg.IdleTimeout,
		log:          log,
	}
}

// Run loops forever, accepting and dispatching connections. It returns only
// once ctx is cancelled; every Accept error seen while ctx is still live is
// logged and retried after AcceptCooldown, including the error of a closed
// listener.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := d.listener.AcceptTCP()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.log.Warnf("dispatcher: accept failed: %v", err)
			time.Sleep(AcceptCooldown)
			continue
		}

		_ = conn.SetNoDelay(true)
		go d.dispatch(ctx, conn)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, conn *net.TCPConn) {
	peer := conn.RemoteAddr().String()
	log := mclog.WithConn(d.log, uuid.NewString(), peer)

	release := d.machine.Acquire()
	state := d.machine.CurrentLocked()

	switch state.Variant {
	case lifecycle.Stopped:
		d.handleStopped(ctx, conn, log, release)
	case lifecycle.Starting:
		d.handleStarting(conn, log, release)
	case lifecycle.Running:
		release()
		d.handleRunning(conn, log)
	default:
		release()
		_ = conn.Close()
	}
}

// handleStopped is called with the state lock held; it releases it itself
// once the transition (or the decision not to transition) is settled, per
// spec.md §4.7's instruction that the inspector runs inside the lock here so
// a bogus connection can never trigger a launch.
func (d *Dispatcher) handleStopped(ctx context.Context, conn *net.TCPConn, log logrus.FieldLogger, release func()) {
	defer release()

	outcome, err := handshake.Inspect(conn, d.resp)
	if err != nil {
		log.Debugf("dispatcher: handshake inspect failed: %v", err)
		_ = conn.Close()
		return
	}
	if outcome != handshake.Login {
		_ = conn.Close()
		return
	}

	d.resp.Refuse(conn)
	_ = conn.Close()

	child, err := launcher.Launch(d.launchPath, d.launchArgs)
	if err != nil {
		log.Errorf("dispatcher: failed to launch game server: %v", err)
		return
	}

	wdCtx, cancelWD := context.WithCancel(context.Background())

	if err := d.machine.SwitchToLocked(lifecycle.State{
		Variant:  lifecycle.Starting,
		Child:    child,
		CancelWD: cancelWD,
	}); err != nil {
		log.Errorf("dispatcher: could not enter Starting: %v", err)
		cancelWD()
		_ = child.Kill()
		return
	}

	log.Infof("dispatcher: launched game server (pid %d), entering Starting", child.Pid())

	go d.runWatchdog(wdCtx, child)
	go d.waitChild(child)
}

// handleStarting is called with the state lock held. A second login attempt
// while already starting gets the same refusal as Stopped, but never
// triggers a second launch.
func (d *Dispatcher) handleStarting(conn *net.TCPConn, log logrus.FieldLogger, release func()) {
	defer release()

	outcome, err := handshake.Inspect(conn, d.resp)
	if err != nil {
		log.Debugf("dispatcher: handshake inspect failed: %v", err)
	}
	if outcome == handshake.Login {
		d.resp.Refuse(conn)
	}
	_ = conn.Close()
}

// handleRunning is called without the state lock held: the real server now
// owns handshake semantics, so mcservernap only needs to splice the bytes.
func (d *Dispatcher) handleRunning(conn *net.TCPConn, log logrus.FieldLogger) {
	upstream, err := net.DialTimeout("tcp", upstreamAddr(d.serverPort), 5*time.Second)
	if err != nil {
		log.Warnf("dispatcher: could not reach upstream game server: %v", err)
		_ = conn.Close()
		return
	}

	if tc, ok := upstream.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}

	go Splice(conn, upstream, log)
}

// runWatchdog drives the idle watchdog task for the just-launched child and
// moves the machine from Starting to Running once the administration channel
// is ready. It never moves the machine to Stopped; waitChild does that when
// the child exits.
func (d *Dispatcher) runWatchdog(ctx context.Context, child *launcher.Process) {
	dial := func() (watchdog.Admin, error) {
		return rcon.Dial(upstreamAddr(d.rconPort), d.rconPass, 5*time.Second)
	}

	w := watchdog.New(dial, d.pollInterval, d.idleTimeout, d.log)

	ready := func() {
		release := d.machine.Acquire()
		defer release()

		cur := d.machine.CurrentLocked()
		if cur.Variant != lifecycle.Starting {
			return
		}

		if err := d.machine.SwitchToLocked(lifecycle.State{
			Variant:  lifecycle.Running,
			Child:    cur.Child,
			CancelWD: cur.CancelWD,
		}); err != nil {
			d.log.Errorf("dispatcher: could not enter Running: %v", err)
			return
		}
		d.log.Infof("dispatcher: administration channel ready, entering Running")
	}

	if err := w.Run(ctx, ready); err != nil {
		d.log.Warnf("watchdog task ended: %v", err)
	}

	// Leaving Running (or a watchdog that never reached Running) always
	// implies the child should be reaped; the waiter observes the actual
	// exit and performs the Stopped transition once it does.
}

// waitChild blocks until child exits, then transitions the machine to
// Stopped, cancelling whatever watchdog is still attached.
func (d *Dispatcher) waitChild(child *launcher.Process) {
	if err := child.Wait(); err != nil {
		d.log.Infof("dispatcher: game server process exited: %v", err)
	} else {
		d.log.Infof("dispatcher: game server process exited cleanly")
	}

	release := d.machine.Acquire()
	defer release()

	cur := d.machine.CurrentLocked()
	if cur.Child != child {
		// A launch this waiter doesn't own already moved state elsewhere.
		return
	}

	if cur.CancelWD != nil {
		cur.CancelWD()
	}

	if err := d.machine.SwitchToLocked(lifecycle.State{Variant: lifecycle.Stopped}); err != nil {
		d.log.Errorf("dispatcher: could not return to Stopped: %v", err)
	}
}

func upstreamAddr(port int) string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
}
