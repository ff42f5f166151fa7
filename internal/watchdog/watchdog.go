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

// Package watchdog polls the game server's player count through the
// administration channel and stops it after a configured idle period
// (spec.md §2 item 7, §4.5). It never mutates lifecycle state directly; the
// dispatcher's child waiter observes the stop command's side effect.
package watchdog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// ConnectRetryInterval and ConnectBound implement the bounded-retry connect
// policy of spec.md §4.5 step 1.
const (
	ConnectRetryInterval = 1 * time.Second
	ConnectBound         = 600 * time.Second
)

// CommandRetryInterval and MaxConsecutiveFailures implement the transient
// command-error tolerance of spec.md §4.5 step 4.
const (
	CommandRetryInterval   = 1 * time.Second
	MaxConsecutiveFailures = 5
)

var playerCountPattern = regexp.MustCompile(`There are (\d+) of a max`)

// Admin is the administration-channel surface the watchdog needs on an
// already connected and authenticated channel: command execution and close.
// Connecting is the Dialer's job. *rcon.Client satisfies it directly.
type Admin interface {
	Execute(cmd string, timeout time.Duration) (string, error)
	Close() error
}

// Dialer opens a fresh Admin connection. Kept as a function rather than a
// fixed struct field so tests can substitute a scripted stub without network
// I/O (spec.md §8 "Idle trip").
type Dialer func() (Admin, error)

// Watchdog runs the poll loop described in spec.md §4.5.
type Watchdog struct {
	dial         Dialer
	pollInterval time.Duration
	idleTimeout  time.Duration
	log          logrus.FieldLogger
}

// New builds a Watchdog. pollInterval and idleTimeout are config-driven
// seconds converted to durations by the caller.
func New(dial Dialer, pollInterval, idleTimeout time.Duration, log logrus.FieldLogger) *Watchdog {
	return &Watchdog{dial: dial, pollInterval: pollInterval, idleTimeout: idleTimeout, log: log}
}

// Run connects with bounded retry, fires ready exactly once on success, then
// polls until the server has been empty for idleTimeout, at which point it
// issues stop and returns nil. It returns early with an error if ctx is
// cancelled (the lifecycle machine leaving Running) or if the connect bound
// or the consecutive-failure bound is exceeded.
func (w *Watchdog) Run(ctx context.Context, ready func()) error {
	admin, err := w.connectWithRetry(ctx)
	if err != nil {
		return err
	}
	defer admin.Close()

	ready()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	lastOccupied := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			count, err := w.pollUntilSuccess(ctx, admin)
			if err != nil {
				return err
			}

			if count > 0 {
				lastOccupied = time.Now()
				continue
			}

			if time.Since(lastOccupied) >= w.idleTimeout {
				_, _ = admin.Execute("stop", CommandRetryInterval*5)
				w.log.Infof("watchdog: idle for %s, issued stop", w.idleTimeout)
				return nil
			}
		}
	}
}

// pollUntilSuccess issues "list" and, on failure, retries immediately after
// CommandRetryInterval — independent of the poll ticker, which may not fire
// again for a full pollInterval — up to MaxConsecutiveFailures times (spec.md
// §4.5 step 4). It returns once a command succeeds, ctx is cancelled, or the
// failure bound is exceeded.
func (w *Watchdog) pollUntilSuccess(ctx context.Context, admin Admin) (int, error) {
	failures := 0

	for {
		count, err := w.pollPlayerCount(admin)
		if err == nil {
			return count, nil
		}

		failures++
		w.log.Warnf("watchdog: list command failed (%d/%d consecutive): %v", failures, MaxConsecutiveFailures+1, err)
		if failures > MaxConsecutiveFailures {
			return 0, fmt.Errorf("watchdog: admin channel failed %d consecutive times: %w", failures, err)
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(CommandRetryInterval):
		}
	}
}

func (w *Watchdog) connectWithRetry(ctx context.Context) (Admin, error) {
	deadline := time.Now().Add(ConnectBound)

	for {
		admin, err := w.dial()
		if err == nil {
			return admin, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("watchdog: could not reach administration channel within %s: %w", ConnectBound, err)
		}

		w.log.Debugf("watchdog: administration connect failed, retrying: %v", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(ConnectRetryInterval):
		}
	}
}

func (w *Watchdog) pollPlayerCount(admin Admin) (int, error) {
	reply, err := admin.Execute("list", CommandRetryInterval*5)
	if err != nil {
		return 0, err
	}

	m := playerCountPattern.FindStringSubmatch(reply)
	if m == nil {
		return 0, nil
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, errors.New("watchdog: unparseable player count")
	}
	return n, nil
}
