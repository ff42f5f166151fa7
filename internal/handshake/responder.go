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

package handshake

import (
	"time"

	"github.com/sirupsen/logrus"
)

// WriteDeadline bounds every response write and the status-request drain
// (spec.md §5).
const WriteDeadline = 5 * time.Second

// RefusalRenderDelay is the pause after writing the login-refusal packet so
// the client has a chance to render the disconnect message before the FIN
// arrives; several vanilla and modded clients otherwise discard it
// (spec.md §4.3).
const RefusalRenderDelay = 50 * time.Millisecond

// Responder writes the two precomputed synthetic responses. All I/O here is
// best-effort: failures are logged and swallowed, since the worst outcome is
// a client that sees nothing instead of a stale server listing.
type Responder struct {
	pkts Packets
	log  logrus.FieldLogger
}

// NewResponder builds a Responder over the packets precomputed at startup.
func NewResponder(pkts Packets, log logrus.FieldLogger) *Responder {
	return &Responder{pkts: pkts, log: log}
}

// Status drains the anticipated (empty) status-request packet, writes the
// precomputed listing, then half-closes the connection.
func (r *Responder) Status(conn halfCloser) {
	if err := conn.SetReadDeadline(time.Now().Add(WriteDeadline)); err != nil {
		r.log.Debugf("handshake: status drain deadline: %v", err)
		return
	}
	scratch := make([]byte, 8)
	_, _ = conn.Read(scratch) // best-effort drain; a timeout or EOF here is fine

	if err := conn.SetWriteDeadline(time.Now().Add(WriteDeadline)); err != nil {
		r.log.Debugf("handshake: status write deadline: %v", err)
		return
	}
	if _, err := conn.Write(r.pkts.Status); err != nil {
		r.log.Debugf("handshake: status write failed: %v", err)
		return
	}

	if err := conn.CloseWrite(); err != nil {
		r.log.Debugf("handshake: status close-write failed: %v", err)
	}
}

// Refuse writes the precomputed login-refusal packet, pauses for
// RefusalRenderDelay, then half-closes the connection.
func (r *Responder) Refuse(conn halfCloser) {
	if err := conn.SetWriteDeadline(time.Now().Add(WriteDeadline)); err != nil {
		r.log.Debugf("handshake: refusal write deadline: %v", err)
		return
	}
	if _, err := conn.Write(r.pkts.Refusal); err != nil {
		r.log.Debugf("handshake: refusal write failed: %v", err)
		return
	}

	time.Sleep(RefusalRenderDelay)

	if err := conn.CloseWrite(); err != nil {
		r.log.Debugf("handshake: refusal close-write failed: %v", err)
	}
}
