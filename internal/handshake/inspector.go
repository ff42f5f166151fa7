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
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/nabbar/mcservernap/internal/mcproto"
	"github.com/nabbar/mcservernap/internal/varint"
)

// Outcome is the three-valued classification of a freshly accepted
// connection's first packet (spec.md §4.2, §8).
type Outcome int

const (
	NotLogin Outcome = iota
	Login
	Fail
)

func (o Outcome) String() string {
	switch o {
	case Login:
		return "login"
	case Fail:
		return "fail"
	default:
		return "not-login"
	}
}

// ReadDeadline bounds the initial handshake read (spec.md §5).
const ReadDeadline = 5 * time.Second

// maxScratch is the largest handshake mcservernap ever needs to parse: a
// well-formed vanilla handshake is a few dozen bytes; 512 gives plenty of
// slack for long hostnames (SRV/BungeeCord forwarding) without risking a
// slow-loris style unbounded read.
const maxScratch = 512

// halfCloser is the connection surface the responder needs: ordinary
// net.Conn I/O plus a TCP half-close so the client observes the FIN after
// the synthetic response, matching the real server's behavior.
type halfCloser interface {
	net.Conn
	CloseWrite() error
}

// Inspect reads and classifies the first packet of conn per spec.md §4.2. A
// next-state of 1 (status probe) is serviced inline via responder before
// NotLogin is returned, since a probe that isn't answered here never will be.
func Inspect(conn halfCloser, responder *Responder) (Outcome, error) {
	if err := conn.SetReadDeadline(time.Now().Add(ReadDeadline)); err != nil {
		return Fail, err
	}

	buf := make([]byte, maxScratch)
	n, err := conn.Read(buf)
	if err != nil {
		if isIgnorable(err) {
			return NotLogin, nil
		}
		return Fail, err
	}
	if n == 0 {
		return NotLogin, nil
	}
	buf = buf[:n]

	offset := 0

	// Packet length varint: its value isn't needed, only its width.
	_, consumed, err := varint.Read(buf[offset:])
	if err != nil {
		return NotLogin, nil
	}
	offset += consumed

	packetID, consumed, err := varint.Read(buf[offset:])
	if err != nil || packetID != 0 {
		return NotLogin, nil
	}
	offset += consumed

	// Protocol version varint: discarded.
	_, consumed, err = varint.Read(buf[offset:])
	if err != nil {
		return NotLogin, nil
	}
	offset += consumed

	addr, consumed, err := mcproto.ReadString(buf, offset)
	if err != nil {
		return NotLogin, nil
	}
	_ = addr
	offset += consumed

	if _, err = mcproto.ReadUnsignedShort(buf, offset); err != nil {
		return NotLogin, nil
	}
	offset += 2

	nextState, _, err := varint.Read(buf[offset:])
	if err != nil {
		return NotLogin, nil
	}

	switch nextState {
	case 1:
		responder.Status(conn)
		return NotLogin, nil
	case 2:
		return Login, nil
	default:
		return NotLogin, nil
	}
}

// isIgnorable reports whether err is one of the benign conditions spec.md
// §4.2 lists as yielding the "ignore" outcome rather than a surfaced error:
// a clean EOF, a deadline expiry, or a peer reset.
func isIgnorable(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}
