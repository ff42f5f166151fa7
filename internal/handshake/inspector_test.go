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

package handshake_test

import (
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/mcservernap/internal/handshake"
	"github.com/nabbar/mcservernap/internal/mccfg"
	"github.com/nabbar/mcservernap/internal/varint"
)

// buildHandshake assembles a raw handshake packet body (everything after the
// leading packet-length varint is irrelevant to that length's own value, so
// a placeholder is fine) with the given next-state.
func buildHandshake(nextState int32) []byte {
	var body []byte
	body = varint.Write(0, body) // packet ID 0
	body = varint.Write(766, body)

	addr := "play.example.com"
	body = varint.Write(int32(len(addr)), body)
	body = append(body, addr...)

	body = append(body, 0x63, 0xDD) // port, arbitrary
	body = varint.Write(nextState, body)

	var pkt []byte
	pkt = varint.Write(int32(len(body)), pkt)
	pkt = append(pkt, body...)
	return pkt
}

func newPair() (client, server *net.TCPConn) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	defer ln.Close()

	acceptCh := make(chan *net.TCPConn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			acceptCh <- c.(*net.TCPConn)
		}
	}()

	c, err := net.DialTCP("tcp", nil, ln.Addr().(*net.TCPAddr))
	Expect(err).NotTo(HaveOccurred())

	server = <-acceptCh
	return c, server
}

var _ = Describe("Inspect", func() {
	var (
		log      *logrus.Logger
		pkts     handshake.Packets
		responder *handshake.Responder
	)

	BeforeEach(func() {
		log, _ = test.NewNullLogger()
		log.SetLevel(logrus.DebugLevel)

		cfg := mccfg.Defaults()
		var err error
		pkts, err = handshake.Precompute(cfg)
		Expect(err).NotTo(HaveOccurred())

		responder = handshake.NewResponder(pkts, log)
	})

	It("classifies next-state 1 as not-login and writes the status packet", func() {
		client, server := newPair()
		defer client.Close()

		go func() {
			_, _ = client.Write(buildHandshake(1))
		}()

		outcome, err := handshake.Inspect(server, responder)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(handshake.NotLogin))

		_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
		got := make([]byte, len(pkts.Status)+16)
		n, _ := client.Read(got)
		Expect(got[:n]).To(Equal(pkts.Status))
	})

	It("classifies next-state 2 as login without writing any bytes", func() {
		client, server := newPair()
		defer client.Close()
		defer server.Close()

		go func() {
			_, _ = client.Write(buildHandshake(2))
		}()

		outcome, err := handshake.Inspect(server, responder)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(handshake.Login))

		_ = client.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		buf := make([]byte, 1)
		_, err = client.Read(buf)
		Expect(err).To(HaveOccurred())
	})

	It("classifies next-state 3 as not-login without writing any bytes", func() {
		client, server := newPair()
		defer client.Close()
		defer server.Close()

		go func() {
			_, _ = client.Write(buildHandshake(3))
		}()

		outcome, err := handshake.Inspect(server, responder)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(handshake.NotLogin))

		_ = client.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		buf := make([]byte, 1)
		_, err = client.Read(buf)
		Expect(err).To(HaveOccurred())
	})

	It("treats a connection that sends nothing as not-login once its deadline expires", func() {
		client, server := newPair()
		defer client.Close()
		defer server.Close()

		outcome, err := handshake.Inspect(server, responder)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(handshake.NotLogin))
	})
})
