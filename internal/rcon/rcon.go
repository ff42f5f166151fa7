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

// Package rcon implements the Source RCON protocol, the textual
// challenge-response remote-administration channel spoken by the Minecraft
// Java server (spec.md §2 item 6, §6). mcservernap only ever issues two
// commands over it, "list" and "stop", but the wire protocol itself is
// general-purpose: a 4-byte little-endian length prefix around a request id,
// a packet type, a NUL-terminated payload and a trailing pad byte.
package rcon

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"
)

const (
	typeAuth         int32 = 3
	typeAuthResponse int32 = 2
	typeCommand      int32 = 2
	typeResponse     int32 = 0

	maxPacketSize = 4096
)

// ErrAuthFailed is returned by Dial when the server rejects the supplied
// password.
var ErrAuthFailed = errors.New("rcon: authentication failed")

// Client is a single connection to a game server's administration port.
// It is not safe for concurrent use by multiple goroutines.
type Client struct {
	conn   net.Conn
	r      *bufio.Reader
	nextID int32
}

// Dial opens a TCP connection to addr (expected to be 127.0.0.1:<rcon-port>)
// and authenticates with pass. The dial itself is bounded by timeout; once
// connected, Execute calls use per-call deadlines.
func Dial(addr, pass string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}

	c := &Client{conn: conn, r: bufio.NewReader(conn)}
	if err := c.authenticate(pass, timeout); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return c, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) authenticate(pass string, timeout time.Duration) error {
	id, err := c.send(typeAuth, pass, timeout)
	if err != nil {
		return err
	}

	respID, _, err := c.recv(timeout)
	if err != nil {
		return err
	}

	// The server echoes -1 as the request id when authentication fails.
	if respID == -1 || respID != id {
		return ErrAuthFailed
	}

	return nil
}

// Execute sends cmd as an RCON command packet and returns the server's
// textual reply, bounded by timeout.
func (c *Client) Execute(cmd string, timeout time.Duration) (string, error) {
	id, err := c.send(typeCommand, cmd, timeout)
	if err != nil {
		return "", err
	}

	respID, body, err := c.recv(timeout)
	if err != nil {
		return "", err
	}
	if respID != id {
		return "", fmt.Errorf("rcon: response id %d does not match request id %d", respID, id)
	}

	return body, nil
}

func (c *Client) send(packetType int32, body string, timeout time.Duration) (int32, error) {
	c.nextID++
	id := c.nextID

	payload := make([]byte, 0, 14+len(body))
	payload = appendInt32(payload, id)
	payload = appendInt32(payload, packetType)
	payload = append(payload, body...)
	payload = append(payload, 0x00, 0x00)

	frame := make([]byte, 0, 4+len(payload))
	frame = appendInt32(frame, int32(len(payload)))
	frame = append(frame, payload...)

	if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}

	_, err := c.conn.Write(frame)
	return id, err
}

func (c *Client) recv(timeout time.Duration) (id int32, body string, err error) {
	if err = c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, "", err
	}

	var lenBuf [4]byte
	if _, err = readFull(c.r, lenBuf[:]); err != nil {
		return 0, "", err
	}

	length := int32(binary.LittleEndian.Uint32(lenBuf[:]))
	if length < 10 || length > maxPacketSize {
		return 0, "", fmt.Errorf("rcon: implausible packet length %d", length)
	}

	buf := make([]byte, length)
	if _, err = readFull(c.r, buf); err != nil {
		return 0, "", err
	}

	id = int32(binary.LittleEndian.Uint32(buf[0:4]))
	// buf[4:8] is the packet type, not needed by the caller.
	payload := buf[8:]
	// Trim the two trailing NUL bytes.
	for len(payload) > 0 && payload[len(payload)-1] == 0x00 {
		payload = payload[:len(payload)-1]
	}

	return id, string(payload), nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func appendInt32(buf []byte, v int32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return append(buf, b[:]...)
}
