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

// Package mcproto builds and parses the small slice of the Minecraft Java
// edition handshake/status wire protocol that mcservernap needs to speak: the
// handshake prelude and the two synthetic packets (status response, login
// disconnect) it answers with.
package mcproto

import (
	"encoding/binary"
	"errors"

	"github.com/nabbar/mcservernap/internal/varint"
)

// ErrUnderflow is returned when a field read runs past the end of the
// supplied buffer.
var ErrUnderflow = errors.New("mcproto: buffer underflow while reading field")

// BuildPacket frames body as a Minecraft packet: varint(len(packetID-varint)+len(body)) | varint(packetID) | body.
func BuildPacket(packetID int32, body []byte) []byte {
	var idBuf []byte
	idBuf = varint.Write(packetID, idBuf)

	payloadLen := int32(len(idBuf) + len(body))

	out := varint.Write(payloadLen, nil)
	out = append(out, idBuf...)
	out = append(out, body...)
	return out
}

// ReadString reads a varint-length-prefixed UTF-8 string from buf starting at
// offset. It returns the string, the number of bytes consumed (including the
// length prefix), and ErrUnderflow/varint.ErrMalformed on truncation.
func ReadString(buf []byte, offset int) (string, int, error) {
	if offset > len(buf) {
		return "", 0, ErrUnderflow
	}

	strLen, n, err := varint.Read(buf[offset:])
	if err != nil {
		return "", 0, err
	}
	if strLen < 0 {
		return "", 0, ErrUnderflow
	}

	start := offset + n
	end := start + int(strLen)
	if end > len(buf) {
		return "", 0, ErrUnderflow
	}

	return string(buf[start:end]), n + int(strLen), nil
}

// ReadUnsignedShort reads a 2-byte big-endian port field from buf at offset.
func ReadUnsignedShort(buf []byte, offset int) (uint16, error) {
	if offset+2 > len(buf) {
		return 0, ErrUnderflow
	}
	return binary.BigEndian.Uint16(buf[offset : offset+2]), nil
}
