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

// Package varint implements the variable-length integer encoding used as a
// length prefix throughout the Minecraft Java edition network protocol: 1 to
// 5 little-endian septets, continuation signalled by the high bit of every
// byte but the last.
package varint

import "errors"

// MaxBytes is the largest number of bytes a 32-bit varint can occupy.
const MaxBytes = 5

// ErrMalformed is returned when a buffer does not contain a complete, valid
// varint within MaxBytes bytes.
var ErrMalformed = errors.New("varint: malformed or truncated value")

// Write appends the varint encoding of value to buf and returns the
// extended slice. Negative values are reinterpreted as their uint32 bit
// pattern, matching the protocol's treatment of varints as unsigned.
func Write(value int32, buf []byte) []byte {
	v := uint32(value)
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			return buf
		}
	}
}

// Read decodes a varint from the start of buf, returning the value and the
// number of bytes consumed. It reports ErrMalformed if buf is empty or no
// terminating byte (high bit clear) appears within MaxBytes bytes.
func Read(buf []byte) (value int32, n int, err error) {
	var result uint32

	for n = 0; n < MaxBytes; n++ {
		if n >= len(buf) {
			return 0, 0, ErrMalformed
		}

		b := buf[n]
		result |= uint32(b&0x7F) << (7 * uint(n))

		if b&0x80 == 0 {
			return int32(result), n + 1, nil
		}
	}

	return 0, 0, ErrMalformed
}
