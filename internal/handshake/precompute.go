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

// Package handshake inspects the first packet of a freshly accepted
// connection and answers it with one of the two synthetic responses
// mcservernap can produce while the game server is not yet serving traffic
// (spec.md §2 items 2-4, §4.2-§4.3).
package handshake

import (
	"encoding/json"
	"fmt"

	"github.com/nabbar/mcservernap/internal/mccfg"
	"github.com/nabbar/mcservernap/internal/mcproto"
	"github.com/nabbar/mcservernap/internal/varint"
)

// Packets holds the two immutable byte arrays derived once from
// configuration at startup: the status-listing response and the
// login-refusal response (spec.md §3 "Precomputed response packets").
type Packets struct {
	Status  []byte
	Refusal []byte
}

// Precompute builds both packets from cfg. It never fails: JSON marshalling
// of these fixed-shape structs cannot error in practice, but any error is
// still surfaced rather than silently dropped, since a malformed precomputed
// packet would poison every probe for the life of the process.
func Precompute(cfg mccfg.Config) (Packets, error) {
	statusBody, err := json.Marshal(mcproto.NewStatusResponse(mcproto.Chat{
		Text:  cfg.MotdText,
		Color: cfg.MotdColor,
		Bold:  cfg.MotdBold,
	}, cfg.ServerIconBase64))
	if err != nil {
		return Packets{}, fmt.Errorf("handshake: marshal status response: %w", err)
	}

	refusalBody, err := json.Marshal(mcproto.Chat{
		Text:  cfg.ConnectionMsgText,
		Color: cfg.ConnectionMsgColor,
		Bold:  cfg.ConnectionMsgBold,
	})
	if err != nil {
		return Packets{}, fmt.Errorf("handshake: marshal refusal response: %w", err)
	}

	return Packets{
		Status:  framedJSON(statusBody),
		Refusal: framedJSON(refusalBody),
	}, nil
}

// framedJSON wraps a JSON document in the wire layout spec.md §6 mandates
// for both synthetic responses: varint(totalLen) | varint(0) | varint(jsonLen) | jsonBytes.
func framedJSON(body []byte) []byte {
	field := varint.Write(int32(len(body)), nil)
	field = append(field, body...)
	return mcproto.BuildPacket(0, field)
}
