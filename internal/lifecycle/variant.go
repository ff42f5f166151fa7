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

// Package lifecycle implements the mutex-protected server lifecycle state
// machine described in spec.md §3 and §4.6: the tagged Stopped/Starting/
// Running value, the resources each variant owns, and the legal transition
// graph between them.
package lifecycle

import "fmt"

// Variant tags the server lifecycle state.
type Variant uint8

const (
	// Stopped owns nothing: the game server process is not running.
	Stopped Variant = iota
	// Starting owns the child process handle while the server boots.
	Starting
	// Running owns the child process handle and the idle watchdog task.
	Running
)

// String renders the variant name for log lines.
func (v Variant) String() string {
	switch v {
	case Stopped:
		return "Stopped"
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	default:
		return fmt.Sprintf("Variant(%d)", uint8(v))
	}
}

// legal enumerates the directed transition graph of spec.md §3:
// Stopped -> Starting, Starting -> Running, Starting -> Stopped, Running -> Stopped.
var legal = map[Variant]map[Variant]bool{
	Stopped:  {Starting: true},
	Starting: {Running: true, Stopped: true},
	Running:  {Stopped: true},
}

// isLegal reports whether from -> to is a permitted transition.
// Stopped -> Stopped is special-cased by the caller as a no-op success.
func isLegal(from, to Variant) bool {
	return legal[from] != nil && legal[from][to]
}
