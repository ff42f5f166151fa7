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

// Package launcher spawns and supervises the game server's OS process
// (spec.md §4.4): platform-aware launch (a visible console window wrapper on
// Windows, direct exec elsewhere), an awaitable exit, and forcible
// tree-termination.
package launcher

import (
	"os/exec"
	"sync"
)

// Process is a handle to the launched game server. It can be awaited for
// exit, inspected for its OS process id, and terminated forcibly. The zero
// value is not usable; obtain one from Launch.
type Process struct {
	cmd *exec.Cmd

	mu   sync.Mutex
	done bool
	err  error
}

// Launch starts path with args and returns a handle to the new process. On
// Windows the invocation is wrapped so a console window stays open and
// visible for the server's own logs; elsewhere the command is spawned
// directly. See launcher_unix.go and launcher_windows.go.
func Launch(path string, args []string) (*Process, error) {
	cmd := buildCommand(path, args)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &Process{cmd: cmd}, nil
}

// Pid returns the OS process identifier of the launched process.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Wait blocks until the process exits and returns its exit error, if any.
// It is safe to call exactly once; mcservernap's child waiter is the sole
// caller.
func (p *Process) Wait() error {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.done = true
	p.err = err
	p.mu.Unlock()

	return err
}

// Exited reports whether Wait has already observed process exit.
func (p *Process) Exited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Kill forcibly terminates the process and, where supported, its whole
// process tree (spec.md §9: "Process tree termination on Windows").
func (p *Process) Kill() error {
	return killTree(p.cmd)
}
