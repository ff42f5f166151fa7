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

// Package mclog configures the process-wide structured logger. It is a
// trimmed adaptation of the teacher's logger package: logrus underneath, a
// colorable writer on stdout, one text formatter, and a level honoring the
// standard per-module log-level environment convention (MCSERVERNAP_LOG_LEVEL).
package mclog

import (
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
)

// EnvLevel is the environment variable honoring the standard per-module
// log-level convention referenced in spec.md §6.
const EnvLevel = "MCSERVERNAP_LOG_LEVEL"

// New builds the root logger. An empty level string falls back to the
// environment variable, and then to info.
func New(level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(colorable.NewColorableStdout())
	l.SetFormatter(&logrus.TextFormatter{
		ForceColors:      true,
		DisableTimestamp: false,
		FullTimestamp:    true,
	})
	l.SetLevel(resolveLevel(level))
	return l
}

func resolveLevel(level string) logrus.Level {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	if level == "" {
		return logrus.InfoLevel
	}

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// WithConn returns an entry pre-populated with a per-connection correlation
// id, mirroring the teacher's logger/fields package, whose entire purpose is
// attaching such correlation data to every line a task emits.
func WithConn(log logrus.FieldLogger, connID string, remote string) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"conn":   connID,
		"remote": remote,
	})
}
