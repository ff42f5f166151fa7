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

package shutdown_test

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/mcservernap/internal/lifecycle"
	"github.com/nabbar/mcservernap/internal/shutdown"
)

type stubAdmin struct {
	executed int32
	closed   int32
}

func (s *stubAdmin) Execute(cmd string, _ time.Duration) (string, error) {
	atomic.StoreInt32(&s.executed, 1)
	return "", nil
}

func (s *stubAdmin) Close() error {
	atomic.StoreInt32(&s.closed, 1)
	return nil
}

var _ = Describe("Shutdown", func() {
	var log *logrus.Logger

	BeforeEach(func() {
		log, _ = test.NewNullLogger()
		log.SetLevel(logrus.DebugLevel)
	})

	It("issues stop and transitions out of Running before draining", func() {
		m := lifecycle.New(log)
		Expect(m.SwitchTo(lifecycle.State{Variant: lifecycle.Starting})).To(Succeed())
		Expect(m.SwitchTo(lifecycle.State{Variant: lifecycle.Running})).To(Succeed())

		stub := &stubAdmin{}
		c := shutdown.New(m, func() (shutdown.Admin, error) { return stub, nil }, log)
		c.SetDrainDelay(10 * time.Millisecond)

		c.Shutdown()

		Expect(m.Snapshot().Variant).To(Equal(lifecycle.Stopped))
		Expect(atomic.LoadInt32(&stub.executed)).To(Equal(int32(1)))
		Expect(atomic.LoadInt32(&stub.closed)).To(Equal(int32(1)))
	})

	It("does nothing beyond logging when the server was never Running", func() {
		m := lifecycle.New(log)

		dialed := int32(0)
		c := shutdown.New(m, func() (shutdown.Admin, error) {
			atomic.StoreInt32(&dialed, 1)
			return nil, nil
		}, log)
		c.SetDrainDelay(10 * time.Millisecond)

		c.Shutdown()

		Expect(m.Snapshot().Variant).To(Equal(lifecycle.Stopped))
		Expect(atomic.LoadInt32(&dialed)).To(Equal(int32(0)))
	})
})
