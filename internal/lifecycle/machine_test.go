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

package lifecycle_test

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/mcservernap/internal/lifecycle"
)

func newMachine() *lifecycle.Machine {
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return lifecycle.New(log)
}

var _ = Describe("Transition legality", func() {
	var m *lifecycle.Machine

	BeforeEach(func() {
		m = newMachine()
	})

	It("allows Stopped -> Starting", func() {
		err := m.SwitchTo(lifecycle.State{Variant: lifecycle.Starting})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Snapshot().Variant).To(Equal(lifecycle.Starting))
	})

	It("allows Starting -> Running", func() {
		Expect(m.SwitchTo(lifecycle.State{Variant: lifecycle.Starting})).To(Succeed())
		Expect(m.SwitchTo(lifecycle.State{Variant: lifecycle.Running})).To(Succeed())
		Expect(m.Snapshot().Variant).To(Equal(lifecycle.Running))
	})

	It("allows Starting -> Stopped", func() {
		Expect(m.SwitchTo(lifecycle.State{Variant: lifecycle.Starting})).To(Succeed())
		Expect(m.SwitchTo(lifecycle.State{Variant: lifecycle.Stopped})).To(Succeed())
		Expect(m.Snapshot().Variant).To(Equal(lifecycle.Stopped))
	})

	It("allows Running -> Stopped", func() {
		Expect(m.SwitchTo(lifecycle.State{Variant: lifecycle.Starting})).To(Succeed())
		Expect(m.SwitchTo(lifecycle.State{Variant: lifecycle.Running})).To(Succeed())
		Expect(m.SwitchTo(lifecycle.State{Variant: lifecycle.Stopped})).To(Succeed())
		Expect(m.Snapshot().Variant).To(Equal(lifecycle.Stopped))
	})

	It("treats Stopped -> Stopped as a no-op success", func() {
		err := m.SwitchTo(lifecycle.State{Variant: lifecycle.Stopped})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Snapshot().Variant).To(Equal(lifecycle.Stopped))
	})

	It("rejects every other requested transition without mutating state", func() {
		Expect(m.SwitchTo(lifecycle.State{Variant: lifecycle.Running})).To(MatchError(lifecycle.ErrIllegalTransition))
		Expect(m.Snapshot().Variant).To(Equal(lifecycle.Stopped))

		Expect(m.SwitchTo(lifecycle.State{Variant: lifecycle.Starting})).To(Succeed())
		Expect(m.SwitchTo(lifecycle.State{Variant: lifecycle.Starting})).To(MatchError(lifecycle.ErrIllegalTransition))
		Expect(m.Snapshot().Variant).To(Equal(lifecycle.Starting))
	})
})

var _ = Describe("Watchdog cancellation", func() {
	It("cancels the owned watchdog handle when leaving Running", func() {
		m := newMachine()
		var cancelled int32

		Expect(m.SwitchTo(lifecycle.State{Variant: lifecycle.Starting})).To(Succeed())
		Expect(m.SwitchTo(lifecycle.State{
			Variant:  lifecycle.Running,
			CancelWD: func() { atomic.StoreInt32(&cancelled, 1) },
		})).To(Succeed())

		Expect(atomic.LoadInt32(&cancelled)).To(Equal(int32(0)))

		Expect(m.SwitchTo(lifecycle.State{Variant: lifecycle.Stopped})).To(Succeed())

		Expect(atomic.LoadInt32(&cancelled)).To(Equal(int32(1)))
	})
})

var _ = Describe("Lock acquisition timeout", func() {
	It("aborts the process when the lock cannot be acquired within the bound", func() {
		m := newMachine()

		aborted := make(chan int, 1)
		m.SetExitFunc(func(code int) { aborted <- code })

		release := m.Acquire()
		defer release()

		done := make(chan struct{})
		go func() {
			defer close(done)
			m.Snapshot()
		}()

		Eventually(aborted, lifecycle.LockTimeout+2*time.Second).Should(Receive(Equal(1)))
	})
})
