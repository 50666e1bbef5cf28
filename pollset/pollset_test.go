/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package pollset_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/ndbtransport/pollset"
)

var _ = Describe("Set", func() {
	It("accepts a registration and returns NotFound on an unregistered fd", func() {
		s, e := pollset.New()
		Expect(e).ToNot(HaveOccurred())
		defer s.Close()

		r, w, e2 := os.Pipe()
		Expect(e2).ToNot(HaveOccurred())
		defer r.Close()
		defer w.Close()

		baseFD := int(r.Fd())

		// Register one real fd, then remove an fd that was never added.
		Expect(s.Add(baseFD, "reader")).ToNot(HaveOccurred())

		e3 := s.Remove(99999)
		Expect(e3).To(HaveOccurred())
	})

	It("drains NextReady exactly once per Check wave", func() {
		s, e := pollset.New()
		Expect(e).ToNot(HaveOccurred())
		defer s.Close()

		r, w, e2 := os.Pipe()
		Expect(e2).ToNot(HaveOccurred())
		defer r.Close()
		defer w.Close()

		Expect(s.Add(int(r.Fd()), "pipe")).ToNot(HaveOccurred())

		_, _ = w.Write([]byte("x"))

		n, e4 := s.Check(1000)
		Expect(e4).ToNot(HaveOccurred())
		Expect(n).To(BeNumerically(">=", 1))

		reg, ok := s.NextReady()
		Expect(ok).To(BeTrue())
		Expect(reg.Object).To(Equal("pipe"))

		_, ok = s.NextReady()
		Expect(ok).To(BeFalse())
	})
})
