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

package adaptive_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/ndbtransport/adaptive"
	"github.com/nabbar/ndbtransport/config"
)

var _ = Describe("Controller", func() {
	It("votes to send once num_waits reaches max_num_waits", func() {
		c := adaptive.New(config.AdaptiveTuning{MaxWaitNanos: 1_000_000, MaxSendsTracked: 64, MaxSendTimers: 128})

		// max_num_waits starts at 0, so the very first arrival already
		// satisfies num_waits >= max_num_waits: send now.
		Expect(c.Decide(1000)).To(BeTrue())
	})

	It("votes to wait once max_num_waits has been grown past zero", func() {
		c := adaptive.New(config.AdaptiveTuning{MaxWaitNanos: 1_000_000, MaxSendsTracked: 64, MaxSendTimers: 128})

		// Force growth: arrivals spaced well inside the latency budget,
		// each followed by an Adjust, should grow max_num_waits.
		now := int64(0)
		for i := 0; i < 200; i++ {
			now += 1_000 // 1us apart, well under the 1ms bound
			c.RecordArrival(now)
			c.Adjust()
		}
		Expect(c.MaxNumWaits()).To(BeNumerically(">", 0))

		Expect(c.Decide(now + 1)).To(BeFalse())
	})

	It("votes to send once the first buffered arrival exceeds max_wait_ns", func() {
		c := adaptive.New(config.AdaptiveTuning{MaxWaitNanos: 1_000_000, MaxSendsTracked: 64, MaxSendTimers: 128})

		now := int64(0)
		for i := 0; i < 200; i++ {
			now += 1_000
			c.RecordArrival(now)
			c.Adjust()
		}

		Expect(c.Decide(now)).To(BeFalse()) // starts a fresh batch, holds
		Expect(c.Decide(now + 2_000_000)).To(BeTrue())
	})

	It("keeps mean_curr within the bound after a full window with no further input", func() {
		c := adaptive.New(config.AdaptiveTuning{MaxWaitNanos: 1_000_000, MaxSendsTracked: 64, MaxSendTimers: 128})

		now := int64(0)
		for i := 0; i < 500; i++ {
			now += 5_000_000 // 5ms apart: far over the 1ms bound, drives max_num_waits to 0
			c.RecordArrival(now)
			c.Adjust()
		}

		limit := c.MaxWaitNanos() / 2
		Expect(c.MeanCurr()).To(BeNumerically("<=", limit+1))
	})
})
