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

package connstats_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/ndbtransport/connstats"
)

var _ = Describe("Stats", func() {
	It("accumulates bytes and buffer counts across concurrent recorders", func() {
		s := &connstats.Stats{}

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.RecordSend(100)
				s.RecordReceive(40)
			}()
		}
		wg.Wait()

		snap := s.Snapshot()
		Expect(snap.BytesSent).To(Equal(uint64(5000)))
		Expect(snap.BuffersSent).To(Equal(uint64(50)))
		Expect(snap.BytesReceived).To(Equal(uint64(2000)))
		Expect(snap.BuffersRecv).To(Equal(uint64(50)))
	})

	It("buckets buffer sizes into the exponential histogram", func() {
		s := &connstats.Stats{}
		s.RecordSend(10)   // < 32 -> bin 0
		s.RecordSend(50)   // < 64 -> bin 1
		s.RecordSend(1 << 20) // huge -> last bin

		snap := s.Snapshot()
		Expect(snap.SendHistogram[0]).To(Equal(uint64(1)))
		Expect(snap.SendHistogram[1]).To(Equal(uint64(1)))
		Expect(snap.SendHistogram[connstats.HistogramBins-1]).To(Equal(uint64(1)))
	})

	It("counts send/receive errors and timeouts independently", func() {
		s := &connstats.Stats{}
		s.RecordSendError()
		s.RecordSendTimeout()
		s.RecordReceiveError()

		snap := s.Snapshot()
		Expect(snap.SendErrors).To(Equal(uint64(1)))
		Expect(snap.SendTimeouts).To(Equal(uint64(1)))
		Expect(snap.RecvErrors).To(Equal(uint64(1)))
	})
})
