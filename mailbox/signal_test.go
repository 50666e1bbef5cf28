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

package mailbox_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/ndbtransport/mailbox"
	"github.com/nabbar/ndbtransport/pagepool"
	"github.com/nabbar/ndbtransport/wire"
)

var _ = Describe("Signal", func() {
	It("exposes exactly its own bytes as a window into the shared page", func() {
		pool, _ := pagepool.New(64, 2, 2)
		descPool, _ := pagepool.New(0, 2, 2)
		var local, localDesc pagepool.LocalList

		pg, _ := pool.Acquire(&local, 2)
		desc, _ := descPool.Acquire(&localDesc, 2)
		desc.SetPiggyback(pg)

		hdr := wire.Header{LengthWords: wire.MinHeaderWords, SignalNumber: 7}
		hdr.Encode(pg.Buf())

		sig := mailbox.NewSignal(desc, pg, 0, hdr, wire.SegmentLengths{})
		Expect(sig.Len()).To(Equal(wire.MinHeaderSize))
		Expect(len(sig.Bytes())).To(Equal(wire.MinHeaderSize))
	})

	It("releasing the descriptor cascades to release its piggybacked page", func() {
		pool, _ := pagepool.New(64, 2, 2)
		descPool, _ := pagepool.New(0, 2, 2)
		var local, localDesc pagepool.LocalList

		before := pool.FreeLen()

		pg, _ := pool.Acquire(&local, 2)
		desc, _ := descPool.Acquire(&localDesc, 2)
		desc.SetPiggyback(pg)

		sig := mailbox.NewSignal(desc, pg, 0, wire.Header{}, wire.SegmentLengths{})
		Expect(sig.Release()).To(BeTrue())
		Expect(pool.FreeLen() + local.Len()).To(Equal(before))
	})
})
