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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/ndbtransport/mailbox"
	"github.com/nabbar/ndbtransport/pagepool"
	"github.com/nabbar/ndbtransport/wire"
)

func newTestSignal(pool, descPool *pagepool.Pool, local, localDesc *pagepool.LocalList, n uint16) *mailbox.Signal {
	pg, _ := pool.Acquire(local, 4)
	desc, _ := descPool.Acquire(localDesc, 4)
	desc.SetPiggyback(pg)
	hdr := wire.Header{LengthWords: wire.MinHeaderWords, SignalNumber: n, ReceiverModule: 32768}
	hdr.Encode(pg.Buf())
	return mailbox.NewSignal(desc, pg, 0, hdr, wire.SegmentLengths{})
}

var _ = Describe("AppInbox", func() {
	It("delivers posted chains in FIFO arrival order", func() {
		pool, _ := pagepool.New(64, 4, 4)
		descPool, _ := pagepool.New(0, 4, 4)
		var local, localDesc pagepool.LocalList

		box := mailbox.NewAppInbox(32768)

		s1 := newTestSignal(pool, descPool, &local, &localDesc, 1)
		s2 := newTestSignal(pool, descPool, &local, &localDesc, 2)
		s1.Next = s2

		box.Post(s1, s2, 2)

		chain, e := box.Poll(time.Second)
		Expect(e).To(BeNil())
		Expect(chain.Header.SignalNumber).To(Equal(uint16(1)))
		Expect(chain.Next.Header.SignalNumber).To(Equal(uint16(2)))
		Expect(chain.Next.Next).To(BeNil())
	})

	It("returns ErrorTimeout when nothing arrives in time", func() {
		box := mailbox.NewAppInbox(32768)
		_, e := box.Poll(20 * time.Millisecond)
		Expect(e).ToNot(BeNil())
	})

	It("marks itself slow once the overload threshold is exceeded", func() {
		pool, _ := pagepool.New(64, mailbox.OverloadThreshold+8, 2)
		descPool, _ := pagepool.New(0, mailbox.OverloadThreshold+8, 2)
		var local, localDesc pagepool.LocalList

		box := mailbox.NewAppInbox(32768)
		Expect(box.IsSlow()).To(BeFalse())

		head := newTestSignal(pool, descPool, &local, &localDesc, 0)
		tail := head
		for i := 0; i < mailbox.OverloadThreshold; i++ {
			s := newTestSignal(pool, descPool, &local, &localDesc, 0)
			tail.Next = s
			tail = s
		}

		box.Post(head, tail, mailbox.OverloadThreshold+1)
		Expect(box.IsSlow()).To(BeTrue())
	})
})

var _ = Describe("Registry", func() {
	It("creates a mailbox on first reference and reuses it afterward", func() {
		reg := mailbox.NewRegistry()
		a := reg.Get(32768)
		b := reg.Get(32768)
		Expect(a).To(BeIdenticalTo(b))
		Expect(reg.All()).To(HaveLen(1))
	})
})
