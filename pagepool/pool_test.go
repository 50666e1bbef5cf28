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

package pagepool_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/ndbtransport/pagepool"
)

var _ = Describe("Pool", func() {
	It("acquires and releases preserving total page count (pool conservation)", func() {
		p, e := pagepool.New(128, 4, 2)
		Expect(e).ToNot(HaveOccurred())

		before := p.FreeLen()

		var local pagepool.LocalList
		pg, e := p.Acquire(&local, 2)
		Expect(e).ToNot(HaveOccurred())
		Expect(pg).ToNot(BeNil())

		pg.Release()
		Expect(p.FreeLen() + local.Len()).To(Equal(before))
	})

	It("grows a new segment when the free list is exhausted", func() {
		p, e := pagepool.New(64, 1, 2)
		Expect(e).ToNot(HaveOccurred())

		var local pagepool.LocalList
		_, e = p.Acquire(&local, 1)
		Expect(e).ToNot(HaveOccurred())
		Expect(p.Segments()).To(Equal(1))

		_, e = p.Acquire(&local, 1)
		Expect(e).ToNot(HaveOccurred())
		Expect(p.Segments()).To(Equal(2))
	})

	It("fails once the segment cap is reached", func() {
		p, e := pagepool.New(64, 1, 1)
		Expect(e).ToNot(HaveOccurred())

		var local pagepool.LocalList
		for i := 0; i < 5; i++ {
			_, _ = p.Acquire(&local, 1)
		}

		_, e = p.Acquire(&local, 1)
		Expect(e).To(HaveOccurred())
	})

	It("releases a page exactly once when refcount drops from 1 to 0", func() {
		p, _ := pagepool.New(64, 4, 2)
		var local pagepool.LocalList
		pg, _ := p.Acquire(&local, 2)

		pg.Retain()
		Expect(pg.Release()).To(BeFalse())
		Expect(pg.Release()).To(BeTrue())
	})

	It("acquire_wait returns a page once another thread releases one", func() {
		p, _ := pagepool.New(64, 1, 1)

		var local pagepool.LocalList
		held, _ := p.Acquire(&local, 1)

		go func() {
			time.Sleep(20 * time.Millisecond)
			held.Release()
		}()

		var waiter pagepool.LocalList
		pg, e := p.AcquireWait(&waiter, 1, time.Second)
		Expect(e).ToNot(HaveOccurred())
		Expect(pg).ToNot(BeNil())
	})

	It("rejects a page carved by a different pool instead of corrupting its free list", func() {
		a, _ := pagepool.New(64, 2, 2)
		b, _ := pagepool.New(64, 2, 2)

		var local pagepool.LocalList
		pg, _ := a.Acquire(&local, 1)

		Expect(b.Release(pg)).To(HaveOccurred())
	})

	It("returns a descriptor's piggybacked page to its own pool only once every reference is gone", func() {
		recvPool, _ := pagepool.New(64, 2, 2)
		descPool, _ := pagepool.New(0, 2, 2)

		var recvLocal, descLocal pagepool.LocalList
		recvPg, _ := recvPool.Acquire(&recvLocal, 1)
		desc, _ := descPool.Acquire(&descLocal, 1)

		recvBefore := recvPool.FreeLen()
		descBefore := descPool.FreeLen()

		recvPg.Retain()
		desc.SetPiggyback(recvPg)

		// the receive pump's own reference is released first, as PumpOnce
		// does once it moves on to a new in-flight page; the piggybacked
		// descriptor still holds one, so the page must not come back yet.
		recvPg.Release()
		Expect(recvPool.FreeLen()).To(Equal(recvBefore))

		desc.Release()

		Expect(recvPool.FreeLen()).To(Equal(recvBefore + 1))
		Expect(descPool.FreeLen()).To(Equal(descBefore + 1))
	})
})
