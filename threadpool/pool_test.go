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

package threadpool_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/ndbtransport/threadpool"
)

var _ = Describe("Pool", func() {
	It("admits up to capacity workers and refuses the next with ErrorPoolFull", func() {
		p := threadpool.New(2)

		block := make(chan struct{})
		var started sync.WaitGroup
		started.Add(2)

		for i := 0; i < 2; i++ {
			Expect(p.TryGo(func() {
				started.Done()
				<-block
			})).To(BeNil())
		}

		started.Wait()
		Expect(p.TryGo(func() {})).ToNot(BeNil())

		close(block)
		p.Join()
	})

	It("Go blocks until a slot frees rather than failing", func() {
		p := threadpool.New(1)

		release := make(chan struct{})
		Expect(p.TryGo(func() { <-release })).To(BeNil())

		done := make(chan struct{})
		go func() {
			_ = p.Go(context.Background(), func() {})
			close(done)
		}()

		select {
		case <-done:
			Fail("Go returned before a slot was free")
		case <-time.After(20 * time.Millisecond):
		}

		close(release)
		<-done
		p.Join()
	})

	It("refuses admission after Join with ErrorPoolClosed", func() {
		p := threadpool.New(4)
		p.Join()

		Expect(p.TryGo(func() {})).ToNot(BeNil())
	})
})
