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

// Package threadpool bounds the set of long-lived goroutines the
// transport keeps alive at once: one receive thread per receive-set,
// one send-helper thread per peer, and a small pool of application
// worker threads (spec §2, §5: "an OS-level thread pool with at
// least..."). Admission is through a weighted semaphore so a runaway
// fan-out of peers fails with ThreadPoolFull instead of spawning an
// unbounded number of goroutines.
package threadpool

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	liberr "github.com/nabbar/ndbtransport/errors"
)

// Pool admits and tracks worker goroutines up to a fixed capacity.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup

	muClosed sync.Mutex
	closed   bool
}

// New builds a Pool that admits at most capacity concurrent workers.
func New(capacity int) *Pool {
	return &Pool{sem: semaphore.NewWeighted(int64(capacity))}
}

// TryGo attempts to admit fn as a new worker without blocking. It
// returns ErrorPoolFull if no slot is free, or ErrorPoolClosed if
// Join has already been called.
func (p *Pool) TryGo(fn func()) liberr.Error {
	p.muClosed.Lock()
	closed := p.closed
	p.muClosed.Unlock()

	if closed {
		return ErrorPoolClosed.Error()
	}

	if !p.sem.TryAcquire(1) {
		return ErrorPoolFull.Error()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		fn()
	}()

	return nil
}

// Go admits fn as a new worker, blocking until a slot is free or ctx
// is done. Use this for threads the spec treats as mandatory (the
// receive thread for an already-accepted peer) rather than threads
// that may legitimately be refused (an application worker request).
func (p *Pool) Go(ctx context.Context, fn func()) liberr.Error {
	p.muClosed.Lock()
	closed := p.closed
	p.muClosed.Unlock()

	if closed {
		return ErrorPoolClosed.Error()
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return ErrorPoolFull.Error(err)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		fn()
	}()

	return nil
}

// Join marks the pool closed to new admissions and waits for every
// already-admitted worker to return. This is the "join them" step of
// full shutdown (spec §4.7).
func (p *Pool) Join() {
	p.muClosed.Lock()
	p.closed = true
	p.muClosed.Unlock()

	p.wg.Wait()
}
