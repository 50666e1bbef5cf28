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

package mailbox

import (
	"sync"
	"time"

	liberr "github.com/nabbar/ndbtransport/errors"
)

// OverloadThreshold is the queued-signal count above which an AppInbox
// is considered slow (spec §5, "Overload policy"): the receive side may
// repack its pages and the owning thread is denied new sends until it
// drains.
const OverloadThreshold = 4096

// AppInbox is one application thread's inbox (spec §3 "Thread
// Mailbox"): a mutex-protected FIFO list of signal descriptors plus a
// wake condition. The thread's own local page cache is not modeled
// here since it is pagepool.LocalList, owned directly by the thread's
// call site, not by the inbox.
type AppInbox struct {
	id uint16

	mu   sync.Mutex
	cond *sync.Cond

	head, tail *Signal
	count      int
	slow       bool
}

// NewAppInbox builds an empty inbox for the given mailbox id
// (spec's module ids >= wire.ModuleIDMailboxBase).
func NewAppInbox(id uint16) *AppInbox {
	b := &AppInbox{id: id}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// ID returns the mailbox's module id.
func (b *AppInbox) ID() uint16 { return b.id }

// Post splices a signal chain (head..tail, n elements) onto the inbox
// under its mutex, preserving the arrival order of the chain, then
// wakes one waiter.
func (b *AppInbox) Post(head, tail *Signal, n int) {
	if head == nil {
		return
	}

	b.mu.Lock()
	if b.tail == nil {
		b.head = head
	} else {
		b.tail.Next = head
	}
	b.tail = tail
	b.count += n
	if b.count > OverloadThreshold {
		b.slow = true
	}
	b.mu.Unlock()

	b.cond.Signal()
}

// Poll waits up to timeout for at least one signal, then detaches and
// returns the whole pending chain in FIFO order. Returns ErrorTimeout
// if nothing arrived in time.
func (b *AppInbox) Poll(timeout time.Duration) (*Signal, liberr.Error) {
	deadline := time.Now().Add(timeout)

	b.mu.Lock()
	defer b.mu.Unlock()

	for b.head == nil {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrorTimeout.Error(nil)
		}
		waitWithTimeout(b.cond, remaining)
	}

	head := b.head
	b.head, b.tail, b.count, b.slow = nil, nil, 0, false
	return head, nil
}

// IsSlow reports whether this inbox currently exceeds the overload
// threshold; callers use it to deny new sends to the owning thread
// until it drains (spec §5, "Overload policy").
func (b *AppInbox) IsSlow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.slow
}

// Len reports how many signals are currently queued.
func (b *AppInbox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// waitWithTimeout wakes cond.Wait() early if d elapses, by running the
// wait on the calling goroutine and the timer on a helper one that
// broadcasts once. sync.Cond has no native timed wait.
func waitWithTimeout(cond *sync.Cond, d time.Duration) {
	timer := time.AfterFunc(d, cond.Broadcast)
	defer timer.Stop()
	cond.Wait()
}
