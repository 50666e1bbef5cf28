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

package pagepool

import (
	"sync"
	"sync/atomic"
	"time"

	liberr "github.com/nabbar/ndbtransport/errors"
)

// nextPoolID hands out the process-wide identity stamped onto every
// page a Pool carves, so a page can be traced back to its producing
// pool independent of the owner pointer itself.
var nextPoolID uint32

// LocalList is a thread-local free list: no lock is required since it
// is never shared across goroutines (mirrors the free_pages argument
// threaded through the original allocator's acquire calls).
type LocalList struct {
	head *Page
	n    int
}

// Pop removes and returns the head of the local list, or nil if empty.
func (l *LocalList) Pop() *Page {
	if l.head == nil {
		return nil
	}
	p := l.head
	l.head = p.next
	p.next = nil
	l.n--
	return p
}

// Push prepends a page onto the local list.
func (l *LocalList) Push(p *Page) {
	p.next = l.head
	l.head = p
	l.n++
}

// Len reports how many pages currently sit in the local list.
func (l *LocalList) Len() int { return l.n }

// Pool is a global free list of uniform-size pages guarded by one
// mutex, with bounded growth: at most MaxSegments backing segments of
// SegmentPages pages each. Two pools exist per node: the receive-buffer
// pool and the signal-descriptor pool (config.PoolTuning).
type Pool struct {
	mu sync.Mutex

	id           uint32
	pageSize     int
	segmentPages int
	maxSegments  int

	segments int
	free     *Page
	freeLen  int
}

// New builds an empty Pool and grows it by one segment immediately, so
// the first acquire never pays the growth cost.
func New(pageSize, segmentPages, maxSegments int) (*Pool, liberr.Error) {
	p := &Pool{
		id:           atomic.AddUint32(&nextPoolID, 1),
		pageSize:     pageSize,
		segmentPages: segmentPages,
		maxSegments:  maxSegments,
	}

	if e := p.grow(); e != nil {
		return nil, e
	}

	return p, nil
}

// grow allocates another backing segment of segmentPages pages and
// splices them onto the global free list. Fails with ErrorSegmentCap
// if the per-pool segment count would exceed maxSegments.
func (p *Pool) grow() liberr.Error {
	if p.segments >= p.maxSegments {
		return ErrorSegmentCap.Error(nil)
	}

	for i := 0; i < p.segmentPages; i++ {
		pg := &Page{owner: p, poolID: p.id, buf: make([]byte, p.pageSize)}
		pg.next = p.free
		p.free = pg
		p.freeLen++
	}

	p.segments++
	return nil
}

// Acquire returns one page. If local is non-empty it pops from it with
// no lock. Otherwise, under the pool mutex, it unlinks up to batchN
// pages from the global free list into local and returns one; if the
// global list is empty and the pool has room to grow, it allocates
// another segment first.
func (p *Pool) Acquire(local *LocalList, batchN int) (*Page, liberr.Error) {
	if pg := local.Pop(); pg != nil {
		pg.refs = 1
		return pg, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.freeLen == 0 {
		if e := p.grow(); e != nil {
			return nil, ErrorOutOfMemory.Error(e)
		}
	}

	n := batchN
	if n > p.freeLen {
		n = p.freeLen
	}

	for i := 0; i < n; i++ {
		pg := p.free
		p.free = pg.next
		pg.next = nil
		p.freeLen--
		local.Push(pg)
	}

	if pg := local.Pop(); pg != nil {
		pg.refs = 1
		return pg, nil
	}

	return nil, ErrorOutOfMemory.Error(nil)
}

// AcquireWait is Acquire but busy-polls with short sleeps until
// timeout elapses, for callers willing to wait on transient exhaustion
// rather than fail immediately (spec §4.1 acquire_wait).
func (p *Pool) AcquireWait(local *LocalList, batchN int, timeout time.Duration) (*Page, liberr.Error) {
	deadline := time.Now().Add(timeout)
	const pollInterval = 2 * time.Millisecond

	for {
		pg, e := p.Acquire(local, batchN)
		if e == nil {
			return pg, nil
		}

		if time.Now().After(deadline) {
			return nil, e
		}

		time.Sleep(pollInterval)
	}
}

// Release splices the argument, treated as a linked list, into the
// global free list under the mutex. Every page in the list must carry
// this pool's id; a page produced by a different pool is a programmer
// error (a descriptor handed to the wrong pool's release path) and is
// reported as ErrorWrongPool instead of being spliced in, since
// accepting it would silently corrupt both pools' free lists.
func (p *Pool) Release(head *Page) liberr.Error {
	if head == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tail := head
	n := 1
	for pg := head; pg != nil; pg = pg.next {
		if pg.poolID != p.id {
			return ErrorWrongPool.Error(nil)
		}
		tail = pg
		if pg.next != nil {
			n++
		}
	}

	tail.next = p.free
	p.free = head
	p.freeLen += n
	return nil
}

// release is called by Page.Release when a refcount drops to zero. A
// pool whose logical page size is zero holds signal descriptors that
// piggyback a receive page carved from a different pool; releasing one
// drops its hold on the companion through the companion's own
// refcount rather than splicing it straight into a free list, since
// other descriptors carved from the same wake may still hold
// outstanding references to it. Only the companion's own refcount
// reaching zero returns it to its producing pool.
func (p *Pool) release(pg *Page) {
	if pg.piggyback != nil {
		companion := pg.piggyback
		pg.piggyback = nil
		companion.Release()
	}

	pg.next = nil
	pg.length = 0
	p.Release(pg)
}

// FreeLen reports the number of pages currently on the global free
// list, for pool-conservation checks and tests.
func (p *Pool) FreeLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freeLen
}

// Segments reports how many backing segments have been allocated.
func (p *Pool) Segments() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.segments
}
