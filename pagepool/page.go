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

// Package pagepool implements the fixed-size page free list shared by
// the receive and send paths: a single global mutex plus unshared
// per-thread caches, batched transfer between the two, and an atomic
// per-page refcount so one buffer can back several signal descriptors.
package pagepool

import "sync/atomic"

// Page is a fixed-size buffer carrying a back-pointer to its owning
// Pool, a forward link for intrusive free/pending lists, a payload
// length, and an atomic reference count. A page is either on exactly
// one free list or has refcount >= 1 and is reachable from exactly one
// owner (receive state, send queue, or an application thread's inbox).
type Page struct {
	next      *Page
	owner     *Pool
	poolID    uint32
	buf       []byte
	length    int
	refs      int32
	piggyback *Page
}

// PoolID reports the identity of the pool that carved this page,
// stamped at grow time and checked by Pool.Release against whichever
// pool it is handed back to (spec §4.1 wrong-pool detection).
func (p *Page) PoolID() uint32 { return p.poolID }

// SetPiggyback attaches a companion page, usually acquired from another
// pool, as this page's payload buffer. Used only by pools whose
// logical page size is zero (signal descriptors doubling as piggyback
// buffers); when this page is released, the companion is released
// through its own refcount and returns to its own pool (spec §4.1).
func (p *Page) SetPiggyback(companion *Page) { p.piggyback = companion }

// Buf returns the page's backing buffer, sized to its pool's page size.
func (p *Page) Buf() []byte { return p.buf }

// Len returns the payload length currently stored in the page.
func (p *Page) Len() int { return p.length }

// SetLen sets the payload length. Callers own the page exclusively
// while they are filling it, so no lock is needed here.
func (p *Page) SetLen(n int) { p.length = n }

// Pool reports the page's owning pool.
func (p *Page) Pool() *Pool { return p.owner }

// Retain increments the page's reference count. Used whenever a second
// signal descriptor starts referencing an already-dispatched page.
func (p *Page) Retain() {
	atomic.AddInt32(&p.refs, 1)
}

// Release decrements the reference count and, if it reaches zero,
// returns the page to its owning pool. Returns true if this call was
// the one that freed the page.
func (p *Page) Release() bool {
	if atomic.AddInt32(&p.refs, -1) == 0 {
		p.owner.release(p)
		return true
	}
	return false
}

// Next/SetNext expose the intrusive link for list splicing by the
// Pool and by callers building per-wake signal chains (recvengine)
// and per-peer outgoing lists (sendengine).
func (p *Page) Next() *Page      { return p.next }
func (p *Page) SetNext(n *Page)  { p.next = n }
