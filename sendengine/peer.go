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

// Package sendengine implements the outgoing half of spec §4.5: the
// per-peer "detach a writev window, consult the adaptive controller,
// write" cycle, with a helper thread that drains whatever a busy sender
// could not flush inline. It depends on pagepool, sockconn, connstats,
// adaptive and threadpool, and must not import node (node depends on
// sendengine, not the reverse).
package sendengine

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/nabbar/ndbtransport/adaptive"
	"github.com/nabbar/ndbtransport/connstats"
	liberr "github.com/nabbar/ndbtransport/errors"
	"github.com/nabbar/ndbtransport/pagepool"
	"github.com/nabbar/ndbtransport/sockconn"
	"github.com/nabbar/ndbtransport/threadpool"
)

// Default bounds for one writev window (spec §4.5, "MAX_SEND_SIZE /
// MAX_SEND_BUFFERS"); these are algorithmic tuning, not per-deployment
// configuration, so they live here rather than in config.PoolTuning.
const (
	DefaultMaxSendBytes   = 256 * 1024
	DefaultMaxSendBuffers = 64
)

// PeerID identifies a send peer by its (cluster_id, node_id) pair.
// Defined locally, not imported from node, to respect the dependency
// order in spec §2 (node depends on sendengine, not the reverse).
type PeerID struct {
	ClusterID uint8
	NodeID    uint8
}

// FailureFunc reports a peer send failure upward for node-failure
// handling (spec §4.7).
type FailureFunc func(PeerID, liberr.Error)

// Peer is the per-connection outgoing state: spec §3's SendPeer plus
// the adaptive controller it drives. Send and the helper loop share mu;
// the adaptive Controller has no lock of its own by design (see the
// adaptive package doc).
type Peer struct {
	id     PeerID
	conn   *sockconn.Connection
	stats  *connstats.Stats
	ctrl   *adaptive.Controller
	pool   *threadpool.Pool
	onFail FailureFunc

	maxSendBytes   int
	maxSendBuffers int
	writeDeadline  time.Duration

	mu   sync.Mutex
	cond *sync.Cond

	head, tail *pagepool.Page
	queuedBytes int

	sendActive   bool
	helperWanted bool
	helperRunning bool
	nodeUp       bool
	stopOrdered  bool
}

// NewPeer builds a Peer ready to send. maxSendBytes/maxSendBuffers of
// zero fall back to the package defaults.
func NewPeer(id PeerID, conn *sockconn.Connection, stats *connstats.Stats, ctrl *adaptive.Controller, pool *threadpool.Pool, maxSendBytes, maxSendBuffers int, writeDeadline time.Duration, onFail FailureFunc) *Peer {
	if maxSendBytes <= 0 {
		maxSendBytes = DefaultMaxSendBytes
	}
	if maxSendBuffers <= 0 {
		maxSendBuffers = DefaultMaxSendBuffers
	}

	p := &Peer{
		id:             id,
		conn:           conn,
		stats:          stats,
		ctrl:           ctrl,
		pool:           pool,
		onFail:         onFail,
		maxSendBytes:   maxSendBytes,
		maxSendBuffers: maxSendBuffers,
		writeDeadline:  writeDeadline,
		nodeUp:         true,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// ID reports the peer's identity.
func (p *Peer) ID() PeerID { return p.id }

// Send implements spec §4.5's send(peer, first_page, force_send_flag).
// The caller passes the head of an already-linked page chain (via
// Page.Next/SetNext); Send takes ownership of it.
func (p *Peer) Send(first *pagepool.Page, force bool) liberr.Error {
	if first == nil {
		return nil
	}

	// Pre-compute the chain's tail and total length outside the mutex
	// (spec §4.5 step 1): this walk never touches shared state.
	last, total := lastAndTotal(first)
	now := time.Now().UnixNano()

	p.mu.Lock()

	if !p.nodeUp {
		p.mu.Unlock()
		return ErrorNodeDown.Error(nil)
	}

	p.appendLocked(first, last, total)
	p.ctrl.RecordArrival(now)

	if p.sendActive {
		// Another thread is already sending or about to: this arrival
		// just joins the queue (spec §4.5 step 2d, "Peer send exclusion").
		p.mu.Unlock()
		return nil
	}

	p.sendActive = true
	vecHead, vecBytes := p.detachLocked()

	if !force && !p.ctrl.Decide(now) {
		// Hold: pin the detached window back on the peer for the helper
		// thread (or a later timeout) to flush, keeping send_active true
		// so no second thread starts a concurrent write.
		p.prependLocked(vecHead, vecBytes)
		p.mu.Unlock()
		time.AfterFunc(time.Duration(p.ctrl.MaxWaitNanos()), p.flushPending)
		return nil
	}

	p.mu.Unlock()
	return p.writeAndFinish(vecHead)
}

// flushPending is the deferred-send timeout: if the peer is still
// holding a pinned window when the adaptive bound elapses, write it now
// rather than wait indefinitely for another arrival to tip the count.
func (p *Peer) flushPending() {
	p.mu.Lock()
	if !p.sendActive || !p.nodeUp || p.head == nil {
		p.mu.Unlock()
		return
	}
	vecHead, _ := p.detachLocked()
	p.mu.Unlock()

	if vecHead != nil {
		_ = p.writeAndFinish(vecHead)
	}
}

// writeAndFinish performs the writev outside the mutex (spec §4.5 step
// 3), accounts the result, releases the written pages, and runs the
// send-done critical section (step 4).
func (p *Peer) writeAndFinish(vecHead *pagepool.Page) liberr.Error {
	bufs, pages := collectBuffers(vecHead)

	_, werr := p.conn.WriteVector(bufs, p.writeDeadline)

	if p.stats != nil {
		if werr != nil {
			p.stats.RecordSendError()
		} else {
			for _, pg := range pages {
				p.stats.RecordSend(pg.Len())
			}
		}
	}

	for _, pg := range pages {
		pg.SetNext(nil)
		pg.Release()
	}

	if werr != nil {
		p.fail(werr)
		return ErrorNodeDown.Error(werr)
	}

	return p.sendDone()
}

// sendDone is spec §4.5 step 4: if more arrived while sending, hand off
// to the helper thread; otherwise clear send_active.
func (p *Peer) sendDone() liberr.Error {
	p.mu.Lock()
	if !p.nodeUp {
		p.mu.Unlock()
		return ErrorNodeDown.Error(nil)
	}

	if p.head != nil {
		p.helperWanted = true
		p.mu.Unlock()
		p.wakeHelper()
		return nil
	}

	p.sendActive = false
	p.cond.Broadcast()
	p.mu.Unlock()
	return nil
}

// wakeHelper ensures exactly one helper goroutine is running for this
// peer, admitted through the shared thread pool (spec §4.7's "helper
// thread" per SendPeer).
func (p *Peer) wakeHelper() {
	p.mu.Lock()
	if p.helperRunning {
		p.cond.Broadcast()
		p.mu.Unlock()
		return
	}
	p.helperRunning = true
	p.mu.Unlock()

	if e := p.pool.Go(context.Background(), p.helperLoop); e != nil {
		p.mu.Lock()
		p.helperRunning = false
		p.mu.Unlock()
	}
}

// helperLoop drains the outgoing queue until it is empty, the peer is
// stopped, or the node goes down, then exits (spec §4.7, "signal the
// helper thread without joining it" on partial shutdown).
func (p *Peer) helperLoop() {
	for {
		p.mu.Lock()
		for !p.helperWanted && !p.stopOrdered && p.sendActive && p.nodeUp {
			p.cond.Wait()
		}

		if p.stopOrdered || !p.sendActive || !p.nodeUp {
			p.helperRunning = false
			p.mu.Unlock()
			return
		}

		p.helperWanted = false
		vecHead, _ := p.detachLocked()
		p.mu.Unlock()

		if vecHead == nil {
			p.mu.Lock()
			p.sendActive = false
			p.helperRunning = false
			p.cond.Broadcast()
			p.mu.Unlock()
			return
		}

		_ = p.writeAndFinish(vecHead)
	}
}

// fail marks the peer down, drains and releases the outgoing queue, and
// reports upward (spec §4.7's node-failure handling).
func (p *Peer) fail(cause liberr.Error) {
	p.mu.Lock()
	p.nodeUp = false
	head := p.head
	p.head, p.tail, p.queuedBytes = nil, nil, 0
	p.cond.Broadcast()
	p.mu.Unlock()

	for pg := head; pg != nil; {
		next := pg.Next()
		pg.SetNext(nil)
		pg.Release()
		pg = next
	}

	if p.onFail != nil {
		p.onFail(p.id, cause)
	}
}

// AdjustWindow runs the adaptive controller's periodic Adjustment step
// (spec §4.6), called once per statistics window by the directory's
// adjustment-ticker thread. Guarded by p.mu since the controller holds
// no lock of its own.
func (p *Peer) AdjustWindow() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctrl.Adjust()
}

// MarkDown marks the peer down from an external trigger — typically
// the receive side observing the same connection fail — and drains its
// outgoing queue without attempting a write (spec §4.7, node-failure
// handling is symmetric across both halves of a peer).
func (p *Peer) MarkDown(cause liberr.Error) {
	p.fail(cause)
}

// Stop orders the helper thread to exit without waiting for the queue
// to drain (spec §4.7, full shutdown sets stop_ordered on every peer
// before joining). The caller joins via the shared threadpool.Pool.
func (p *Peer) Stop() {
	p.mu.Lock()
	p.stopOrdered = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// NodeUp reports whether this peer currently accepts sends.
func (p *Peer) NodeUp() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nodeUp
}

// QueuedBytes reports the number of bytes currently queued but not yet
// written, for overload/backpressure observability.
func (p *Peer) QueuedBytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queuedBytes
}

func lastAndTotal(first *pagepool.Page) (*pagepool.Page, int) {
	total := 0
	var last *pagepool.Page
	for cur := first; cur != nil; cur = cur.Next() {
		total += cur.Len()
		last = cur
	}
	return last, total
}

func (p *Peer) appendLocked(first, last *pagepool.Page, total int) {
	if p.tail == nil {
		p.head = first
	} else {
		p.tail.SetNext(first)
	}
	p.tail = last
	p.queuedBytes += total
}

// detachLocked unlinks up to maxSendBuffers pages / maxSendBytes bytes
// from the head of the outgoing list and returns them as an independent
// chain (spec §4.5 step 2b, "detach up to MAX_SEND_SIZE bytes / MAX_SEND_BUFFERS
// pages"). Always detaches at least one page if the queue is non-empty,
// even if that single page already exceeds the byte bound.
func (p *Peer) detachLocked() (*pagepool.Page, int) {
	if p.head == nil {
		return nil, 0
	}

	var headOut, tailOut *pagepool.Page
	count, bytes := 0, 0
	cur := p.head

	for cur != nil && (count == 0 || (count < p.maxSendBuffers && bytes < p.maxSendBytes)) {
		next := cur.Next()
		if headOut == nil {
			headOut = cur
		} else {
			tailOut.SetNext(cur)
		}
		tailOut = cur
		bytes += cur.Len()
		count++
		cur = next
	}

	tailOut.SetNext(nil)
	p.head = cur
	if p.head == nil {
		p.tail = nil
	}
	p.queuedBytes -= bytes

	return headOut, bytes
}

// prependLocked re-attaches a previously detached window to the front
// of the outgoing list, ahead of anything queued while it was held.
func (p *Peer) prependLocked(head *pagepool.Page, bytes int) {
	if head == nil {
		return
	}

	tail := head
	for tail.Next() != nil {
		tail = tail.Next()
	}

	tail.SetNext(p.head)
	p.head = head
	if p.tail == nil {
		p.tail = tail
	}
	p.queuedBytes += bytes
}

func collectBuffers(head *pagepool.Page) (net.Buffers, []*pagepool.Page) {
	var bufs net.Buffers
	var pages []*pagepool.Page
	for pg := head; pg != nil; pg = pg.Next() {
		bufs = append(bufs, pg.Buf()[:pg.Len()])
		pages = append(pages, pg)
	}
	return bufs, pages
}
