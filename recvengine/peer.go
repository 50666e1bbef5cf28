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

// Package recvengine implements the stream-to-signal chunking loop of
// spec §4.4: one receive thread reads a peer's TCP byte stream into a
// pooled page, splits it into protocol signals as soon as a full header
// and body are present, and dispatches each signal to its destination
// mailbox without copying — except for the bytes of a signal that
// straddles two reads, which are copied once onto the new in-flight
// page.
package recvengine

import (
	"github.com/nabbar/ndbtransport/connstats"
	liberr "github.com/nabbar/ndbtransport/errors"
	"github.com/nabbar/ndbtransport/mailbox"
	"github.com/nabbar/ndbtransport/pagepool"
	"github.com/nabbar/ndbtransport/sockconn"
	"github.com/nabbar/ndbtransport/wire"
)

// PeerID identifies a (cluster, node) peer without recvengine needing
// to import the node package, which depends on recvengine rather than
// the reverse (spec §2, "Dependency order").
type PeerID struct {
	ClusterID uint8
	NodeID    uint8
}

// FailureFunc is invoked once, with the triggering error, whenever a
// peer's receive path hits EOF or a protocol error. The node package
// wires this to its node-failure-handling procedure (spec §4.7).
type FailureFunc func(PeerID, liberr.Error)

// Peer is the per-connection receive state (spec §3, "Peer Receive
// State" / RecvPeer): the current in-flight page, how many bytes of it
// are already valid, and whether the next header has been parsed.
type Peer struct {
	ID    PeerID
	conn  *sockconn.Connection
	order wire.ByteOrder

	recvPool *pagepool.Pool
	descPool *pagepool.Pool
	registry *mailbox.Registry
	stats    *connstats.Stats

	batchN    int
	onFailure FailureFunc

	localRecv pagepool.LocalList
	localDesc pagepool.LocalList

	inflight      *pagepool.Page
	bytesPresent  int
	headerParsed  bool
	pendingHeader wire.Header
}

// NewPeer builds receive state for one accepted/connected peer. descPool
// must be a pool built with page size zero: signal descriptors carry no
// payload of their own, they piggyback the receive page they reference
// (spec §4.1 release special case).
func NewPeer(id PeerID, conn *sockconn.Connection, order wire.ByteOrder, recvPool, descPool *pagepool.Pool, registry *mailbox.Registry, stats *connstats.Stats, batchN int, onFailure FailureFunc) *Peer {
	return &Peer{
		ID:        id,
		conn:      conn,
		order:     order,
		recvPool:  recvPool,
		descPool:  descPool,
		registry:  registry,
		stats:     stats,
		batchN:    batchN,
		onFailure: onFailure,
	}
}

// PumpOnce runs one iteration of the chunking loop (spec §4.4 steps
// 1-5) in response to the poll set reporting this peer's fd readable.
func (p *Peer) PumpOnce() liberr.Error {
	if p.inflight == nil {
		pg, e := p.recvPool.Acquire(&p.localRecv, p.batchN)
		if e != nil {
			return p.fail(ErrorOutOfMemory.Error(e))
		}
		p.inflight = pg
		p.bytesPresent = 0
		p.headerParsed = false
	}

	buf := p.inflight.Buf()
	room := len(buf) - p.bytesPresent
	if room <= 0 {
		return p.fail(ErrorProtocol.Error(nil))
	}

	n, rerr := p.conn.Read(buf[p.bytesPresent : p.bytesPresent+room])
	if rerr != nil {
		if p.stats != nil {
			p.stats.RecordReceiveError()
		}
		return p.fail(rerr)
	}
	p.bytesPresent += n
	if p.stats != nil {
		p.stats.RecordReceive(n)
	}

	var chainHead, chainTail *mailbox.Signal
	readPos := 0

	for p.bytesPresent >= wire.MinHeaderSize {
		if !p.headerParsed {
			hdr := wire.Decode(buf[readPos:readPos+wire.MinHeaderSize], p.order)
			if hdr.LengthWords < wire.MinHeaderWords || hdr.ByteLen() > len(buf) {
				return p.fail(ErrorProtocol.Error(nil))
			}
			p.pendingHeader = hdr
			p.headerParsed = true
		}

		signalSize := p.pendingHeader.ByteLen()
		if signalSize > p.bytesPresent {
			break
		}

		desc, e := p.descPool.Acquire(&p.localDesc, p.batchN)
		if e != nil {
			return p.fail(ErrorOutOfMemory.Error(e))
		}

		p.inflight.Retain()
		desc.SetPiggyback(p.inflight)

		sig := mailbox.NewSignal(desc, p.inflight, readPos, p.pendingHeader, wire.SegmentLengths{})
		if chainHead == nil {
			chainHead = sig
		} else {
			chainTail.Next = sig
		}
		chainTail = sig

		readPos += signalSize
		p.bytesPresent -= signalSize
		p.headerParsed = false
	}

	if p.bytesPresent > 0 {
		if chainHead != nil {
			newPg, e := p.recvPool.Acquire(&p.localRecv, p.batchN)
			if e != nil {
				// OutOfMemory on this carry-over allocation degrades to
				// NodeDown for this peer rather than crashing (spec §7).
				return p.fail(ErrorOutOfMemory.Error(e))
			}

			copy(newPg.Buf(), buf[readPos:readPos+p.bytesPresent])
			p.postChain(chainHead)

			p.inflight.Release()
			p.inflight = newPg
		}
		// else: no signals produced this wake, keep the same page; the
		// next read appends at bytesPresent (spec §4.4 step 4).
		return nil
	}

	if chainHead != nil {
		p.postChain(chainHead)
	}
	p.inflight.Release()
	p.inflight = nil
	return nil
}

// postChain groups a per-wake signal chain by destination mailbox,
// preserving arrival order within each group, and splices each group
// onto its mailbox. This is the directed resolution of spec §9's first
// Open Question: the original's posting code risked reversing order by
// linking onto the previous rather than subsequent page; here the chain
// is walked once, forward, appending to each group's tail.
func (p *Peer) postChain(head *mailbox.Signal) {
	type group struct {
		head, tail *mailbox.Signal
		n          int
	}

	groups := make(map[uint16]*group)
	var order []uint16

	for s := head; s != nil; {
		next := s.Next
		s.Next = nil

		id := s.Header.ReceiverModule
		g := groups[id]
		if g == nil {
			g = &group{}
			groups[id] = g
			order = append(order, id)
		}

		if g.head == nil {
			g.head = s
		} else {
			g.tail.Next = s
		}
		g.tail = s
		g.n++

		s = next
	}

	for _, id := range order {
		g := groups[id]
		p.registry.Get(id).Post(g.head, g.tail, g.n)
	}
}

// fail releases the in-flight page and reports the error to the
// failure callback; the caller still returns cause so a direct PumpOnce
// call can observe it synchronously.
func (p *Peer) fail(cause liberr.Error) liberr.Error {
	if p.inflight != nil {
		p.inflight.Release()
		p.inflight = nil
	}
	p.bytesPresent = 0
	p.headerParsed = false

	if p.onFailure != nil {
		p.onFailure(p.ID, cause)
	}

	return cause
}
