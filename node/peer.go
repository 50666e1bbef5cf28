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

// Package node wires together a connection's receive and send halves
// into one lifecycle unit, and indexes every configured peer by
// (cluster_id, node_id) so application code never sees recvengine or
// sendengine directly (spec §2's dependency order: node depends on
// both engines, never the reverse).
package node

import (
	"sync"

	liberr "github.com/nabbar/ndbtransport/errors"
	"github.com/nabbar/ndbtransport/pagepool"
	"github.com/nabbar/ndbtransport/recvengine"
	"github.com/nabbar/ndbtransport/sendengine"
	"github.com/nabbar/ndbtransport/sockconn"
)

// PeerID identifies a node by its (cluster_id, node_id) pair (spec §9's
// second Open Question: directory[cluster_id][node_id], no grid_comm
// equivalent).
type PeerID struct {
	ClusterID uint8
	NodeID    uint8
}

// FailureFunc is invoked exactly once per peer the first time either
// its receive or send half fails, after the peer has been marked down.
type FailureFunc func(PeerID, liberr.Error)

// Peer is one connection's complete lifecycle state: the socket plus
// its receive and send engines. A failure observed on either half
// marks the whole peer down and is reported upward exactly once.
type Peer struct {
	id   PeerID
	conn *sockconn.Connection
	recv *recvengine.Peer
	send *sendengine.Peer

	mu       sync.Mutex
	up       bool
	reported bool
}

// ID reports the peer's identity.
func (p *Peer) ID() PeerID { return p.id }

// NodeUp reports whether the peer currently accepts sends and is still
// being serviced for receives.
func (p *Peer) NodeUp() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.up
}

// Send hands a page chain to the peer's send engine (spec §6's
// send(cluster_id, node_id, page_chain, force_send)).
func (p *Peer) Send(first *pagepool.Page, force bool) liberr.Error {
	return p.send.Send(first, force)
}

// PumpOnce runs one receive iteration; called by the directory's
// poll-driven receive thread when this peer's fd is readable.
func (p *Peer) PumpOnce() liberr.Error {
	return p.recv.PumpOnce()
}

// AdjustWindow runs the send engine's adaptive controller through its
// periodic Adjustment step (spec §4.6); called once per window by the
// directory's adjustment-ticker thread.
func (p *Peer) AdjustWindow() {
	p.send.AdjustWindow()
}

// markDown is shared by both the receive and send failure callbacks:
// whichever half fails first marks the peer down and reports upward;
// the other half's failure, if it follows, is swallowed here so
// FailureFunc fires exactly once per peer (spec §4.7).
func (p *Peer) markDown(cause liberr.Error, report FailureFunc) {
	p.mu.Lock()
	wasUp := p.up
	p.up = false
	shouldReport := !p.reported
	p.reported = true
	p.mu.Unlock()

	if wasUp {
		p.send.MarkDown(cause)
	}

	if shouldReport && report != nil {
		report(p.id, cause)
	}
}

// stop orders the send helper thread to exit without waiting for the
// outgoing queue to drain, and closes the connection so any thread
// blocked in a receive Read unblocks with an error (spec §4.7, partial
// shutdown: "signal the helper thread without joining it").
func (p *Peer) stop() {
	p.send.Stop()
	_ = p.conn.Close()
}
