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

package node

import (
	"context"
	"sync"
	"time"

	"github.com/nabbar/ndbtransport/adaptive"
	"github.com/nabbar/ndbtransport/connstats"
	liberr "github.com/nabbar/ndbtransport/errors"
	"github.com/nabbar/ndbtransport/mailbox"
	"github.com/nabbar/ndbtransport/pagepool"
	"github.com/nabbar/ndbtransport/pollset"
	"github.com/nabbar/ndbtransport/recvengine"
	"github.com/nabbar/ndbtransport/sendengine"
	"github.com/nabbar/ndbtransport/sockconn"
	"github.com/nabbar/ndbtransport/threadpool"
	"github.com/nabbar/ndbtransport/wire"
)

// Directory is the two-level (cluster_id, node_id) lookup fixed at
// construction time (spec §9's second Open Question): both indices are
// uint8, so a flat 256x256 array of pointers covers every possible peer
// with no resizing and no lookup contention.
type Directory struct {
	peers [256][256]*Peer

	pool      *threadpool.Pool
	poll      *pollset.Set
	onFailure FailureFunc

	mu          sync.Mutex
	stopOrdered bool
}

// NewDirectory builds an empty Directory. pool is the shared thread
// pool that hosts every peer's send-helper thread plus the directory's
// own receive-pump thread; poll is the readiness multiplexer receive
// threads block on.
func NewDirectory(pool *threadpool.Pool, poll *pollset.Set, onFailure FailureFunc) *Directory {
	return &Directory{pool: pool, poll: poll, onFailure: onFailure}
}

// Get returns the peer configured for (cluster_id, node_id), or false
// if none was added.
func (d *Directory) Get(clusterID, nodeID uint8) (*Peer, bool) {
	p := d.peers[clusterID][nodeID]
	return p, p != nil
}

// AddPeerParams bundles the per-peer construction arguments (spec §3's
// Peer Receive/Send State, built once per connection).
type AddPeerParams struct {
	ID             PeerID
	Conn           *sockconn.Connection
	RecvPool       *pagepool.Pool
	DescPool       *pagepool.Pool
	Registry       *mailbox.Registry
	Order          wire.ByteOrder
	BatchN         int
	Adaptive       *adaptive.Controller
	Stats          *connstats.Stats
	SendMaxBytes   int
	SendMaxBuffers int
	WriteDeadline  time.Duration
}

// AddPeer constructs a Peer from an already-connected or -accepted
// connection, registers its file descriptor with the poll set, and
// indexes it for later Get/Send lookups. Must not be called twice for
// the same (cluster_id, node_id).
func (d *Directory) AddPeer(params AddPeerParams) (*Peer, liberr.Error) {
	if d.peers[params.ID.ClusterID][params.ID.NodeID] != nil {
		return nil, ErrorAlreadyRegistered.Error(nil)
	}

	np := &Peer{id: params.ID, conn: params.Conn, up: true}

	np.recv = recvengine.NewPeer(
		recvengine.PeerID(params.ID), params.Conn, params.Order,
		params.RecvPool, params.DescPool, params.Registry, params.Stats, params.BatchN,
		func(_ recvengine.PeerID, cause liberr.Error) { np.markDown(cause, d.onFailure) },
	)

	np.send = sendengine.NewPeer(
		sendengine.PeerID(params.ID), params.Conn, params.Stats, params.Adaptive, d.pool,
		params.SendMaxBytes, params.SendMaxBuffers, params.WriteDeadline,
		func(_ sendengine.PeerID, cause liberr.Error) { np.markDown(cause, d.onFailure) },
	)

	fd, e := params.Conn.FD()
	if e != nil {
		return nil, ErrorNoDescriptor.Error(e)
	}

	if e := d.poll.Add(fd, np); e != nil {
		return nil, ErrorRegisterFailed.Error(e)
	}

	d.peers[params.ID.ClusterID][params.ID.NodeID] = np
	return np, nil
}

// Start admits the directory's receive-pump thread (it blocks in the
// poll set and calls PumpOnce for whichever peers become readable,
// exactly the "one receive thread per receive-set" design of spec §2)
// and its adjustment-ticker thread, which runs every peer's adaptive
// controller through its periodic Adjustment step (spec §4.6) once per
// adjustInterval. adjustInterval <= 0 disables the ticker, which is
// only ever appropriate in tests that drive Adjust by hand.
func (d *Directory) Start(pollTimeoutMs int, adjustInterval time.Duration) liberr.Error {
	if e := d.pool.Go(context.Background(), func() { d.servePoll(pollTimeoutMs) }); e != nil {
		return e
	}
	if adjustInterval <= 0 {
		return nil
	}
	return d.pool.Go(context.Background(), func() { d.serveAdjust(adjustInterval) })
}

func (d *Directory) servePoll(timeoutMs int) {
	for {
		d.mu.Lock()
		stop := d.stopOrdered
		d.mu.Unlock()
		if stop {
			return
		}

		n, e := d.poll.Check(timeoutMs)
		if e != nil {
			continue
		}

		for i := 0; i < n; i++ {
			reg, ok := d.poll.NextReady()
			if !ok {
				break
			}
			if peer, ok := reg.Object.(*Peer); ok {
				_ = peer.PumpOnce()
			}
		}
	}
}

func (d *Directory) serveAdjust(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for range t.C {
		d.mu.Lock()
		stop := d.stopOrdered
		d.mu.Unlock()
		if stop {
			return
		}

		for c := 0; c < 256; c++ {
			for n := 0; n < 256; n++ {
				if p := d.peers[c][n]; p != nil {
					p.AdjustWindow()
				}
			}
		}
	}
}

// Shutdown implements spec §4.7's full shutdown: stop_ordered is set on
// every peer, each peer's connection is closed so its receive thread
// unblocks, send-helper threads are signalled to exit without draining,
// and finally every admitted thread is joined via the shared pool.
func (d *Directory) Shutdown() {
	d.mu.Lock()
	d.stopOrdered = true
	d.mu.Unlock()

	for c := 0; c < 256; c++ {
		for n := 0; n < 256; n++ {
			if p := d.peers[c][n]; p != nil {
				p.stop()
			}
		}
	}

	d.pool.Join()
}
