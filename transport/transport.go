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

// Package transport is the top-level facade named in spec §6's
// "Internal interfaces to collaborators": send(cluster_id, node_id,
// page_chain, force_send), poll_inbox(timeout), and return_page(page).
// It owns the two page pools, the poll set, the shared thread pool, the
// mailbox registry and the node directory, and is the only package an
// application-facing caller needs to import.
package transport

import (
	"time"

	"github.com/nabbar/ndbtransport/adaptive"
	"github.com/nabbar/ndbtransport/config"
	"github.com/nabbar/ndbtransport/connstats"
	liberr "github.com/nabbar/ndbtransport/errors"
	"github.com/nabbar/ndbtransport/logger"
	"github.com/nabbar/ndbtransport/mailbox"
	"github.com/nabbar/ndbtransport/node"
	"github.com/nabbar/ndbtransport/pagepool"
	"github.com/nabbar/ndbtransport/pollset"
	"github.com/nabbar/ndbtransport/sockconn"
	"github.com/nabbar/ndbtransport/threadpool"
	"github.com/nabbar/ndbtransport/tlsprofile"
	"github.com/nabbar/ndbtransport/wire"
)

// Transport is the constructed, ready-to-start transport core for one
// local node (spec §2's SYSTEM OVERVIEW).
type Transport struct {
	snap config.Snapshot
	log  *logger.Logger

	recvPool *pagepool.Pool
	descPool *pagepool.Pool
	pool     *threadpool.Pool
	poll     *pollset.Set
	registry *mailbox.Registry
	dir      *node.Directory
}

// New validates snap and builds the shared pools, poll set, thread pool
// and node directory. onFailure is invoked once per peer the first time
// either half of its connection fails (spec §4.7).
func New(snap config.Snapshot, log *logger.Logger, onFailure node.FailureFunc) (*Transport, liberr.Error) {
	if e := snap.Validate(); e != nil {
		return nil, e
	}

	recvPool, e := pagepool.New(int(snap.Pool.ReceivePageSize), int(snap.Pool.SegmentPageCount), int(snap.Pool.MaxSegments))
	if e != nil {
		return nil, e
	}

	// The signal-descriptor pool is a distinct, internally-managed pool
	// with logical page size zero: its pages never carry their own
	// payload, they piggyback whichever receive page produced them
	// (spec.md §4.1's release special case). config.PoolTuning.SignalPageSize
	// sizes a different, send-side signal-assembly concern and is never
	// passed here.
	descPool, e := pagepool.New(0, int(snap.Pool.SegmentPageCount), int(snap.Pool.MaxSegments))
	if e != nil {
		return nil, e
	}

	poll, e := pollset.New()
	if e != nil {
		return nil, e
	}

	pool := threadpool.New(threadPoolCapacity(snap))
	registry := mailbox.NewRegistry()
	dir := node.NewDirectory(pool, poll, onFailure)

	return &Transport{
		snap: snap, log: log,
		recvPool: recvPool, descPool: descPool,
		pool: pool, poll: poll, registry: registry, dir: dir,
	}, nil
}

// threadPoolCapacity sizes the shared pool: one receive-pump thread
// plus one send-helper thread per configured peer, with a little slack
// for application worker threads (spec §2's thread-budget table).
func threadPoolCapacity(snap config.Snapshot) int {
	n := len(snap.Peers)*2 + 4
	if n < 8 {
		n = 8
	}
	return n
}

// logDebug/logInfo/logError are nil-safe: Transport.New accepts a nil
// logger for callers (and tests) that don't want one.
func (t *Transport) logDebug(msg string) {
	if t.log != nil {
		t.log.Debug(msg)
	}
}

func (t *Transport) logInfo(msg string) {
	if t.log != nil {
		t.log.Info(msg)
	}
}

func (t *Transport) logError(msg string, err error) {
	if t.log != nil {
		t.log.Error(msg, err)
	}
}

// Start admits the directory's receive-pump thread and its
// adjustment-ticker thread. The ticker's interval is tied to the
// configured adaptive latency bound itself (spec §4.6 names no
// separate "window" duration), so a deployment that tunes MaxWaitNanos
// tunes how often every peer's controller re-evaluates its batching
// window too.
func (t *Transport) Start() liberr.Error {
	t.logInfo("transport: starting receive pump")
	adjustInterval := time.Duration(t.snap.Adaptive.MaxWaitNanos)
	if e := t.dir.Start(200, adjustInterval); e != nil {
		t.logError("transport: failed to start receive pump", e)
		return e
	}
	return nil
}

// Shutdown implements spec §4.7's full shutdown across every peer, then
// releases the poll set's kernel resources.
func (t *Transport) Shutdown() {
	t.logInfo("transport: shutting down")
	t.dir.Shutdown()
	_ = t.poll.Close()
}

// ConnectPeer actively dials the peer link configured for id and adds
// it to the directory (the active side of spec §4.2's handshake).
func (t *Transport) ConnectPeer(id node.PeerID, profile *tlsprofile.Profile) (*node.Peer, liberr.Error) {
	link, ok := t.snap.Peer(id.ClusterID, id.NodeID)
	if !ok {
		return nil, ErrorUnknownPeer.Error(nil)
	}

	tun := sockconn.Tunables{
		Hostname:              link.Hostname,
		Port:                  link.Port,
		TCPMaxSegSize:         link.TCPMaxSegSize,
		SocketReadBufferSize:  link.SocketReadBufferSize,
		SocketWriteBufferSize: link.SocketWriteBufferSize,
		WAN:                   link.WAN,
		ConnectRetries:        int(link.ConnectRetries),
		WriteDeadline:         writeDeadline(link),
	}

	conn := sockconn.New(tun, profile)
	if e := conn.Connect(); e != nil {
		t.logError("transport: connect failed", e)
		return nil, e
	}

	peer, e := t.addPeer(id, conn, writeDeadline(link))
	if e != nil {
		t.logError("transport: failed to register connected peer", e)
		return nil, e
	}
	t.logInfo("transport: connected peer")
	return peer, nil
}

// AddAcceptedPeer adds an already-accepted passive connection to the
// directory under id (the passive side of spec §4.2's handshake).
func (t *Transport) AddAcceptedPeer(id node.PeerID, conn *sockconn.Connection) (*node.Peer, liberr.Error) {
	link, _ := t.snap.Peer(id.ClusterID, id.NodeID)
	peer, e := t.addPeer(id, conn, writeDeadline(link))
	if e != nil {
		t.logError("transport: failed to register accepted peer", e)
		return nil, e
	}
	t.logInfo("transport: accepted peer")
	return peer, nil
}

func (t *Transport) addPeer(id node.PeerID, conn *sockconn.Connection, deadline time.Duration) (*node.Peer, liberr.Error) {
	ctrl := adaptive.New(t.snap.Adaptive)

	return t.dir.AddPeer(node.AddPeerParams{
		ID:            id,
		Conn:          conn,
		RecvPool:      t.recvPool,
		DescPool:      t.descPool,
		Registry:      t.registry,
		Order:         wire.ByteOrderNative,
		BatchN:        int(t.snap.Pool.BatchSize),
		Adaptive:      ctrl,
		Stats:         &connstats.Stats{},
		WriteDeadline: deadline,
	})
}

func writeDeadline(link config.PeerLink) time.Duration {
	if link.SocketMaxWaitInNanos > 0 {
		return time.Duration(link.SocketMaxWaitInNanos)
	}
	return 5 * time.Second
}

// AcquirePage draws one page from the receive-buffer pool for an
// application thread building an outgoing signal. local is the
// caller's own thread-local free list (spec §4.1's acquire/local-list
// pairing); callers that send often should keep one across calls
// rather than passing a fresh list every time.
func (t *Transport) AcquirePage(local *pagepool.LocalList) (*pagepool.Page, liberr.Error) {
	return t.recvPool.Acquire(local, int(t.snap.Pool.BatchSize))
}

// Send implements spec §6's send(cluster_id, node_id, page_chain,
// force_send): look the peer up by identity and hand it the chain.
func (t *Transport) Send(clusterID, nodeID uint8, first *pagepool.Page, force bool) liberr.Error {
	peer, ok := t.dir.Get(clusterID, nodeID)
	if !ok {
		t.logDebug("transport: send refused, unknown peer")
		return ErrorUnknownPeer.Error(nil)
	}
	return peer.Send(first, force)
}

// PollInbox implements spec §6's poll_inbox(timeout): block for the
// next signal addressed to the caller's own mailbox id, or time out.
func (t *Transport) PollInbox(mailboxID uint16, timeout time.Duration) (*mailbox.Signal, liberr.Error) {
	return t.registry.Get(mailboxID).Poll(timeout)
}

// ReturnPage implements spec §6's return_page(page): release the
// signal's hold on its underlying pages, returning them to their pools
// once no other descriptor still references them.
func (t *Transport) ReturnPage(sig *mailbox.Signal) {
	sig.Release()
}

// Peer looks up a previously added/connected peer by identity, for
// callers that want direct access (e.g. NodeUp checks) without routing
// through Send.
func (t *Transport) Peer(clusterID, nodeID uint8) (*node.Peer, bool) {
	return t.dir.Get(clusterID, nodeID)
}
