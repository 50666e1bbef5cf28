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

package node_test

import (
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/ndbtransport/adaptive"
	"github.com/nabbar/ndbtransport/config"
	"github.com/nabbar/ndbtransport/connstats"
	"github.com/nabbar/ndbtransport/mailbox"
	"github.com/nabbar/ndbtransport/node"
	"github.com/nabbar/ndbtransport/pagepool"
	"github.com/nabbar/ndbtransport/pollset"
	"github.com/nabbar/ndbtransport/sockconn"
	"github.com/nabbar/ndbtransport/threadpool"
	"github.com/nabbar/ndbtransport/wire"
)

func loopback() (a, b *sockconn.Connection) {
	l, _ := net.Listen("tcp", "127.0.0.1:0")
	port := l.Addr().(*net.TCPAddr).Port

	passive := sockconn.New(sockconn.Tunables{Hostname: "127.0.0.1", Port: uint16(port)}, nil)
	_ = l.Close()
	Expect(passive.Listen()).To(BeNil())

	accepted := make(chan *sockconn.Connection, 1)
	go func() {
		c, _ := passive.Accept()
		accepted <- c
	}()

	active := sockconn.New(sockconn.Tunables{Hostname: "127.0.0.1", Port: uint16(port), ConnectRetries: 1}, nil)
	Expect(active.Connect()).To(BeNil())

	return active, <-accepted
}

func encodeSignal(buf []byte, num uint16, payload []byte) int {
	total := wire.MinHeaderSize + len(payload)
	words := (total + wire.WordSize - 1) / wire.WordSize
	hdr := wire.Header{LengthWords: uint32(words), SignalNumber: num, ReceiverModule: 32768}
	hdr.Encode(buf)
	copy(buf[wire.MinHeaderSize:], payload)
	return words * wire.WordSize
}

var _ = Describe("Directory", func() {
	It("returns false for an unconfigured peer", func() {
		dir := node.NewDirectory(threadpool.New(4), mustPollSet(), nil)
		_, ok := dir.Get(9, 9)
		Expect(ok).To(BeFalse())
	})

	It("delivers a signal through the poll-driven receive pump to the peer's mailbox", func() {
		client, server := loopback()
		defer client.Close()

		poll := mustPollSet()
		defer poll.Close()
		pool := threadpool.New(4)
		dir := node.NewDirectory(pool, poll, nil)

		recvPool, _ := pagepool.New(256, 4, 4)
		descPool, _ := pagepool.New(0, 4, 4)
		registry := mailbox.NewRegistry()
		ctrl := adaptive.New(config.AdaptiveTuning{MaxWaitNanos: 1_000_000, MaxSendsTracked: 64, MaxSendTimers: 128})

		peer, e := dir.AddPeer(node.AddPeerParams{
			ID: node.PeerID{ClusterID: 1, NodeID: 2}, Conn: server,
			RecvPool: recvPool, DescPool: descPool, Registry: registry,
			Order: wire.ByteOrderNative, BatchN: 4, Adaptive: ctrl,
			Stats: &connstats.Stats{}, WriteDeadline: time.Second,
		})
		Expect(e).To(BeNil())
		Expect(dir.Start(50, 0)).To(BeNil())
		defer dir.Shutdown()

		got, ok := dir.Get(1, 2)
		Expect(ok).To(BeTrue())
		Expect(got).To(BeIdenticalTo(peer))

		buf := make([]byte, 64)
		n := encodeSignal(buf, 7, []byte("payload"))
		_, werr := client.WriteVector(net.Buffers{buf[:n]}, time.Second)
		Expect(werr).To(BeNil())

		Eventually(func() int {
			return registry.Get(32768).Len()
		}, time.Second).Should(Equal(1))

		sig, perr := registry.Get(32768).Poll(time.Second)
		Expect(perr).To(BeNil())
		Expect(sig.Header.SignalNumber).To(Equal(uint16(7)))
	})

	It("routes Send through the peer to the raw connection", func() {
		client, server := loopback()
		defer client.Close()

		poll := mustPollSet()
		defer poll.Close()
		pool := threadpool.New(4)
		dir := node.NewDirectory(pool, poll, nil)

		recvPool, _ := pagepool.New(256, 4, 4)
		descPool, _ := pagepool.New(0, 4, 4)
		registry := mailbox.NewRegistry()
		ctrl := adaptive.New(config.AdaptiveTuning{MaxWaitNanos: 1_000_000, MaxSendsTracked: 64, MaxSendTimers: 128})

		peer, e := dir.AddPeer(node.AddPeerParams{
			ID: node.PeerID{ClusterID: 3, NodeID: 4}, Conn: server,
			RecvPool: recvPool, DescPool: descPool, Registry: registry,
			Order: wire.ByteOrderNative, BatchN: 4, Adaptive: ctrl,
			Stats: &connstats.Stats{}, WriteDeadline: time.Second,
		})
		Expect(e).To(BeNil())
		defer dir.Shutdown()

		var local pagepool.LocalList
		pg, _ := recvPool.Acquire(&local, 4)
		copy(pg.Buf(), []byte("wire-bytes"))
		pg.SetLen(10)

		Expect(peer.Send(pg, true)).To(BeNil())

		out := make([]byte, 10)
		_, rerr := client.Read(out)
		Expect(rerr).To(BeNil())
		Expect(string(out)).To(Equal("wire-bytes"))
	})
})

func mustPollSet() *pollset.Set {
	s, e := pollset.New()
	Expect(e).To(BeNil())
	return s
}
