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

package sendengine_test

import (
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/ndbtransport/adaptive"
	"github.com/nabbar/ndbtransport/config"
	"github.com/nabbar/ndbtransport/connstats"
	liberr "github.com/nabbar/ndbtransport/errors"
	"github.com/nabbar/ndbtransport/pagepool"
	"github.com/nabbar/ndbtransport/sendengine"
	"github.com/nabbar/ndbtransport/sockconn"
	"github.com/nabbar/ndbtransport/threadpool"
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

var _ = Describe("Peer", func() {
	It("writes immediately when force_send bypasses the adaptive controller", func() {
		client, server := loopback()
		defer client.Close()
		defer server.Close()

		pagePool, _ := pagepool.New(64, 4, 4)
		var local pagepool.LocalList
		pg, _ := pagePool.Acquire(&local, 4)
		copy(pg.Buf(), []byte("hello"))
		pg.SetLen(5)

		stats := &connstats.Stats{}
		ctrl := adaptive.New(config.AdaptiveTuning{MaxWaitNanos: 1_000_000, MaxSendsTracked: 64, MaxSendTimers: 128})
		pool := threadpool.New(4)

		peer := sendengine.NewPeer(sendengine.PeerID{ClusterID: 1, NodeID: 2}, server, stats, ctrl, pool, 0, 0, time.Second, nil)

		Expect(peer.Send(pg, true)).To(BeNil())

		buf := make([]byte, 5)
		_, e := client.Read(buf)
		Expect(e).To(BeNil())
		Expect(string(buf)).To(Equal("hello"))
	})

	It("holds a deferred window then flushes both arrivals together once the bound elapses", func() {
		client, server := loopback()
		defer client.Close()
		defer server.Close()

		pagePool, _ := pagepool.New(64, 4, 4)
		var local pagepool.LocalList

		pg1, _ := pagePool.Acquire(&local, 4)
		copy(pg1.Buf(), []byte("AAA"))
		pg1.SetLen(3)

		pg2, _ := pagePool.Acquire(&local, 4)
		copy(pg2.Buf(), []byte("BBB"))
		pg2.SetLen(3)

		stats := &connstats.Stats{}
		ctrl := adaptive.New(config.AdaptiveTuning{MaxWaitNanos: 30_000_000, MaxSendsTracked: 64, MaxSendTimers: 128})

		// Grow max_num_waits past zero, by hand, so the first real Decide
		// call (inside Send) holds instead of sending immediately.
		now := int64(0)
		for i := 0; i < 10; i++ {
			now += 1_000
			ctrl.RecordArrival(now)
			ctrl.Adjust()
		}
		Expect(ctrl.MaxNumWaits()).To(BeNumerically(">", 0))

		pool := threadpool.New(4)
		peer := sendengine.NewPeer(sendengine.PeerID{ClusterID: 1, NodeID: 2}, server, stats, ctrl, pool, 0, 0, time.Second, nil)

		Expect(peer.Send(pg1, false)).To(BeNil())
		Expect(peer.Send(pg2, false)).To(BeNil())

		buf := make([]byte, 6)
		_, e := client.Read(buf)
		Expect(e).To(BeNil())
		Expect(string(buf)).To(Equal("AAABBB"))
	})

	It("refuses further sends once the peer has been marked down", func() {
		client, server := loopback()
		defer client.Close()

		pagePool, _ := pagepool.New(64, 4, 4)
		var local pagepool.LocalList
		pg, _ := pagePool.Acquire(&local, 4)
		pg.SetLen(3)

		stats := &connstats.Stats{}
		ctrl := adaptive.New(config.AdaptiveTuning{MaxWaitNanos: 1_000_000, MaxSendsTracked: 64, MaxSendTimers: 128})
		pool := threadpool.New(4)

		var failedID sendengine.PeerID
		peer := sendengine.NewPeer(sendengine.PeerID{ClusterID: 5, NodeID: 6}, server, stats, ctrl, pool, 0, 0, time.Second,
			func(id sendengine.PeerID, _ liberr.Error) { failedID = id })

		Expect(server.Close()).To(BeNil())

		Expect(peer.Send(pg, true)).ToNot(BeNil())
		Expect(failedID).To(Equal(sendengine.PeerID{ClusterID: 5, NodeID: 6}))

		pg2, _ := pagePool.Acquire(&local, 4)
		pg2.SetLen(3)
		Expect(peer.Send(pg2, true)).ToNot(BeNil())
	})
})
