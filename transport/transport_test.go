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

package transport_test

import (
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/ndbtransport/config"
	"github.com/nabbar/ndbtransport/node"
	"github.com/nabbar/ndbtransport/pagepool"
	"github.com/nabbar/ndbtransport/sockconn"
	"github.com/nabbar/ndbtransport/transport"
	"github.com/nabbar/ndbtransport/wire"
)

func encodeSignal(buf []byte, num uint16, payload []byte) int {
	total := wire.MinHeaderSize + len(payload)
	words := (total + wire.WordSize - 1) / wire.WordSize
	hdr := wire.Header{LengthWords: uint32(words), SignalNumber: num, ReceiverModule: 32768}
	hdr.Encode(buf)
	copy(buf[wire.MinHeaderSize:], payload)
	return words * wire.WordSize
}

var _ = Describe("Transport", func() {
	It("rejects a snapshot with no configured peers", func() {
		_, e := transport.New(config.Default(), nil, nil)
		Expect(e).ToNot(BeNil())
	})

	It("connects a peer, delivers a signal to the inbox and returns its page", func() {
		l, lerr := net.Listen("tcp", "127.0.0.1:0")
		Expect(lerr).To(BeNil())
		port := l.Addr().(*net.TCPAddr).Port
		Expect(l.Close()).To(BeNil())

		snap := config.Default()
		snap.Peers = []config.PeerLink{{
			ClusterID: 1, FirstNode: 2,
			Hostname: "127.0.0.1", Port: uint16(port),
			ConnectRetries: 1,
		}}

		client, e := transport.New(snap, nil, nil)
		Expect(e).To(BeNil())
		defer client.Shutdown()

		server, e := transport.New(snap, nil, nil)
		Expect(e).To(BeNil())
		defer server.Shutdown()

		passive := sockconn.New(sockconn.Tunables{Hostname: "127.0.0.1", Port: uint16(port)}, nil)
		Expect(passive.Listen()).To(BeNil())

		accepted := make(chan *sockconn.Connection, 1)
		go func() {
			c, _ := passive.Accept()
			accepted <- c
		}()

		activePeer, e := client.ConnectPeer(node.PeerID{ClusterID: 1, NodeID: 2}, nil)
		Expect(e).To(BeNil())
		Expect(activePeer).ToNot(BeNil())

		var serverConn *sockconn.Connection
		Eventually(accepted, time.Second).Should(Receive(&serverConn))

		_, e = server.AddAcceptedPeer(node.PeerID{ClusterID: 1, NodeID: 2}, serverConn)
		Expect(e).To(BeNil())
		Expect(server.Start()).To(BeNil())

		var local pagepool.LocalList
		pg, aerr := client.AcquirePage(&local)
		Expect(aerr).To(BeNil())

		n := encodeSignal(pg.Buf(), 42, []byte("hello transport"))
		pg.SetLen(n)

		Expect(client.Send(1, 2, pg, true)).To(BeNil())

		sig, perr := server.PollInbox(32768, time.Second)
		Expect(perr).To(BeNil())
		Expect(sig.Header.SignalNumber).To(Equal(uint16(42)))

		server.ReturnPage(sig)
	})

	It("refuses to send to an unknown peer", func() {
		snap := config.Default()
		snap.Peers = []config.PeerLink{{ClusterID: 9, FirstNode: 9, Hostname: "127.0.0.1", Port: 1, ConnectRetries: 1}}

		t, e := transport.New(snap, nil, nil)
		Expect(e).To(BeNil())
		defer t.Shutdown()

		var local pagepool.LocalList
		pg, aerr := t.AcquirePage(&local)
		Expect(aerr).To(BeNil())

		Expect(t.Send(1, 2, pg, true)).ToNot(BeNil())
	})
})
