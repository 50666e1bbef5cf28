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

package sockconn_test

import (
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/ndbtransport/sockconn"
)

func freePort() int {
	l, _ := net.Listen("tcp", "127.0.0.1:0")
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

var _ = Describe("Connection", func() {
	It("round-trips a single-byte-stream write/read over a loopback accept", func() {
		port := freePort()

		passive := sockconn.New(sockconn.Tunables{Hostname: "127.0.0.1", Port: uint16(port)}, nil)
		Expect(passive.Listen()).ToNot(HaveOccurred())
		defer passive.Close()

		accepted := make(chan *sockconn.Connection, 1)
		go func() {
			c, e := passive.Accept()
			Expect(e).ToNot(HaveOccurred())
			accepted <- c
		}()

		active := sockconn.New(sockconn.Tunables{Hostname: "127.0.0.1", Port: uint16(port), ConnectRetries: 1}, nil)
		Expect(active.Connect()).ToNot(HaveOccurred())
		defer active.Close()

		server := <-accepted
		defer server.Close()

		n, e := active.WriteVector(net.Buffers{[]byte("hello")}, time.Second)
		Expect(e).ToNot(HaveOccurred())
		Expect(n).To(Equal(int64(5)))

		buf := make([]byte, 16)
		got, e2 := server.Read(buf)
		Expect(e2).ToNot(HaveOccurred())
		Expect(string(buf[:got])).To(Equal("hello"))
	})

	It("rejects an accept from a disallowed peer identity", func() {
		port := freePort()

		passive := sockconn.New(sockconn.Tunables{
			Hostname:       "127.0.0.1",
			Port:           uint16(port),
			AcceptHostname: "definitely-not-localhost.invalid",
		}, nil)
		Expect(passive.Listen()).ToNot(HaveOccurred())
		defer passive.Close()

		result := make(chan error, 1)
		go func() {
			_, e := passive.Accept()
			result <- e
		}()

		active := sockconn.New(sockconn.Tunables{Hostname: "127.0.0.1", Port: uint16(port), ConnectRetries: 1}, nil)
		_ = active.Connect()
		defer active.Close()

		Expect(<-result).To(HaveOccurred())
	})

	It("constructs a WAN connection in the unconnected state", func() {
		c := sockconn.New(sockconn.Tunables{Hostname: "db1", Port: 11860, WAN: true}, nil)
		Expect(c.State()).To(Equal(sockconn.StateUnconnected))
	})

	It("fails Connect after exhausting retries against a closed port", func() {
		port := freePort() // nothing listening here

		active := sockconn.New(sockconn.Tunables{Hostname: "127.0.0.1", Port: uint16(port), ConnectRetries: 1, ConnectTimeout: 200 * time.Millisecond}, nil)
		e := active.Connect()
		Expect(e).To(HaveOccurred())
		Expect(active.State()).To(Equal(sockconn.StateFailed))
	})
})
