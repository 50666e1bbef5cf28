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

package config_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/ndbtransport/config"
)

var _ = Describe("Snapshot", func() {
	It("rejects an empty peer list", func() {
		s := config.Default()
		Expect(s.Validate()).To(HaveOccurred())
	})

	It("accepts a minimal valid peer link", func() {
		s := config.Default()
		s.Peers = []config.PeerLink{
			{ClusterID: 1, FirstNode: 1, SecondNode: 2, Hostname: "127.0.0.1", Port: 11860},
		}
		Expect(s.Validate()).ToNot(HaveOccurred())
	})

	It("applies the WAN preset", func() {
		p := config.PeerLink{ClusterID: 1, FirstNode: 1, SecondNode: 2, Hostname: "db1", Port: 11860}
		p.WANPreset()
		Expect(p.WAN).To(BeTrue())
		Expect(p.SocketReadBufferSize).To(Equal(uint32(4 * 1024 * 1024)))
		Expect(p.TCPMaxSegSize).To(Equal(uint32(60 * 1024)))
	})

	It("looks up a configured peer by cluster/node id", func() {
		s := config.Default()
		s.Peers = []config.PeerLink{
			{ClusterID: 1, FirstNode: 1, SecondNode: 2, Hostname: "127.0.0.1", Port: 11860},
		}
		_, ok := s.Peer(1, 2)
		Expect(ok).To(BeTrue())

		_, ok = s.Peer(1, 9)
		Expect(ok).To(BeFalse())
	})
})
