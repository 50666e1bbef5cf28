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

package sockconn

import "time"

// WANBufferSize and WANMaxSegSize are the spec's WAN socket-buffer
// preset: 4 MiB read/write buffers, 60 KiB max segment size.
const (
	WANBufferSize  = 4 * 1024 * 1024
	WANMaxSegSize  = 60 * 1024
)

// DefaultConnectRetries bounds the number of connect retries, after the
// first attempt, that an active connection makes before giving up
// (config.PeerLink.ConnectRetries overrides this when set).
const DefaultConnectRetries = 5

// Tunables carries the socket options applied at prepare time (spec
// §4.2, "Socket options").
type Tunables struct {
	Hostname string
	Port     uint16

	TCPMaxSegSize         uint32
	SocketReadBufferSize  uint32
	SocketWriteBufferSize uint32

	WAN bool

	ConnectRetries int
	ConnectTimeout time.Duration
	WriteDeadline  time.Duration

	// AcceptHostname/AcceptPort, when non-zero, restrict a passive
	// connection's Accept to peers matching this identity (spec §4.2,
	// "Client-address filtering").
	AcceptHostname string
	AcceptPort     uint16
}

// ApplyWANPreset sets the WAN buffer/MSS preset when t.WAN is true and
// the corresponding field was left at zero.
func (t *Tunables) ApplyWANPreset() {
	if !t.WAN {
		return
	}
	if t.SocketReadBufferSize == 0 {
		t.SocketReadBufferSize = WANBufferSize
	}
	if t.SocketWriteBufferSize == 0 {
		t.SocketWriteBufferSize = WANBufferSize
	}
	if t.TCPMaxSegSize == 0 {
		t.TCPMaxSegSize = WANMaxSegSize
	}
}

func (t *Tunables) retries() int {
	if t.ConnectRetries <= 0 {
		return DefaultConnectRetries
	}
	return t.ConnectRetries
}
