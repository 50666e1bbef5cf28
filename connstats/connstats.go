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

// Package connstats holds the per-connection counters described in
// spec §4.2: bytes/buffers sent and received, a 16-bin exponential
// histogram of buffer sizes, send errors/timeouts, and receive errors.
// It is kept standalone from sockconn so it can back a Prometheus
// collector without making sockconn itself depend on the metrics
// library.
package connstats

import "sync/atomic"

// HistogramBins is the number of exponential buffer-size bins: bin i
// counts buffers smaller than 32 << i bytes (< 32, < 64, < 128, ...).
const HistogramBins = 16

// Stats is updated from the syscall path with no locking (every field
// is an independent atomic counter). Snapshot reads each field on its
// own and takes no lock, so fields are not coordinated with each other.
type Stats struct {
	bytesSent     atomic.Uint64
	bytesReceived atomic.Uint64
	buffersSent   atomic.Uint64
	buffersRecv   atomic.Uint64

	sendErrors    atomic.Uint64
	sendTimeouts  atomic.Uint64
	recvErrors    atomic.Uint64

	sendHist [HistogramBins]atomic.Uint64
	recvHist [HistogramBins]atomic.Uint64
}

// binOf returns the histogram bin for a buffer of the given size: the
// smallest i such that size < 32<<i, clamped to the last bin.
func binOf(size int) int {
	limit := 32
	for i := 0; i < HistogramBins-1; i++ {
		if size < limit {
			return i
		}
		limit <<= 1
	}
	return HistogramBins - 1
}

// RecordSend accounts one successful send of n bytes in one buffer.
func (s *Stats) RecordSend(n int) {
	s.bytesSent.Add(uint64(n))
	s.buffersSent.Add(1)
	s.sendHist[binOf(n)].Add(1)
}

// RecordReceive accounts one successful receive of n bytes.
func (s *Stats) RecordReceive(n int) {
	s.bytesReceived.Add(uint64(n))
	s.buffersRecv.Add(1)
	s.recvHist[binOf(n)].Add(1)
}

// RecordSendError accounts a failed send syscall.
func (s *Stats) RecordSendError() { s.sendErrors.Add(1) }

// RecordSendTimeout accounts a send that hit its deadline.
func (s *Stats) RecordSendTimeout() { s.sendTimeouts.Add(1) }

// RecordReceiveError accounts a failed receive syscall.
func (s *Stats) RecordReceiveError() { s.recvErrors.Add(1) }

// Snapshot is a copy of the counters in Stats.
type Snapshot struct {
	BytesSent     uint64
	BytesReceived uint64
	BuffersSent   uint64
	BuffersRecv   uint64

	SendErrors   uint64
	SendTimeouts uint64
	RecvErrors   uint64

	SendHistogram [HistogramBins]uint64
	RecvHistogram [HistogramBins]uint64
}

// Snapshot copies every counter with one atomic load each. It takes no
// lock, and no caller in this module holds the connection's read, write
// or connect mutex around it, so counters that a concurrent syscall
// updates may be read at different instants (for example, BytesSent
// already counting a send that BuffersSent does not yet count).
func (s *Stats) Snapshot() Snapshot {
	var out Snapshot

	out.BytesSent = s.bytesSent.Load()
	out.BytesReceived = s.bytesReceived.Load()
	out.BuffersSent = s.buffersSent.Load()
	out.BuffersRecv = s.buffersRecv.Load()
	out.SendErrors = s.sendErrors.Load()
	out.SendTimeouts = s.sendTimeouts.Load()
	out.RecvErrors = s.recvErrors.Load()

	for i := 0; i < HistogramBins; i++ {
		out.SendHistogram[i] = s.sendHist[i].Load()
		out.RecvHistogram[i] = s.recvHist[i].Load()
	}

	return out
}
