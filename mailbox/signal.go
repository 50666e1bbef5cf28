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

// Package mailbox holds the per-application-thread inbox (spec §3
// "Thread Mailbox") and the signal descriptor posted to it. It sits
// below recvengine (the producer) and transport (the consumer of
// poll_inbox), referencing only wire and pagepool, so neither of those
// packages needs to import the other through it.
package mailbox

import "github.com/nabbar/ndbtransport/pagepool"
import "github.com/nabbar/ndbtransport/wire"

// Signal is a descriptor referencing a shared, refcounted page rather
// than a copy of the signal's bytes. desc is the page drawn from the
// signal-descriptor pool; it piggybacks the receive page (spec §4.1),
// so releasing desc also releases Page's reference.
type Signal struct {
	Next     *Signal
	Header   wire.Header
	Segments wire.SegmentLengths

	Page   *pagepool.Page
	Offset int

	desc *pagepool.Page
}

// NewSignal builds a descriptor. desc must already have had Page set as
// its piggyback companion (desc.SetPiggyback(page)) so Release cascades
// correctly.
func NewSignal(desc *pagepool.Page, page *pagepool.Page, offset int, hdr wire.Header, segs wire.SegmentLengths) *Signal {
	return &Signal{Header: hdr, Segments: segs, Page: page, Offset: offset, desc: desc}
}

// Len returns the total signal length in bytes, header included.
func (s *Signal) Len() int { return s.Header.ByteLen() }

// Bytes returns the signal's bytes as a window into the shared page.
// Callers must not retain this slice past Release.
func (s *Signal) Bytes() []byte {
	return s.Page.Buf()[s.Offset : s.Offset+s.Len()]
}

// Release drops this descriptor's hold on the underlying pages,
// returning them to their pools once no other descriptor references
// them. This is the application thread's return_page operation
// (spec §6) for one signal.
func (s *Signal) Release() bool {
	return s.desc.Release()
}
