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

// Package wire defines the peer-to-peer byte layer: the length-prefixed
// signal header, module-id routing constants, and the per-word byte
// swap applied when two peers' native byte orders differ.
package wire

import "encoding/binary"

const (
	// WordSize is the machine word size the protocol counts lengths in.
	WordSize = 4

	// MinHeaderSize is the minimum signal header, in bytes: three
	// words carrying signal length, routing, and sizing fields.
	MinHeaderSize = 12

	// MinHeaderWords is MinHeaderSize expressed in machine words.
	MinHeaderWords = MinHeaderSize / WordSize

	// MaxMainWords bounds the main-message payload of one signal.
	MaxMainWords = 25

	// MaxSegments bounds the number of named segment payloads per signal.
	MaxSegments = 3

	// ModuleIDPackedSignals is the reserved receiver module id that
	// denotes a container of several packed signals rather than a
	// single logical destination.
	ModuleIDPackedSignals = 2047

	// ModuleIDMailboxBase is the threshold above which a module id
	// addresses a per-application-thread mailbox rather than a
	// protocol block/service module.
	ModuleIDMailboxBase = 32768
)

// Priority is the signal priority field: normal (0) or high (1).
type Priority uint8

const (
	PriorityNormal Priority = 0
	PriorityHigh   Priority = 1
)

// ByteOrder is the wire byte order negotiated at handshake.
type ByteOrder uint8

const (
	// ByteOrderNative means no swap is required: the peer's order
	// matches ours.
	ByteOrderNative ByteOrder = iota
	// ByteOrderSwapped means every 32-bit word must be byte-swapped
	// after the header is parsed.
	ByteOrderSwapped
)

// IsMailbox reports whether a module id addresses an application
// thread's mailbox rather than a protocol module.
func IsMailbox(id uint16) bool {
	return id >= ModuleIDMailboxBase
}

// Header is the parsed form of a signal's 12-byte minimum header.
// Layout (three 32-bit words, before any byte-order swap):
//
//	word0: LengthWords   (total signal length, header included, in words)
//	word1: SignalNumber (u16) | Priority (u8) | reserved (u8)
//	word2: SenderModule (u16) | ReceiverModule (u16)
type Header struct {
	LengthWords    uint32
	SignalNumber   uint16
	Priority       Priority
	SenderModule   uint16
	ReceiverModule uint16
}

// ByteLen returns the total signal length in bytes, header included.
func (h Header) ByteLen() int {
	return int(h.LengthWords) * WordSize
}

// Encode writes the header into buf (which must be at least
// MinHeaderSize bytes) in native byte order.
func (h Header) Encode(buf []byte) {
	binary.BigEndian.PutUint32(buf[0:4], h.LengthWords)
	binary.BigEndian.PutUint16(buf[4:6], h.SignalNumber)
	buf[6] = byte(h.Priority)
	buf[7] = 0
	binary.BigEndian.PutUint16(buf[8:10], h.SenderModule)
	binary.BigEndian.PutUint16(buf[10:12], h.ReceiverModule)
}

// Decode parses a header out of buf (which must be at least
// MinHeaderSize bytes), swapping each word first if order indicates
// the peer's native byte order differs from ours.
func Decode(buf []byte, order ByteOrder) Header {
	if order == ByteOrderSwapped {
		buf = swapWords(buf[:MinHeaderSize])
	}

	return Header{
		LengthWords:    binary.BigEndian.Uint32(buf[0:4]),
		SignalNumber:   binary.BigEndian.Uint16(buf[4:6]),
		Priority:       Priority(buf[6]),
		SenderModule:   binary.BigEndian.Uint16(buf[8:10]),
		ReceiverModule: binary.BigEndian.Uint16(buf[10:12]),
	}
}

// swapWords returns a copy of buf with every 32-bit word byte-reversed.
func swapWords(buf []byte) []byte {
	out := make([]byte, len(buf))
	copy(out, buf)

	for i := 0; i+4 <= len(out); i += 4 {
		out[i], out[i+1], out[i+2], out[i+3] = out[i+3], out[i+2], out[i+1], out[i]
	}

	return out
}

// SegmentLengths packs up to MaxSegments word-lengths immediately after
// the main message, one word each, in the order they appear.
type SegmentLengths [MaxSegments]uint32

// Encode writes n segment lengths (n <= MaxSegments) as n words.
func (s SegmentLengths) Encode(buf []byte, n int) {
	for i := 0; i < n && i < MaxSegments; i++ {
		binary.BigEndian.PutUint32(buf[i*WordSize:(i+1)*WordSize], s[i])
	}
}

// DecodeSegmentLengths reads n segment-length words from buf.
func DecodeSegmentLengths(buf []byte, n int) SegmentLengths {
	var s SegmentLengths
	for i := 0; i < n && i < MaxSegments; i++ {
		s[i] = binary.BigEndian.Uint32(buf[i*WordSize : (i+1)*WordSize])
	}
	return s
}
