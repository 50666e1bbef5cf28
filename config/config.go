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

// Package config holds the immutable configuration snapshot consumed by
// the transport core: per-peer link parameters, pool sizing, and
// adaptive-controller tuning. There is no file loader here: building a
// Snapshot from a config file or flags is a collaborator's job.
package config

import (
	validator "github.com/go-playground/validator/v10"

	liberr "github.com/nabbar/ndbtransport/errors"
)

// PeerLink describes one configured (cluster_id, node_id) connection
// endpoint, as consumed from the cluster configuration snapshot (spec
// "Configuration consumed").
type PeerLink struct {
	ClusterID uint8  `validate:"required"`
	FirstNode uint8  `validate:"-"`
	SecondNode uint8 `validate:"-"`

	Hostname string `validate:"required,hostname_port|hostname|ip"`
	Port     uint16 `validate:"required"`

	TCPMaxSegSize              uint32 `validate:"omitempty"`
	SocketReadBufferSize       uint32 `validate:"omitempty"`
	SocketWriteBufferSize      uint32 `validate:"omitempty"`
	SocketKernelReadBufferSize uint32 `validate:"omitempty"`
	SocketKernelWriteBufferSize uint32 `validate:"omitempty"`
	SocketMaxWaitInNanos       int64  `validate:"omitempty,min=0"`

	WAN            bool `validate:"-"`
	UseChecksum    bool `validate:"-"`
	UseMessageID   bool `validate:"-"`
	ConnectRetries uint8 `validate:"omitempty,min=0,max=255"`
}

// WANPreset applies the spec's WAN socket-buffer preset (4 MiB buffers,
// 60 KiB MSS) to a PeerLink that has WAN set but no explicit tunables.
func (p *PeerLink) WANPreset() {
	p.WAN = true
	if p.SocketReadBufferSize == 0 {
		p.SocketReadBufferSize = 4 * 1024 * 1024
	}
	if p.SocketWriteBufferSize == 0 {
		p.SocketWriteBufferSize = 4 * 1024 * 1024
	}
	if p.TCPMaxSegSize == 0 {
		p.TCPMaxSegSize = 60 * 1024
	}
}

// PoolTuning sizes the page pools (spec §4.1).
type PoolTuning struct {
	ReceivePageSize  uint32 `validate:"required,min=1"`
	SignalPageSize   uint32 `validate:"required,min=1"`
	MaxSegments      uint32 `validate:"required,min=1"`
	SegmentPageCount uint32 `validate:"required,min=1"`
	BatchSize        uint32 `validate:"required,min=1"`
}

// AdaptiveTuning bounds the adaptive-send controller (spec §4.6).
type AdaptiveTuning struct {
	MaxWaitNanos     int64  `validate:"required,min=1"`
	MaxSendsTracked  uint32 `validate:"required,min=1"`
	MaxSendTimers    uint32 `validate:"required,min=1"`
}

// Snapshot is the complete, immutable configuration consumed by the
// transport. Construct one with New and never mutate it afterward:
// every downstream package treats it as read-only for its lifetime.
type Snapshot struct {
	NodeID   uint8      `validate:"-"`
	Peers    []PeerLink `validate:"required,dive"`
	Pool     PoolTuning `validate:"required"`
	Adaptive AdaptiveTuning `validate:"required"`
}

// Default returns the spec's baseline tuning: 32 KiB receive pages, 4
// KiB signal-descriptor pages, max_wait_ns of 1ms. It holds no peer
// links; the default of 5 connect retries is filled in per peer link
// by Validate when ConnectRetries is 0.
func Default() Snapshot {
	return Snapshot{
		Pool: PoolTuning{
			ReceivePageSize:  32 * 1024,
			SignalPageSize:   4 * 1024,
			MaxSegments:      64,
			SegmentPageCount: 64,
			BatchSize:        8,
		},
		Adaptive: AdaptiveTuning{
			MaxWaitNanos:    1_000_000,
			MaxSendsTracked: 64,
			MaxSendTimers:   128,
		},
	}
}

// Validate runs struct-tag validation over the whole snapshot and each
// peer link, returning a liberr.Error on the first failure found.
func (s Snapshot) Validate() liberr.Error {
	if len(s.Peers) == 0 {
		return ErrorSnapshotEmpty.Error(nil)
	}

	for i := range s.Peers {
		if s.Peers[i].ConnectRetries == 0 {
			s.Peers[i].ConnectRetries = 5
		}
	}

	v := validator.New()
	if e := v.Struct(s); e != nil {
		return ErrorSnapshotInvalid.Error(e)
	}

	return nil
}

// Peer returns the configured link for a (cluster_id, node_id) pair, or
// false if no such peer is configured.
func (s Snapshot) Peer(clusterID, nodeID uint8) (PeerLink, bool) {
	for _, p := range s.Peers {
		if p.ClusterID == clusterID && (p.FirstNode == nodeID || p.SecondNode == nodeID) {
			return p, true
		}
	}
	return PeerLink{}, false
}
