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

// Package adaptive implements the wait-or-send decision procedure of
// spec §4.6: keep the 95th-percentile extra latency from batching below
// a configured bound while maximizing each writev. The controller holds
// no lock of its own; spec §4.6 calls it "while holding the peer
// mutex", so in this port sendengine.Peer's own mutex is the only lock
// protecting a Controller's state, the same way it protects the rest of
// the per-peer send state.
package adaptive

import "github.com/nabbar/ndbtransport/config"

// Controller is the per-peer adaptive-send state (spec §3 mentions it
// as part of SendPeer's "adaptive controller's sliding window").
type Controller struct {
	maxWaitNanos    int64
	maxSendsTracked uint32

	maxNumWaits        uint32
	numWaits           uint32
	haveFirstBuffered  bool
	firstBufferedTimer int64

	timers []int64
	idx    int

	totCurrWaitTime    int64
	totWaitTimePlusOne int64
	numStats           int64

	meanCurr    int64
	meanPlusOne int64
}

// New builds a Controller from the configured tuning (spec §4.6
// constants MAX_SENDS_TRACKED / MAX_SEND_TIMERS).
func New(t config.AdaptiveTuning) *Controller {
	return &Controller{
		maxWaitNanos:    t.MaxWaitNanos,
		maxSendsTracked: t.MaxSendsTracked,
		timers:          make([]int64, t.MaxSendTimers),
	}
}

// Decide runs the three-step decision procedure (spec §4.6 "Decision").
// It is only consulted when the caller's force_send flag is false; the
// caller handles that boundary itself (spec §8, "force_send=true:
// controller is not consulted").
func (c *Controller) Decide(now int64) bool {
	if c.numWaits >= c.maxNumWaits {
		c.resetBatch()
		return true
	}

	if c.haveFirstBuffered && now-c.firstBufferedTimer > c.maxWaitNanos {
		c.resetBatch()
		return true
	}

	if !c.haveFirstBuffered {
		c.firstBufferedTimer = now
		c.haveFirstBuffered = true
	}
	c.numWaits++
	return false
}

func (c *Controller) resetBatch() {
	c.numWaits = 0
	c.haveFirstBuffered = false
}

// RecordArrival appends an arrival timestamp to the ring buffer and
// accumulates the two running sums (spec §4.6 "Statistics update"). It
// runs on every arrival, win or lose at Decide.
func (c *Controller) RecordArrival(now int64) {
	if len(c.timers) == 0 {
		return
	}

	if c.idx == len(c.timers) {
		tracked := int(c.maxSendsTracked)
		if tracked > len(c.timers) {
			tracked = len(c.timers)
		}
		copy(c.timers, c.timers[len(c.timers)-tracked:])
		c.idx = tracked
	}

	c.timers[c.idx] = now
	c.idx++

	if back := c.idx - 1 - int(c.maxNumWaits); back >= 0 {
		c.totCurrWaitTime += now - c.timers[back]
	}
	if back := c.idx - 2 - int(c.maxNumWaits); back >= 0 {
		c.totWaitTimePlusOne += now - c.timers[back]
	}
	c.numStats++
}

// Adjust runs the periodic adjustment procedure (spec §4.6
// "Adjustment"): recompute the two means, grow or shrink max_num_waits
// toward keeping mean_curr under half the latency bound, then reset the
// sums for the next window.
func (c *Controller) Adjust() {
	if c.numStats == 0 {
		return
	}

	meanCurr := c.totCurrWaitTime / c.numStats
	meanPlusOne := c.totWaitTimePlusOne / c.numStats
	limit := c.maxWaitNanos / 2

	if meanCurr > limit {
		if c.maxNumWaits > 0 {
			c.maxNumWaits--
		}
	} else if meanPlusOne < limit {
		if c.maxNumWaits < c.maxSendsTracked {
			c.maxNumWaits++
		}
	}

	c.meanCurr = meanCurr
	c.meanPlusOne = meanPlusOne
	c.totCurrWaitTime = 0
	c.totWaitTimePlusOne = 0
	c.numStats = 0
}

// MeanCurr, MeanPlusOne and MaxNumWaits report the controller's last
// computed window, for the Prometheus collector and for tests of the
// "Adaptive bound" property (spec §8).
func (c *Controller) MeanCurr() int64     { return c.meanCurr }
func (c *Controller) MeanPlusOne() int64  { return c.meanPlusOne }
func (c *Controller) MaxNumWaits() uint32 { return c.maxNumWaits }
func (c *Controller) MaxWaitNanos() int64 { return c.maxWaitNanos }
