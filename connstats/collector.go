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

package connstats

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector adapts a set of named Stats (one per peer) into a
// prometheus.Collector, so an operator can scrape per-peer byte
// counters and buffer-size histograms alongside the adaptive
// controller's gauges (adaptive.Collector).
type Collector struct {
	peers func() map[string]*Stats

	bytesSent     *prometheus.Desc
	bytesReceived *prometheus.Desc
	sendErrors    *prometheus.Desc
	sendTimeouts  *prometheus.Desc
	recvErrors    *prometheus.Desc
	sendHistogram *prometheus.Desc
}

// NewCollector builds a Collector. peers is called on every scrape so
// the set of known peers can grow/shrink as nodes connect and
// disconnect.
func NewCollector(namespace string, peers func() map[string]*Stats) *Collector {
	return &Collector{
		peers:         peers,
		bytesSent:     prometheus.NewDesc(namespace+"_conn_bytes_sent_total", "Bytes sent on this peer connection.", []string{"peer"}, nil),
		bytesReceived: prometheus.NewDesc(namespace+"_conn_bytes_received_total", "Bytes received on this peer connection.", []string{"peer"}, nil),
		sendErrors:    prometheus.NewDesc(namespace+"_conn_send_errors_total", "Failed send syscalls on this peer connection.", []string{"peer"}, nil),
		sendTimeouts:  prometheus.NewDesc(namespace+"_conn_send_timeouts_total", "Send deadline expirations on this peer connection.", []string{"peer"}, nil),
		recvErrors:    prometheus.NewDesc(namespace+"_conn_recv_errors_total", "Failed receive syscalls on this peer connection.", []string{"peer"}, nil),
		sendHistogram: prometheus.NewDesc(namespace+"_conn_send_buffer_bytes", "Exponential histogram of sent buffer sizes.", []string{"peer", "bin"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bytesSent
	ch <- c.bytesReceived
	ch <- c.sendErrors
	ch <- c.sendTimeouts
	ch <- c.recvErrors
	ch <- c.sendHistogram
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for name, s := range c.peers() {
		snap := s.Snapshot()

		ch <- prometheus.MustNewConstMetric(c.bytesSent, prometheus.CounterValue, float64(snap.BytesSent), name)
		ch <- prometheus.MustNewConstMetric(c.bytesReceived, prometheus.CounterValue, float64(snap.BytesReceived), name)
		ch <- prometheus.MustNewConstMetric(c.sendErrors, prometheus.CounterValue, float64(snap.SendErrors), name)
		ch <- prometheus.MustNewConstMetric(c.sendTimeouts, prometheus.CounterValue, float64(snap.SendTimeouts), name)
		ch <- prometheus.MustNewConstMetric(c.recvErrors, prometheus.CounterValue, float64(snap.RecvErrors), name)

		for i, v := range snap.SendHistogram {
			ch <- prometheus.MustNewConstMetric(c.sendHistogram, prometheus.CounterValue, float64(v), name, binLabel(i))
		}
	}
}

func binLabel(i int) string {
	if i == HistogramBins-1 {
		return "max"
	}
	return strconv.Itoa(32 << i)
}
