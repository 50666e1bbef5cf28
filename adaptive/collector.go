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

package adaptive

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes mean_curr, mean_plus_one and max_num_waits per peer
// so the latency bound in spec §8 ("Adaptive bound") is observable from
// outside the process, the way the original exposed its stats counters
// through ic_apid.h's accessors.
type Collector struct {
	peers func() map[string]*Controller

	meanCurr    *prometheus.Desc
	meanPlus    *prometheus.Desc
	maxNumWaits *prometheus.Desc
}

// NewCollector builds a Collector. peers is called on every scrape.
func NewCollector(namespace string, peers func() map[string]*Controller) *Collector {
	return &Collector{
		peers:       peers,
		meanCurr:    prometheus.NewDesc(namespace+"_adaptive_mean_curr_wait_nanos", "Mean current wait time over the last statistics window.", []string{"peer"}, nil),
		meanPlus:    prometheus.NewDesc(namespace+"_adaptive_mean_plus_one_wait_nanos", "Mean wait time with one more held arrival over the last window.", []string{"peer"}, nil),
		maxNumWaits: prometheus.NewDesc(namespace+"_adaptive_max_num_waits", "Current target batch count before forcing a send.", []string{"peer"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.meanCurr
	ch <- c.meanPlus
	ch <- c.maxNumWaits
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for name, ctrl := range c.peers() {
		ch <- prometheus.MustNewConstMetric(c.meanCurr, prometheus.GaugeValue, float64(ctrl.MeanCurr()), name)
		ch <- prometheus.MustNewConstMetric(c.meanPlus, prometheus.GaugeValue, float64(ctrl.MeanPlusOne()), name)
		ch <- prometheus.MustNewConstMetric(c.maxNumWaits, prometheus.GaugeValue, float64(ctrl.MaxNumWaits()), name)
	}
}
