// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package recorder

import "rflow/common/reporter"

type metrics struct {
	packets        *reporter.CounterVec
	flows          *reporter.CounterVec
	lostFlows      *reporter.CounterVec
	sequenceResets *reporter.CounterVec
	decodeErrors   *reporter.CounterVec
	recorded       reporter.Counter
	recordedBytes  reporter.Counter
	flushes        reporter.Counter
}

func (c *Component) initMetrics() {
	c.metrics.packets = c.r.CounterVec(
		reporter.CounterOpts{
			Name: "packets_total",
			Help: "Number of decoded NetFlow v5 packets.",
		},
		[]string{"exporter"},
	)
	c.metrics.flows = c.r.CounterVec(
		reporter.CounterOpts{
			Name: "flows_total",
			Help: "Number of decoded flow records.",
		},
		[]string{"exporter"},
	)
	c.metrics.lostFlows = c.r.CounterVec(
		reporter.CounterOpts{
			Name: "lost_flows_total",
			Help: "Number of flows lost according to flow sequences.",
		},
		[]string{"exporter"},
	)
	c.metrics.sequenceResets = c.r.CounterVec(
		reporter.CounterOpts{
			Name: "sequence_resets_total",
			Help: "Number of times a flow sequence went backward.",
		},
		[]string{"exporter"},
	)
	c.metrics.decodeErrors = c.r.CounterVec(
		reporter.CounterOpts{
			Name: "decode_errors_total",
			Help: "Number of datagrams which cannot be decoded.",
		},
		[]string{"exporter", "version"},
	)
	c.metrics.recorded = c.r.Counter(
		reporter.CounterOpts{
			Name: "recorded_datagrams_total",
			Help: "Number of datagrams written to the capture.",
		},
	)
	c.metrics.recordedBytes = c.r.Counter(
		reporter.CounterOpts{
			Name: "recorded_bytes_total",
			Help: "Number of bytes written to the capture.",
		},
	)
	c.metrics.flushes = c.r.Counter(
		reporter.CounterOpts{
			Name: "flushes_total",
			Help: "Number of flushes of the capture.",
		},
	)
	c.r.GaugeFunc(
		reporter.GaugeOpts{
			Name: "queue_length",
			Help: "Number of datagrams waiting to be written.",
		},
		func() float64 { return float64(len(c.queue)) },
	)
}
