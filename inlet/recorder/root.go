// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package recorder records NetFlow v5 datagrams received from inputs into
// a capture file. Datagrams are decoded before being written: by
// default, only datagrams made of complete packets are recorded.
package recorder

import (
	"context"
	"encoding/binary"
	"errors"
	"strconv"
	"time"

	"gopkg.in/tomb.v2"

	"rflow/common/daemon"
	"rflow/common/httpserver"
	"rflow/common/netflowv5"
	"rflow/common/reporter"
	"rflow/inlet/input"
)

// Component represents the recorder component.
type Component struct {
	r      *reporter.Reporter
	d      *Dependencies
	t      tomb.Tomb
	config Configuration

	inputs      []input.Input
	queue       chan []byte
	sequences   *sequenceTracker
	healthcheck chan reporter.ChannelHealthcheckFunc
	errLogger   reporter.Logger
	metrics     metrics
}

// Dependencies are the dependencies of the recorder component.
type Dependencies struct {
	Daemon daemon.Component
	HTTP   *httpserver.Component
}

// New creates a new recorder component.
func New(r *reporter.Reporter, configuration Configuration, dependencies Dependencies) (*Component, error) {
	if len(configuration.Inputs) == 0 {
		return nil, errors.New("no input configured")
	}
	if configuration.QueueSize == 0 {
		return nil, errors.New("queue size should not be 0")
	}
	c := Component{
		r:           r,
		d:           &dependencies,
		config:      configuration,
		inputs:      make([]input.Input, len(configuration.Inputs)),
		queue:       make(chan []byte, configuration.QueueSize),
		sequences:   newSequenceTracker(),
		healthcheck: make(chan reporter.ChannelHealthcheckFunc),
		errLogger:   r.Sample(reporter.BurstSampler(time.Minute, 10)),
	}
	c.initMetrics()

	for idx, ic := range c.config.Inputs {
		var err error
		c.inputs[idx], err = ic.Config.New(r, c.d.Daemon, c.send)
		if err != nil {
			return nil, err
		}
	}

	c.d.Daemon.Track(&c.t, "inlet/recorder")
	c.r.RegisterHealthcheck("recorder", reporter.ChannelHealthcheck(c.t.Context(context.Background()), c.healthcheck))
	if c.d.HTTP != nil {
		c.d.HTTP.GinRouter.GET("/api/v0/recorder/exporters", c.exportersHTTPHandler)
	}
	return &c, nil
}

// Start starts the writer, then the inputs.
func (c *Component) Start() error {
	c.r.Info().Str("path", c.config.Path).Msg("starting recorder component")
	w, err := c.openCapture()
	if err != nil {
		return err
	}
	c.t.Go(func() error {
		return c.runWriter(w)
	})
	for _, in := range c.inputs {
		if err := in.Start(); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops the inputs, then the writer once the queue is drained.
func (c *Component) Stop() error {
	defer c.r.Info().Msg("recorder component stopped")
	c.r.Info().Msg("stopping recorder component")
	var errs []error
	for _, in := range c.inputs {
		if err := in.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	c.t.Kill(nil)
	errs = append(errs, c.t.Wait())
	return errors.Join(errs...)
}

// send decodes a datagram from an input and queues it for writing.
func (c *Component) send(exporter string, datagram *input.Datagram) {
	packets, err := decodeDatagram(datagram.Payload)
	if err != nil {
		version := "unknown"
		if len(datagram.Payload) >= 2 {
			version = strconv.Itoa(int(binary.BigEndian.Uint16(datagram.Payload)))
		}
		c.metrics.decodeErrors.WithLabelValues(exporter, version).Inc()
		c.errLogger.Err(err).
			Str("exporter", exporter).
			Int("size", len(datagram.Payload)).
			Int("packets", len(packets)).
			Msg("unable to decode datagram")
		if !c.config.RecordInvalid {
			return
		}
	}

	for _, packet := range packets {
		h := packet.Header
		lost, reset := c.sequences.observe(exporter, h)
		c.metrics.packets.WithLabelValues(exporter).Inc()
		c.metrics.flows.WithLabelValues(exporter).Add(float64(len(packet.Records)))
		if lost > 0 {
			c.metrics.lostFlows.WithLabelValues(exporter).Add(float64(lost))
		}
		if reset {
			c.metrics.sequenceResets.WithLabelValues(exporter).Inc()
			c.r.Debug().
				Str("exporter", exporter).
				Uint32("sequence", h.FlowSequence).
				Msg("flow sequence went backward")
		}
	}

	// The input reuses its buffer.
	payload := make([]byte, len(datagram.Payload))
	copy(payload, datagram.Payload)
	select {
	case c.queue <- payload:
	case <-c.t.Dying():
	}
}

// decodeDatagram decodes all the packets of a datagram. On error, the
// packets decoded before the error are returned with it.
func decodeDatagram(payload []byte) ([]netflowv5.Packet, error) {
	packets := []netflowv5.Packet{}
	for {
		packet, rest, err := netflowv5.DecodePacket(payload)
		if err != nil {
			return packets, err
		}
		packets = append(packets, packet)
		if len(rest) == 0 {
			return packets, nil
		}
		payload = rest
	}
}
