// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package exporter simulates a NetFlow v5 exporter.
package exporter

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"gopkg.in/tomb.v2"

	"rflow/common/daemon"
	"rflow/common/reporter"
)

// Component represents the exporter component.
type Component struct {
	r      *reporter.Reporter
	d      *Dependencies
	t      tomb.Tomb
	config Configuration

	metrics struct {
		packets reporter.Counter
		flows   reporter.Counter
		errors  *reporter.CounterVec
	}
}

// Dependencies define the dependencies of the exporter component.
type Dependencies struct {
	Daemon daemon.Component
	Clock  clock.Clock
}

// New creates a new exporter component.
func New(r *reporter.Reporter, config Configuration, dependencies Dependencies) (*Component, error) {
	if !config.SrcNet.Addr().Is4() || !config.DstNet.Addr().Is4() {
		return nil, errors.New("source and destination networks should be IPv4 prefixes")
	}
	if dependencies.Clock == nil {
		dependencies.Clock = clock.New()
	}
	c := Component{
		r:      r,
		d:      &dependencies,
		config: config,
	}

	c.metrics.packets = c.r.Counter(
		reporter.CounterOpts{
			Name: "sent_packets_total",
			Help: "Number of packets sent.",
		},
	)
	c.metrics.flows = c.r.Counter(
		reporter.CounterOpts{
			Name: "sent_flows_total",
			Help: "Number of flow records sent.",
		},
	)
	c.metrics.errors = c.r.CounterVec(
		reporter.CounterOpts{
			Name: "errors_total",
			Help: "Number of transmission errors.",
		},
		[]string{"error"},
	)

	c.d.Daemon.Track(&c.t, "exporter")
	return &c, nil
}

// Start starts the exporter component.
func (c *Component) Start() error {
	c.r.Info().Str("target", c.config.Target).Msg("starting exporter component")
	conn, err := net.Dial("udp", c.config.Target)
	if err != nil {
		return fmt.Errorf("cannot create socket to %q: %w", c.config.Target, err)
	}

	g := newGenerator(c.config, c.d.Clock.Now())
	ticker := c.d.Clock.Ticker(c.config.Interval)
	errLogger := c.r.Sample(reporter.BurstSampler(time.Minute, 10))

	c.t.Go(func() error {
		defer conn.Close()
		defer ticker.Stop()
		for {
			select {
			case <-c.t.Dying():
				return nil
			case now := <-ticker.C:
				for i := 0; i < c.config.Packets; i++ {
					p := g.packet(now)
					payload, err := p.Encode()
					if err != nil {
						c.metrics.errors.WithLabelValues("cannot encode").Inc()
						errLogger.Err(err).Msg("unable to encode packet")
						continue
					}
					if _, err := conn.Write(payload); err != nil {
						c.metrics.errors.WithLabelValues("cannot write").Inc()
						errLogger.Err(err).Msg("unable to send UDP payload")
						continue
					}
					c.metrics.packets.Inc()
					c.metrics.flows.Add(float64(len(p.Records)))
				}
			}
		}
	})
	return nil
}

// Stop stops the exporter component.
func (c *Component) Stop() error {
	defer c.r.Info().Msg("exporter component stopped")
	c.r.Info().Msg("stopping the exporter component")
	c.t.Kill(nil)
	return c.t.Wait()
}
