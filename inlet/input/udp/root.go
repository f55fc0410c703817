// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package udp handles UDP listeners.
package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"gopkg.in/tomb.v2"

	"rflow/common/daemon"
	"rflow/common/reporter"
	"rflow/inlet/input"
)

// maxDatagramSize is large enough for jumbo frames.
const maxDatagramSize = 9000

// Input represents the state of an UDP listener.
type Input struct {
	r      *reporter.Reporter
	t      tomb.Tomb
	config *Configuration

	metrics struct {
		bytes         *reporter.CounterVec
		packets       *reporter.CounterVec
		packetSizeSum *reporter.SummaryVec
		errors        *reporter.CounterVec
		inDrops       *reporter.GaugeVec
	}

	address net.Addr // listening address, for testing purpose
	send    input.SendFunc
}

// New instantiates a new UDP listener from the provided configuration.
func (configuration *Configuration) New(r *reporter.Reporter, daemon daemon.Component, send input.SendFunc) (input.Input, error) {
	in := &Input{
		r:      r,
		config: configuration,
		send:   send,
	}

	in.metrics.bytes = r.CounterVec(
		reporter.CounterOpts{
			Name: "bytes_total",
			Help: "Bytes received by the application.",
		},
		[]string{"listener", "worker", "exporter"},
	)
	in.metrics.packets = r.CounterVec(
		reporter.CounterOpts{
			Name: "packets_total",
			Help: "Packets received by the application.",
		},
		[]string{"listener", "worker", "exporter"},
	)
	in.metrics.packetSizeSum = r.SummaryVec(
		reporter.SummaryOpts{
			Name:       "size_bytes",
			Help:       "Summary of packet size.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"listener", "worker", "exporter"},
	)
	in.metrics.errors = r.CounterVec(
		reporter.CounterOpts{
			Name: "errors_total",
			Help: "Errors while receiving packets by the application.",
		},
		[]string{"listener", "worker"},
	)
	// The kernel reports a running total.
	in.metrics.inDrops = r.GaugeVec(
		reporter.GaugeOpts{
			Name: "in_dropped_packets",
			Help: "Dropped packets due to listen queue full.",
		},
		[]string{"listener", "worker"},
	)

	daemon.Track(&in.t, "inlet/input/udp")
	return in, nil
}

// Start starts listening to the provided UDP socket and producing datagrams.
func (in *Input) Start() error {
	in.r.Info().Str("listen", in.config.Listen).Msg("starting UDP input")

	conns := []*net.UDPConn{}
	closeAll := func() {
		for _, conn := range conns {
			conn.Close()
		}
	}
	lc := listenConfig(in.r, udpSocketOptions)
	for i := 0; i < in.config.Workers; i++ {
		listenAddr := in.config.Listen
		if in.address != nil {
			// Listen to the same port as the first worker (useful
			// with :0).
			listenAddr = in.address.String()
		}
		pconn, err := lc.ListenPacket(context.Background(), "udp", listenAddr)
		if err != nil {
			closeAll()
			return fmt.Errorf("unable to listen to %v: %w", listenAddr, err)
		}
		udpConn := pconn.(*net.UDPConn)
		in.address = udpConn.LocalAddr()
		if i == 0 {
			in.r.Info().Str("listen", in.address.String()).Msg("UDP input listening")
		}
		if in.config.ReceiveBuffer > 0 {
			if err := udpConn.SetReadBuffer(int(in.config.ReceiveBuffer)); err != nil {
				in.r.Warn().Err(err).
					Str("listen", in.config.Listen).
					Msgf("unable to set requested buffer size (%d bytes)", in.config.ReceiveBuffer)
			}
		}
		conns = append(conns, udpConn)
	}

	for i, conn := range conns {
		conn := conn
		worker := strconv.Itoa(i)
		in.t.Go(func() error {
			return in.receive(conn, worker)
		})
	}

	in.t.Go(func() error {
		<-in.t.Dying()
		closeAll()
		return nil
	})
	return nil
}

// receive reads datagrams from conn until it is closed.
func (in *Input) receive(conn *net.UDPConn, worker string) error {
	payload := make([]byte, maxDatagramSize)
	oob := make([]byte, oobLength)
	listen := in.config.Listen
	l := in.r.With().Str("worker", worker).Str("listen", listen).Logger()
	errLogger := l.Sample(reporter.BurstSampler(time.Minute, 1))
	dying := in.t.Dying()
	var datagram input.Datagram

	for {
		n, oobn, _, source, err := conn.ReadMsgUDPAddrPort(payload, oob)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			errLogger.Err(err).Msg("unable to receive UDP packet")
			in.metrics.errors.WithLabelValues(listen, worker).Inc()
			select {
			case <-dying:
				return nil
			default:
			}
			continue
		}

		oobMsg, err := parseSocketControlMessage(oob[:oobn])
		if err != nil {
			errLogger.Err(err).Msg("unable to decode UDP control message")
		} else {
			in.metrics.inDrops.WithLabelValues(listen, worker).Set(float64(oobMsg.Drops))
		}
		if oobMsg.Received.IsZero() {
			oobMsg.Received = time.Now()
		}

		srcAddr := source.Addr().Unmap()
		exporter := srcAddr.String()
		in.metrics.bytes.WithLabelValues(listen, worker, exporter).Add(float64(n))
		in.metrics.packets.WithLabelValues(listen, worker, exporter).Inc()
		in.metrics.packetSizeSum.WithLabelValues(listen, worker, exporter).Observe(float64(n))

		datagram = input.Datagram{
			TimeReceived: oobMsg.Received,
			Source:       srcAddr,
			Payload:      payload[:n],
		}
		in.send(exporter, &datagram)

		select {
		case <-dying:
			return nil
		default:
		}
	}
}

// Stop stops the UDP listeners.
func (in *Input) Stop() error {
	defer in.r.Info().Str("listen", in.config.Listen).Msg("UDP listener stopped")
	in.t.Kill(nil)
	return in.t.Wait()
}
