// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package pcap handles pcap captures as an input. The UDP payloads found
// in the captures are sent once, in order, with the capture timestamps.
package pcap

import (
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"gopkg.in/tomb.v2"

	"rflow/common/daemon"
	"rflow/common/reporter"
	"rflow/inlet/input"
)

// Input represents the state of a pcap input.
type Input struct {
	r      *reporter.Reporter
	t      tomb.Tomb
	config *Configuration
	send   input.SendFunc

	metrics struct {
		packets *reporter.CounterVec
		skipped *reporter.CounterVec
	}
}

// New instantiates a new pcap input from the provided configuration.
func (configuration *Configuration) New(r *reporter.Reporter, daemon daemon.Component, send input.SendFunc) (input.Input, error) {
	if len(configuration.Paths) == 0 {
		return nil, errors.New("no paths provided for pcap input")
	}
	in := &Input{
		r:      r,
		config: configuration,
		send:   send,
	}
	in.metrics.packets = r.CounterVec(
		reporter.CounterOpts{
			Name: "packets_total",
			Help: "UDP datagrams extracted from captures.",
		},
		[]string{"path", "exporter"},
	)
	in.metrics.skipped = r.CounterVec(
		reporter.CounterOpts{
			Name: "skipped_packets_total",
			Help: "Captured packets skipped because they are not matching UDP datagrams.",
		},
		[]string{"path"},
	)
	daemon.Track(&in.t, "inlet/input/pcap")
	return in, nil
}

// Start starts reading the captures.
func (in *Input) Start() error {
	in.r.Info().Strs("paths", in.config.Paths).Msg("starting pcap input")
	in.t.Go(func() error {
		for _, path := range in.config.Paths {
			if err := in.replay(path); err != nil {
				in.r.Err(err).Str("path", path).Msg("unable to replay capture")
				return err
			}
			select {
			case <-in.t.Dying():
				return nil
			default:
			}
		}
		in.r.Info().Msg("all captures replayed")
		return nil
	})
	return nil
}

// packetReader is implemented by pcap and pcapng readers.
type packetReader interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

func openCapture(f *os.File) (packetReader, error) {
	reader, err := pcapgo.NewReader(f)
	if err == nil {
		return reader, nil
	}
	if _, serr := f.Seek(0, io.SeekStart); serr != nil {
		return nil, serr
	}
	ngReader, ngErr := pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	if ngErr != nil {
		return nil, fmt.Errorf("not a pcap (%v) nor a pcapng (%v) file", err, ngErr)
	}
	return ngReader, nil
}

// replay sends the UDP datagrams of one capture.
func (in *Input) replay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open %q: %w", path, err)
	}
	defer f.Close()
	reader, err := openCapture(f)
	if err != nil {
		return fmt.Errorf("unable to read %q: %w", path, err)
	}

	source := gopacket.NewPacketSource(reader, reader.LinkType())
	source.NoCopy = true
	source.Lazy = true
	var datagram input.Datagram
	for {
		select {
		case <-in.t.Dying():
			return nil
		default:
		}
		packet, err := source.NextPacket()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("unable to read packet from %q: %w", path, err)
		}

		var srcAddr netip.Addr
		switch network := packet.NetworkLayer().(type) {
		case *layers.IPv4:
			srcAddr, _ = netip.AddrFromSlice(network.SrcIP)
		case *layers.IPv6:
			srcAddr, _ = netip.AddrFromSlice(network.SrcIP)
		}
		udp, ok := packet.TransportLayer().(*layers.UDP)
		if !ok || !srcAddr.IsValid() || (in.config.Port != 0 && uint16(udp.DstPort) != in.config.Port) {
			in.metrics.skipped.WithLabelValues(path).Inc()
			continue
		}

		srcAddr = srcAddr.Unmap()
		exporter := srcAddr.String()
		in.metrics.packets.WithLabelValues(path, exporter).Inc()
		datagram = input.Datagram{
			TimeReceived: packet.Metadata().Timestamp,
			Source:       srcAddr,
			Payload:      udp.Payload,
		}
		in.send(exporter, &datagram)
	}
}

// Stop stops the pcap input.
func (in *Input) Stop() error {
	defer in.r.Info().Msg("pcap input stopped")
	in.t.Kill(nil)
	return in.t.Wait()
}
