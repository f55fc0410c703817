// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build !release

package helpers

import (
	"net"
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// PcapDatagram is a UDP datagram to be written in a pcap file.
type PcapDatagram struct {
	Timestamp time.Time
	Source    netip.AddrPort
	Target    netip.AddrPort
	Payload   []byte
}

// WritePcap writes the provided IPv4 UDP datagrams in an Ethernet pcap file.
func WritePcap(t testing.TB, pcapfile string, datagrams []PcapDatagram) {
	t.Helper()
	f, err := os.Create(pcapfile)
	if err != nil {
		t.Fatalf("Create(%q) error:\n%+v", pcapfile, err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("WriteFileHeader() error:\n%+v", err)
	}
	for _, d := range datagrams {
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
			DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    d.Source.Addr().AsSlice(),
			DstIP:    d.Target.Addr().AsSlice(),
		}
		udp := &layers.UDP{
			SrcPort: layers.UDPPort(d.Source.Port()),
			DstPort: layers.UDPPort(d.Target.Port()),
		}
		udp.SetNetworkLayerForChecksum(ip)
		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(d.Payload)); err != nil {
			t.Fatalf("SerializeLayers() error:\n%+v", err)
		}
		data := buf.Bytes()
		ci := gopacket.CaptureInfo{
			Timestamp:     d.Timestamp,
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatalf("WritePacket() error:\n%+v", err)
		}
	}
}
