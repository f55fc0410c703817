// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package exporter

import (
	"math/bits"
	"math/rand"
	"net/netip"
	"time"

	"rflow/common/netflowv5"
)

// generator builds consecutive packets for one exporter. It is not
// safe for concurrent use.
type generator struct {
	config   Configuration
	rand     *rand.Rand
	start    time.Time
	sequence uint32
}

func newGenerator(config Configuration, start time.Time) *generator {
	return &generator{
		config: config,
		rand:   rand.New(rand.NewSource(config.Seed)),
		start:  start,
	}
}

// randomIP returns a random IP in the provided prefix.
func randomIP(prefix netip.Prefix, r *rand.Rand) netip.Addr {
	prefix = prefix.Masked()
	result := prefix.Addr().AsSlice()
	for i := range result {
		if prefix.Bits() >= (i+1)*8 {
			continue
		}
		shiftMask := max(prefix.Bits()-i*8, 0)
		randomByte := byte(r.Int31n(256))
		randomByte &= ^bits.Reverse8(byte((1 << shiftMask) - 1))
		result[i] |= randomByte
	}
	addr, _ := netip.AddrFromSlice(result)
	return addr
}

// chooseRandom returns a random value from a slice
func chooseRandom[T any](r *rand.Rand, slice []T) T {
	switch len(slice) {
	case 0:
		var result T
		return result
	case 1:
		return slice[0]
	}
	return slice[r.Intn(len(slice))]
}

// packet generates the next packet, exported at the provided time.
// Uptime is expressed in seconds since the generator was created.
func (g *generator) packet(now time.Time) netflowv5.Packet {
	uptime := uint32(max(now.Sub(g.start), 0) / time.Second)
	p := netflowv5.Packet{
		Header: netflowv5.Header{
			Version:          netflowv5.Version,
			Count:            uint16(g.config.RecordsPerPacket),
			SysUptime:        uptime,
			UnixSecs:         uint32(now.Unix()),
			UnixNsecs:        uint32(now.Nanosecond()),
			FlowSequence:     g.sequence,
			EngineType:       g.config.EngineType,
			EngineID:         g.config.EngineID,
			SamplingInterval: g.config.SamplingInterval,
			Timestamp:        now.UTC(),
		},
		Records: make([]netflowv5.Record, 0, g.config.RecordsPerPacket),
	}
	r := g.rand
	for i := 0; i < g.config.RecordsPerPacket; i++ {
		duration := uint32(r.Int31n(60))
		record := netflowv5.Record{
			SrcAddr: randomIP(g.config.SrcNet, r),
			DstAddr: randomIP(g.config.DstNet, r),
			NextHop: netip.IPv4Unspecified(),
			Input:   chooseRandom(r, g.config.InIfIndex),
			Output:  chooseRandom(r, g.config.OutIfIndex),
			Packets: uint32(r.Int31n(100) + 1),
			First:   uptime - min(duration, uptime),
			Last:    uptime,
			SrcAS:   chooseRandom(r, g.config.SrcAS),
			DstAS:   chooseRandom(r, g.config.DstAS),
			SrcMask: uint8(g.config.SrcNet.Bits()),
			DstMask: uint8(g.config.DstNet.Bits()),
		}
		record.Octets = record.Packets * uint32(r.Int31n(1436)+64)
		switch chooseRandom(r, g.config.Protocol) {
		case "tcp":
			record.Protocol = 6
			record.TCPFlags = 0x1b
		case "udp":
			record.Protocol = 17
		case "icmp":
			record.Protocol = 1
		}
		if record.Protocol != 1 {
			if record.SrcPort = chooseRandom(r, g.config.SrcPort); record.SrcPort == 0 {
				record.SrcPort = uint16(r.Int31n(2000) + 33000)
			}
			if record.DstPort = chooseRandom(r, g.config.DstPort); record.DstPort == 0 {
				record.DstPort = uint16(r.Int31n(2000) + 33000)
			}
		}
		p.Records = append(p.Records, record)
	}
	g.sequence += uint32(len(p.Records))
	return p
}
