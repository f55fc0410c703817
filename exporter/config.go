// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package exporter

import (
	"net/netip"
	"time"
)

// Configuration describes the configuration for the exporter component.
type Configuration struct {
	// Target specify the IP address and port to send packets to.
	Target string `validate:"required,listen"`
	// Interval is the time between two bursts of packets.
	Interval time.Duration `validate:"min=1ms"`
	// Packets is the number of packets sent on each tick.
	Packets int `validate:"min=1"`
	// RecordsPerPacket is the number of flow records in each packet.
	RecordsPerPacket int `validate:"min=1,max=30"`
	// EngineType and EngineID identify the flow switching engine.
	EngineType uint8
	EngineID   uint8
	// SamplingInterval is copied as is in each header.
	SamplingInterval uint16
	// SrcNet defines the IPv4 source network to use
	SrcNet netip.Prefix
	// DstNet defines the IPv4 destination network to use
	DstNet netip.Prefix
	// InIfIndex defines the input interfaces
	InIfIndex []uint16 `validate:"min=1"`
	// OutIfIndex defines the output interfaces
	OutIfIndex []uint16 `validate:"min=1"`
	// SrcAS defines the source AS numbers to use
	SrcAS []uint16
	// DstAS defines the destination AS numbers to use
	DstAS []uint16
	// SrcPort defines the source ports to use. When empty, a random
	// ephemeral port is used.
	SrcPort []uint16
	// DstPort defines the destination ports to use
	DstPort []uint16
	// Protocol defines the IP protocols to use
	Protocol []string `validate:"min=1,dive,oneof=tcp udp icmp"`
	// Seed defines a seed to add to the random generator. Without
	// one, all exporters will produce the same data.
	Seed int64
}

// DefaultConfiguration represents the default configuration for the exporter component.
func DefaultConfiguration() Configuration {
	return Configuration{
		Target:           "127.0.0.1:2055",
		Interval:         time.Second,
		Packets:          1,
		RecordsPerPacket: 30,
		SrcNet:           netip.MustParsePrefix("192.0.2.0/24"),
		DstNet:           netip.MustParsePrefix("203.0.113.0/24"),
		InIfIndex:        []uint16{10},
		OutIfIndex:       []uint16{20},
		SrcAS:            []uint16{65201},
		DstAS:            []uint16{65202},
		Protocol:         []string{"tcp", "udp"},
	}
}
