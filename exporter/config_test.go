// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package exporter

import (
	"net/netip"
	"testing"
	"time"

	"rflow/common/helpers"
)

func TestDefaultConfiguration(t *testing.T) {
	if err := helpers.Validate.Struct(DefaultConfiguration()); err != nil {
		t.Fatalf("validate.Struct() error:\n%+v", err)
	}
}

func TestDecodeConfiguration(t *testing.T) {
	helpers.TestConfigurationDecode(t, helpers.ConfigurationDecodeCases{
		{
			Description: "overrides",
			Initial:     func() any { return DefaultConfiguration() },
			Configuration: func() any {
				return map[string]any{
					"target":             "192.0.2.10:2055",
					"interval":           "500ms",
					"packets":            3,
					"records-per-packet": 10,
					"src-net":            "198.51.100.0/25",
					"dst-port":           []int{53, 443},
					"protocol":           []string{"icmp"},
					"seed":               42,
				}
			},
			Expected: Configuration{
				Target:           "192.0.2.10:2055",
				Interval:         500 * time.Millisecond,
				Packets:          3,
				RecordsPerPacket: 10,
				SrcNet:           netip.MustParsePrefix("198.51.100.0/25"),
				DstNet:           netip.MustParsePrefix("203.0.113.0/24"),
				InIfIndex:        []uint16{10},
				OutIfIndex:       []uint16{20},
				SrcAS:            []uint16{65201},
				DstAS:            []uint16{65202},
				DstPort:          []uint16{53, 443},
				Protocol:         []string{"icmp"},
				Seed:             42,
			},
		}, {
			Description: "too many records",
			Initial:     func() any { return DefaultConfiguration() },
			Configuration: func() any {
				return map[string]any{"records-per-packet": 31}
			},
			Error: true,
		}, {
			Description: "unknown protocol",
			Initial:     func() any { return DefaultConfiguration() },
			Configuration: func() any {
				return map[string]any{"protocol": []string{"sctp"}}
			},
			Error: true,
		}, {
			Description: "missing target",
			Initial:     func() any { return DefaultConfiguration() },
			Configuration: func() any {
				return map[string]any{"target": ""}
			},
			Error: true,
		},
	})
}
