// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package exporter

import (
	"fmt"
	"math/rand"
	"net/netip"
	"slices"
	"testing"
	"time"

	"rflow/common/helpers"
	"rflow/common/netflowv5"
)

func TestRandomIP(t *testing.T) {
	prefixes := []string{
		"192.168.0.0/24",
		"192.168.0.0/16",
		"172.16.0.0/12",
		"192.168.14.1/32",
		"192.168.14.1/24",
		"0.0.0.0/0",
	}
	r := rand.New(rand.NewSource(0))
	for _, p := range prefixes {
		prefix := netip.MustParsePrefix(p)
		for i := 0; i < 1000; i++ {
			ip := randomIP(prefix, r)
			if !prefix.Contains(ip) {
				t.Errorf("randomIP(%q) == %q not in prefix", p, ip)
				break
			}
		}
	}
}

func TestChooseRandom(t *testing.T) {
	cases := [][]int{
		nil,
		{6},
		{1, 2, 3, 4, 10, 12},
	}
	r := rand.New(rand.NewSource(0))
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%v", tc), func(t *testing.T) {
			results := map[int]bool{}
			for i := 0; i < 100; i++ {
				result := chooseRandom(r, tc)
				results[result] = true
				if len(tc) == 0 {
					if result != 0 {
						t.Fatalf("chooseRandom() == %d instead of 0", result)
					}
					break
				}
				if !slices.Contains(tc, result) {
					t.Fatalf("chooseRandom() returned %d, not in slice", result)
				}
			}
			if len(tc) != 0 && len(results) != len(tc) {
				t.Fatalf("chooseRandom() did not explore all results (only %d)",
					len(results))
			}
		})
	}
}

func TestGeneratePacket(t *testing.T) {
	config := DefaultConfiguration()
	config.EngineID = 4
	config.SamplingInterval = 100
	config.DstPort = []uint16{443}
	start := time.Date(2022, 3, 15, 9, 14, 12, 0, time.UTC)
	g := newGenerator(config, start)

	now := start.Add(10*time.Second + 500*time.Millisecond)
	first := g.packet(now)
	second := g.packet(now.Add(time.Second))

	expectedHeader := netflowv5.Header{
		Version:          5,
		Count:            30,
		SysUptime:        10,
		UnixSecs:         1647335662,
		UnixNsecs:        500_000_000,
		FlowSequence:     0,
		EngineID:         4,
		SamplingInterval: 100,
		Timestamp:        now,
	}
	if diff := helpers.Diff(first.Header, expectedHeader); diff != "" {
		t.Fatalf("packet() header (-got, +want):\n%s", diff)
	}
	if second.Header.FlowSequence != 30 || second.Header.SysUptime != 11 {
		t.Fatalf("packet() second header sequence %d, uptime %d, expected 30 and 11",
			second.Header.FlowSequence, second.Header.SysUptime)
	}

	for i, record := range first.Records {
		if !config.SrcNet.Contains(record.SrcAddr) || !config.DstNet.Contains(record.DstAddr) {
			t.Errorf("packet() record %d: %s -> %s outside of configured networks",
				i, record.SrcAddr, record.DstAddr)
		}
		if record.Last != 10 || record.First > record.Last {
			t.Errorf("packet() record %d: first %d, last %d", i, record.First, record.Last)
		}
		if record.Protocol != 6 && record.Protocol != 17 {
			t.Errorf("packet() record %d: protocol %d", i, record.Protocol)
		}
		if record.DstPort != 443 || record.SrcPort < 33000 || record.SrcPort >= 35000 {
			t.Errorf("packet() record %d: ports %d -> %d", i, record.SrcPort, record.DstPort)
		}
		if record.SrcMask != 24 || record.DstMask != 24 {
			t.Errorf("packet() record %d: masks %d and %d", i, record.SrcMask, record.DstMask)
		}
		if _, end := record.When(first.Header); !end.Equal(now) {
			t.Errorf("packet() record %d: end at %s", i, end)
		}
	}

	// Generated packets decode back to themselves.
	payload, err := first.Encode()
	if err != nil {
		t.Fatalf("Encode() error:\n%+v", err)
	}
	got, rest, err := netflowv5.DecodePacket(payload)
	if err != nil {
		t.Fatalf("DecodePacket() error:\n%+v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("DecodePacket() left %d bytes", len(rest))
	}
	if diff := helpers.Diff(got, first); diff != "" {
		t.Fatalf("DecodePacket() (-got, +want):\n%s", diff)
	}
}

func TestGeneratorSeed(t *testing.T) {
	start := time.Date(2022, 3, 15, 9, 14, 12, 0, time.UTC)
	now := start.Add(time.Minute)
	config := DefaultConfiguration()
	p1 := newGenerator(config, start).packet(now)
	p2 := newGenerator(config, start).packet(now)
	if diff := helpers.Diff(p1, p2); diff != "" {
		t.Fatalf("packet() with same seed (-got, +want):\n%s", diff)
	}
	config.Seed = 1
	p3 := newGenerator(config, start).packet(now)
	if diff := helpers.Diff(p1.Records, p3.Records); diff == "" {
		t.Fatal("packet() with different seeds produced the same records")
	}
}
