// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package exporter

import (
	"errors"
	"net"
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"rflow/common/daemon"
	"rflow/common/helpers"
	"rflow/common/netflowv5"
	"rflow/common/reporter"
)

func TestSendPackets(t *testing.T) {
	// UDP listener
	receiver, err := net.ListenUDP("udp", &net.UDPAddr{
		IP:   net.ParseIP("127.0.0.1"),
		Port: 0,
	})
	if err != nil {
		t.Fatalf("ListenUDP() error:\n%+v", err)
	}
	defer receiver.Close()

	r := reporter.NewMock(t)
	mockClock := clock.NewMock()
	config := DefaultConfiguration()
	config.Target = receiver.LocalAddr().String()
	config.Packets = 2
	config.RecordsPerPacket = 3
	config.EngineType = 1
	c, err := New(r, config, Dependencies{
		Daemon: daemon.NewMock(t),
		Clock:  mockClock,
	})
	if err != nil {
		t.Fatalf("New() error:\n%+v", err)
	}
	mockClock.Set(time.Date(2022, 3, 15, 9, 14, 12, 0, time.UTC))
	helpers.StartStop(t, c)
	mockClock.Add(1 * time.Second)

	receiver.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	got := []netflowv5.Header{}
	for {
		payload := make([]byte, 9000)
		n, err := receiver.Read(payload)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				break
			}
			t.Fatalf("Read() error:\n%+v", err)
		}
		packet, rest, err := netflowv5.DecodePacket(payload[:n])
		if err != nil {
			t.Errorf("DecodePacket() error:\n%+v", err)
			continue
		}
		if len(rest) != 0 {
			t.Errorf("DecodePacket() left %d bytes", len(rest))
		}
		got = append(got, packet.Header)
	}
	// Records are checked in generate_test.go.
	exportTime := time.Date(2022, 3, 15, 9, 14, 13, 0, time.UTC)
	expected := []netflowv5.Header{
		{
			Version:      5,
			Count:        3,
			SysUptime:    1,
			UnixSecs:     1647335653,
			FlowSequence: 0,
			EngineType:   1,
			Timestamp:    exportTime,
		}, {
			Version:      5,
			Count:        3,
			SysUptime:    1,
			UnixSecs:     1647335653,
			FlowSequence: 3,
			EngineType:   1,
			Timestamp:    exportTime,
		},
	}
	if diff := helpers.Diff(got, expected); diff != "" {
		t.Fatalf("Read() (-got, +want):\n%s", diff)
	}

	gotMetrics := r.GetMetrics("rflow_exporter_", "sent_")
	expectedMetrics := map[string]string{
		`sent_packets_total`: "2",
		`sent_flows_total`:   "6",
	}
	if diff := helpers.Diff(gotMetrics, expectedMetrics); diff != "" {
		t.Fatalf("Metrics (-got, +want):\n%s", diff)
	}
}

func TestNewRejectsIPv6(t *testing.T) {
	r := reporter.NewMock(t)
	config := DefaultConfiguration()
	config.SrcNet = netip.MustParsePrefix("2001:db8::/64")
	if _, err := New(r, config, Dependencies{Daemon: daemon.NewMock(t)}); err == nil {
		t.Fatal("New() did not error")
	}
}
