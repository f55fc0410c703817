// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package udp

import (
	"context"
	"errors"
	"net"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"

	"rflow/common/reporter"
)

// cmpIgnoreDrops ignores the kernel drop gauge, only present on Linux.
var cmpIgnoreDrops = cmp.FilterPath(func(p cmp.Path) bool {
	if mi, ok := p.Last().(cmp.MapIndex); ok {
		return strings.HasPrefix(mi.Key().String(), "in_dropped_packets")
	}
	return false
}, cmp.Ignore())

func TestParseSocketControlMessage(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("Skip Linux-only test")
	}
	r := reporter.NewMock(t)
	server, err := listenConfig(r, udpSocketOptions).
		ListenPacket(context.Background(), "udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error:\n%+v", err)
	}
	defer server.Close()

	client, err := net.Dial("udp", server.LocalAddr().String())
	if err != nil {
		t.Fatalf("Dial() error:\n%+v", err)
	}
	defer client.Close()

	overflow := false
outer:
	for _, count := range []int{100, 1000, 10_000, 100_000} {
		for i := 0; i < count; i++ {
			client.Write([]byte("hello"))
		}
		payload := make([]byte, 1000)
		server.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		for i := 0; i < count; i++ {
			if _, _, err := server.ReadFrom(payload); errors.Is(err, os.ErrDeadlineExceeded) {
				overflow = true
				break outer
			}
		}
	}
	if !overflow {
		t.Skip("unable to trigger an overflow")
	}

	server.SetReadDeadline(time.Time{})
	if _, err := client.Write([]byte("bye bye")); err != nil {
		t.Fatalf("Write() error:\n%+v", err)
	}
	payload := make([]byte, 1000)
	oob := make([]byte, oobLength)
	n, oobn, _, _, err := server.(*net.UDPConn).ReadMsgUDPAddrPort(payload, oob)
	if err != nil {
		t.Fatalf("ReadMsgUDPAddrPort() error:\n%+v", err)
	}
	if string(payload[:n]) != "bye bye" {
		t.Errorf("ReadMsgUDPAddrPort() (-got, +want):\n-%s\n+%s", string(payload[:n]), "bye bye")
	}

	oobMsg, err := parseSocketControlMessage(oob[:oobn])
	if err != nil {
		t.Fatalf("parseSocketControlMessage() error:\n%+v", err)
	}
	if oobMsg.Drops == 0 {
		t.Error("no drops detected")
	}
	if delta := time.Since(oobMsg.Received); !oobMsg.Received.IsZero() && (delta < 0 || delta > 5*time.Second) {
		t.Errorf("received timestamp out of range: %s", oobMsg.Received)
	}
}

func TestListenConfig(t *testing.T) {
	r := reporter.NewMock(t)

	t.Run("one mandatory option", func(t *testing.T) {
		conn, err := listenConfig(r, []socketOption{
			{
				Name:      "SO_REUSEADDR",
				Level:     unix.SOL_SOCKET,
				Option:    unix.SO_REUSEADDR,
				Mandatory: true,
			},
		}).ListenPacket(context.Background(), "udp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("ListenPacket() error:\n%+v", err)
		}
		conn.Close()
	})

	t.Run("one mandatory not implemented option", func(t *testing.T) {
		_, err := listenConfig(r, []socketOption{
			{
				Name:      "SO_UNKNOWN",
				Level:     unix.SOL_SOCKET,
				Option:    9999,
				Mandatory: true,
			},
		}).ListenPacket(context.Background(), "udp", "127.0.0.1:0")
		if err == nil {
			t.Fatal("ListenPacket() did not error")
		}
	})

	t.Run("one optional not implemented option", func(t *testing.T) {
		conn, err := listenConfig(r, []socketOption{
			{
				Name:   "SO_UNKNOWN",
				Level:  unix.SOL_SOCKET,
				Option: 9999,
			},
		}).ListenPacket(context.Background(), "udp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("ListenPacket() error:\n%+v", err)
		}
		conn.Close()
	})
}
