// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build linux

package udp

import (
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

var (
	oobLength        = syscall.CmsgSpace(4) + syscall.CmsgSpace(16) // uint32 + 2*int64
	udpSocketOptions = []socketOption{
		{
			Name:      "SO_REUSEADDR",
			Level:     unix.SOL_SOCKET,
			Option:    unix.SO_REUSEADDR,
			Mandatory: true,
		}, {
			Name:      "SO_REUSEPORT",
			Level:     unix.SOL_SOCKET,
			Option:    unix.SO_REUSEPORT,
			Mandatory: true,
		}, {
			// Number of dropped packets
			Name:   "SO_RXQ_OVFL",
			Level:  unix.SOL_SOCKET,
			Option: unix.SO_RXQ_OVFL,
		}, {
			Name:   "SO_TIMESTAMP_NEW",
			Level:  unix.SOL_SOCKET,
			Option: unix.SO_TIMESTAMP_NEW,
		},
	}
)

// parseSocketControlMessage extracts the number of drops (SO_RXQ_OVFL)
// and the receive timestamp (SO_TIMESTAMP_NEW) from control messages.
func parseSocketControlMessage(b []byte) (oobMessage, error) {
	result := oobMessage{}
	cmsgs, err := syscall.ParseSocketControlMessage(b)
	if err != nil {
		return result, err
	}
	for _, cmsg := range cmsgs {
		if cmsg.Header.Level != unix.SOL_SOCKET {
			continue
		}
		switch cmsg.Header.Type {
		case unix.SO_RXQ_OVFL:
			if len(cmsg.Data) >= 4 {
				result.Drops = *(*uint32)(unsafe.Pointer(&cmsg.Data[0]))
			}
		case unix.SO_TIMESTAMP_NEW:
			if len(cmsg.Data) >= 16 {
				sec := *(*int64)(unsafe.Pointer(&cmsg.Data[0]))
				usec := *(*int64)(unsafe.Pointer(&cmsg.Data[8]))
				result.Received = time.Unix(sec, usec*1000)
			}
		}
	}
	return result, nil
}
