// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package netflowv5

import (
	"net/netip"
	"time"
)

// Record is a NetFlow v5 flow record.
type Record struct {
	SrcAddr  netip.Addr `json:"src-addr" yaml:"src-addr"`
	DstAddr  netip.Addr `json:"dst-addr" yaml:"dst-addr"`
	NextHop  netip.Addr `json:"next-hop" yaml:"next-hop"`
	Input    uint16     `json:"input" yaml:"input"`
	Output   uint16     `json:"output" yaml:"output"`
	Packets  uint32     `json:"packets" yaml:"packets"`
	Octets   uint32     `json:"octets" yaml:"octets"`
	First    uint32     `json:"first" yaml:"first"` // SysUptime at flow start
	Last     uint32     `json:"last" yaml:"last"`   // SysUptime at flow end
	SrcPort  uint16     `json:"src-port" yaml:"src-port"`
	DstPort  uint16     `json:"dst-port" yaml:"dst-port"`
	TCPFlags uint8      `json:"tcp-flags" yaml:"tcp-flags"`
	Protocol uint8      `json:"protocol" yaml:"protocol"`
	ToS      uint8      `json:"tos" yaml:"tos"`
	SrcAS    uint16     `json:"src-as" yaml:"src-as"`
	DstAS    uint16     `json:"dst-as" yaml:"dst-as"`
	SrcMask  uint8      `json:"src-mask" yaml:"src-mask"`
	DstMask  uint8      `json:"dst-mask" yaml:"dst-mask"`
}

func readAddr(b []byte) (netip.Addr, []byte, error) {
	if len(b) < 4 {
		return netip.Addr{}, b, ErrInsufficientBytes
	}
	return netip.AddrFrom4([4]byte(b[:4])), b[4:], nil
}

// DecodeRecord decodes a flow record from the start of b.
func DecodeRecord(b []byte) (Record, []byte, error) {
	var (
		r   Record
		err error
	)
	if r.SrcAddr, b, err = readAddr(b); err != nil {
		return Record{}, nil, err
	}
	if r.DstAddr, b, err = readAddr(b); err != nil {
		return Record{}, nil, err
	}
	if r.NextHop, b, err = readAddr(b); err != nil {
		return Record{}, nil, err
	}
	if r.Input, b, err = readUint16(b); err != nil {
		return Record{}, nil, err
	}
	if r.Output, b, err = readUint16(b); err != nil {
		return Record{}, nil, err
	}
	if r.Packets, b, err = readUint32(b); err != nil {
		return Record{}, nil, err
	}
	if r.Octets, b, err = readUint32(b); err != nil {
		return Record{}, nil, err
	}
	if r.First, b, err = readUint32(b); err != nil {
		return Record{}, nil, err
	}
	if r.Last, b, err = readUint32(b); err != nil {
		return Record{}, nil, err
	}
	if r.SrcPort, b, err = readUint16(b); err != nil {
		return Record{}, nil, err
	}
	if b, err = skip(b, padAfterSrcPort); err != nil {
		return Record{}, nil, err
	}
	if r.DstPort, b, err = readUint16(b); err != nil {
		return Record{}, nil, err
	}
	if r.TCPFlags, b, err = readUint8(b); err != nil {
		return Record{}, nil, err
	}
	if r.Protocol, b, err = readUint8(b); err != nil {
		return Record{}, nil, err
	}
	if r.ToS, b, err = readUint8(b); err != nil {
		return Record{}, nil, err
	}
	if r.SrcAS, b, err = readUint16(b); err != nil {
		return Record{}, nil, err
	}
	if r.DstAS, b, err = readUint16(b); err != nil {
		return Record{}, nil, err
	}
	if r.SrcMask, b, err = readUint8(b); err != nil {
		return Record{}, nil, err
	}
	if r.DstMask, b, err = readUint8(b); err != nil {
		return Record{}, nil, err
	}
	if b, err = skip(b, padAfterDstMask); err != nil {
		return Record{}, nil, err
	}
	return r, b, nil
}

// When returns the start and end of the flow as wall-clock times, using
// the header of the packet containing the record. First and Last are
// offset from the header SysUptime, in seconds, and may be in the past.
func (r Record) When(h Header) (time.Time, time.Time) {
	start := int64(r.First) - int64(h.SysUptime)
	end := int64(r.Last) - int64(h.SysUptime)
	return h.Timestamp.Add(time.Duration(start) * time.Second),
		h.Timestamp.Add(time.Duration(end) * time.Second)
}
