// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package netflowv5

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// Packet is a decoded NetFlow v5 packet.
type Packet struct {
	Header  Header
	Records []Record
}

// DecodePacket decodes a header followed by exactly Count records. On
// error, a zero packet is returned: nothing partial.
func DecodePacket(b []byte) (Packet, []byte, error) {
	header, b, err := DecodeHeader(b)
	if err != nil {
		return Packet{}, nil, err
	}
	if len(b) < int(header.Count)*RecordLength {
		return Packet{}, nil, ErrInsufficientBytes
	}
	records := make([]Record, 0, header.Count)
	for i := uint16(0); i < header.Count; i++ {
		var record Record
		if record, b, err = DecodeRecord(b); err != nil {
			return Packet{}, nil, err
		}
		records = append(records, record)
	}
	return Packet{Header: header, Records: records}, b, nil
}

// Length returns the length of the packet on the wire.
func (p Packet) Length() int {
	return HeaderLength + len(p.Records)*RecordLength
}

// Encode returns the wire representation of the packet. The version is
// always 5, Count is the number of records and padding is zero. Timestamp
// is ignored in favor of UnixSecs and UnixNsecs.
func (p Packet) Encode() ([]byte, error) {
	if len(p.Records) > 0xffff {
		return nil, fmt.Errorf("too many records (%d)", len(p.Records))
	}
	b := make([]byte, 0, p.Length())
	h := p.Header
	b = binary.BigEndian.AppendUint16(b, Version)
	b = binary.BigEndian.AppendUint16(b, uint16(len(p.Records)))
	b = binary.BigEndian.AppendUint32(b, h.SysUptime)
	b = binary.BigEndian.AppendUint32(b, h.UnixSecs)
	b = binary.BigEndian.AppendUint32(b, h.UnixNsecs)
	b = binary.BigEndian.AppendUint32(b, h.FlowSequence)
	b = append(b, h.EngineType, h.EngineID)
	b = binary.BigEndian.AppendUint16(b, h.SamplingInterval)
	for i, r := range p.Records {
		for _, addr := range []netip.Addr{r.SrcAddr, r.DstAddr, r.NextHop} {
			var a [4]byte
			if addr.IsValid() {
				if !addr.Unmap().Is4() {
					return nil, fmt.Errorf("record %d: %s is not an IPv4 address", i, addr)
				}
				a = addr.Unmap().As4()
			}
			b = append(b, a[:]...)
		}
		b = binary.BigEndian.AppendUint16(b, r.Input)
		b = binary.BigEndian.AppendUint16(b, r.Output)
		b = binary.BigEndian.AppendUint32(b, r.Packets)
		b = binary.BigEndian.AppendUint32(b, r.Octets)
		b = binary.BigEndian.AppendUint32(b, r.First)
		b = binary.BigEndian.AppendUint32(b, r.Last)
		b = binary.BigEndian.AppendUint16(b, r.SrcPort)
		b = append(b, make([]byte, padAfterSrcPort)...)
		b = binary.BigEndian.AppendUint16(b, r.DstPort)
		b = append(b, r.TCPFlags, r.Protocol, r.ToS)
		b = binary.BigEndian.AppendUint16(b, r.SrcAS)
		b = binary.BigEndian.AppendUint16(b, r.DstAS)
		b = append(b, r.SrcMask, r.DstMask)
		b = append(b, make([]byte, padAfterDstMask)...)
	}
	return b, nil
}
