// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package netflowv5

import (
	"encoding/hex"
	"errors"
	"net/netip"
	"strings"
	"testing"
	"time"

	"rflow/common/helpers"
)

// fromHex decodes an hexadecimal string, ignoring spaces.
func fromHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		t.Fatalf("hex.DecodeString() error:\n%+v", err)
	}
	return b
}

const (
	headerHex = "0005 0002 00000004 00000010 00000011 00000012 20 44 0010"
	recordHex = `c0a8012a c0a8012c c0a8012e 0008 0010 00000028 0000a1f3
00000010 0000001a 0035 5b 7300 00 11 01 fc00 fc00 ff ff 0000`
	// Three records generated by a third-party exporter.
	thirdPartyHex = `
00050003000379a35e80c58622a55ab00000000000000000
ac110002ac11000100000000000000000000000a0000034800002f4c0000527600000800000001000000000000000000
ac110001ac11000200000000000000000000000a0000034800002f4c0000527600000000000001000000000000000000
ac110001e00000fb000000000000000000000001000000a90000e01c0000e01c14e914e9000011000000000000000000`
)

func expectedHeader() Header {
	return Header{
		Version:          5,
		Count:            2,
		SysUptime:        4,
		UnixSecs:         16,
		UnixNsecs:        17,
		FlowSequence:     18,
		EngineType:       32,
		EngineID:         68,
		SamplingInterval: 16,
		Timestamp:        time.Unix(16, 17).UTC(),
	}
}

func expectedRecord() Record {
	return Record{
		SrcAddr:  netip.MustParseAddr("192.168.1.42"),
		DstAddr:  netip.MustParseAddr("192.168.1.44"),
		NextHop:  netip.MustParseAddr("192.168.1.46"),
		Input:    8,
		Output:   16,
		Packets:  40,
		Octets:   41459,
		First:    16,
		Last:     26,
		SrcPort:  53,
		DstPort:  29440,
		TCPFlags: 0,
		Protocol: 17,
		ToS:      1,
		SrcAS:    64512,
		DstAS:    64512,
		SrcMask:  255,
		DstMask:  255,
	}
}

func TestReaders(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	u8, rest, err := readUint8(b)
	if err != nil || u8 != 1 || len(rest) != 6 {
		t.Errorf("readUint8() == %d, %d bytes, %v", u8, len(rest), err)
	}
	u16, rest, err := readUint16(rest)
	if err != nil || u16 != 0x0203 || len(rest) != 4 {
		t.Errorf("readUint16() == %d, %d bytes, %v", u16, len(rest), err)
	}
	u32, rest, err := readUint32(rest)
	if err != nil || u32 != 0x04050607 || len(rest) != 0 {
		t.Errorf("readUint32() == %d, %d bytes, %v", u32, len(rest), err)
	}
	if _, _, err := readUint8(rest); !errors.Is(err, ErrInsufficientBytes) {
		t.Errorf("readUint8() error == %v", err)
	}
	if _, _, err := readUint16(b[:1]); !errors.Is(err, ErrInsufficientBytes) {
		t.Errorf("readUint16() error == %v", err)
	}
	if _, _, err := readUint32(b[:3]); !errors.Is(err, ErrInsufficientBytes) {
		t.Errorf("readUint32() error == %v", err)
	}
	if rest, err := skip(b, 2); err != nil || len(rest) != 5 {
		t.Errorf("skip(2) == %d bytes, %v", len(rest), err)
	}
	if _, err := skip(b, 8); !errors.Is(err, ErrInsufficientBytes) {
		t.Errorf("skip(8) error == %v", err)
	}
}

func TestDecodeHeader(t *testing.T) {
	b := fromHex(t, headerHex)
	got, rest, err := DecodeHeader(append(b, 0xff))
	if err != nil {
		t.Fatalf("DecodeHeader() error:\n%+v", err)
	}
	if diff := helpers.Diff(got, expectedHeader()); diff != "" {
		t.Errorf("DecodeHeader() (-got, +want):\n%s", diff)
	}
	if diff := helpers.Diff(rest, []byte{0xff}); diff != "" {
		t.Errorf("DecodeHeader() remainder (-got, +want):\n%s", diff)
	}

	// Version on the wire is ignored.
	b[1] = 9
	got, _, err = DecodeHeader(b)
	if err != nil {
		t.Fatalf("DecodeHeader() error:\n%+v", err)
	}
	if got.Version != 5 {
		t.Errorf("DecodeHeader().Version == %d, expected 5", got.Version)
	}
}

func TestDecodeRecord(t *testing.T) {
	got, rest, err := DecodeRecord(fromHex(t, recordHex))
	if err != nil {
		t.Fatalf("DecodeRecord() error:\n%+v", err)
	}
	if diff := helpers.Diff(got, expectedRecord()); diff != "" {
		t.Errorf("DecodeRecord() (-got, +want):\n%s", diff)
	}
	if len(rest) != 0 {
		t.Errorf("DecodeRecord() remainder is %d bytes", len(rest))
	}

	start, end := got.When(expectedHeader())
	if diff := helpers.Diff([]time.Time{start, end}, []time.Time{
		time.Unix(28, 17).UTC(),
		time.Unix(38, 17).UTC(),
	}); diff != "" {
		t.Errorf("When() (-got, +want):\n%s", diff)
	}
}

func TestDecodePacket(t *testing.T) {
	b := fromHex(t, headerHex+recordHex+recordHex)
	got, rest, err := DecodePacket(b)
	if err != nil {
		t.Fatalf("DecodePacket() error:\n%+v", err)
	}
	expected := Packet{
		Header:  expectedHeader(),
		Records: []Record{expectedRecord(), expectedRecord()},
	}
	if diff := helpers.Diff(got, expected); diff != "" {
		t.Errorf("DecodePacket() (-got, +want):\n%s", diff)
	}
	if len(rest) != 0 {
		t.Errorf("DecodePacket() remainder is %d bytes", len(rest))
	}

	// Two packets back to back.
	b = append(b, b...)
	for i := 0; i < 2; i++ {
		got, b, err = DecodePacket(b)
		if err != nil {
			t.Fatalf("DecodePacket(%d) error:\n%+v", i, err)
		}
		if diff := helpers.Diff(got, expected); diff != "" {
			t.Errorf("DecodePacket(%d) (-got, +want):\n%s", i, diff)
		}
	}
	if len(b) != 0 {
		t.Errorf("DecodePacket() remainder is %d bytes", len(b))
	}
}

func TestDecodeEmptyPacket(t *testing.T) {
	b := fromHex(t, headerHex)
	b[3] = 0
	got, rest, err := DecodePacket(b)
	if err != nil {
		t.Fatalf("DecodePacket() error:\n%+v", err)
	}
	if got.Header.Count != 0 || len(got.Records) != 0 || len(rest) != 0 {
		t.Errorf("DecodePacket() == %+v, %d bytes", got, len(rest))
	}
}

func TestDecodeTruncated(t *testing.T) {
	b := fromHex(t, headerHex+recordHex+recordHex)
	for n := 0; n < len(b); n++ {
		got, rest, err := DecodePacket(b[:n])
		if !errors.Is(err, ErrInsufficientBytes) {
			t.Fatalf("DecodePacket(%d bytes) error == %v", n, err)
		}
		if err != ErrInsufficientBytes {
			t.Fatalf("DecodePacket(%d bytes) error is wrapped: %v", n, err)
		}
		if diff := helpers.Diff(got, Packet{}); diff != "" || rest != nil {
			t.Fatalf("DecodePacket(%d bytes) returned a partial packet:\n%s", n, diff)
		}
	}
	for n := 0; n < HeaderLength; n++ {
		if _, _, err := DecodeHeader(b[:n]); err != ErrInsufficientBytes {
			t.Fatalf("DecodeHeader(%d bytes) error == %v", n, err)
		}
	}
	record := fromHex(t, recordHex)
	for n := 0; n < RecordLength; n++ {
		got, _, err := DecodeRecord(record[:n])
		if err != ErrInsufficientBytes {
			t.Fatalf("DecodeRecord(%d bytes) error == %v", n, err)
		}
		if diff := helpers.Diff(got, Record{}); diff != "" {
			t.Fatalf("DecodeRecord(%d bytes) returned a partial record:\n%s", n, diff)
		}
	}
}

func TestDecodeHostileCount(t *testing.T) {
	b := fromHex(t, headerHex)
	b[2], b[3] = 0xff, 0xff
	if _, _, err := DecodePacket(b); err != ErrInsufficientBytes {
		t.Fatalf("DecodePacket() error == %v", err)
	}
}

func TestDecodeThirdPartyPacket(t *testing.T) {
	got, rest, err := DecodePacket(fromHex(t, thirdPartyHex))
	if err != nil {
		t.Fatalf("DecodePacket() error:\n%+v", err)
	}
	if len(rest) != 0 {
		t.Errorf("DecodePacket() remainder is %d bytes", len(rest))
	}
	if got.Header.Version != 5 || got.Header.Count != 3 || len(got.Records) != 3 {
		t.Fatalf("DecodePacket() == %+v", got)
	}
	start, end := got.Records[0].When(got.Header)
	if diff := helpers.Diff([]time.Time{start, end}, []time.Time{
		got.Header.Timestamp.Add(-215639 * time.Second),
		got.Header.Timestamp.Add(-206637 * time.Second),
	}); diff != "" {
		t.Errorf("When() (-got, +want):\n%s", diff)
	}
	if got.Records[2].DstAddr != netip.MustParseAddr("224.0.0.251") {
		t.Errorf("DecodePacket().Records[2].DstAddr == %s", got.Records[2].DstAddr)
	}
	if got.Records[2].Protocol != 17 {
		t.Errorf("DecodePacket().Records[2].Protocol == %d", got.Records[2].Protocol)
	}
}

func TestEncode(t *testing.T) {
	b := fromHex(t, headerHex+recordHex+recordHex)
	packet, _, err := DecodePacket(b)
	if err != nil {
		t.Fatalf("DecodePacket() error:\n%+v", err)
	}
	got, err := packet.Encode()
	if err != nil {
		t.Fatalf("Encode() error:\n%+v", err)
	}
	// Padding after the source port is not preserved.
	b[HeaderLength+34] = 0
	b[HeaderLength+RecordLength+34] = 0
	if diff := helpers.Diff(got, b); diff != "" {
		t.Fatalf("Encode() (-got, +want):\n%s", diff)
	}

	// Count follows the records.
	packet.Header.Count = 10
	packet.Records = packet.Records[:1]
	got, err = packet.Encode()
	if err != nil {
		t.Fatalf("Encode() error:\n%+v", err)
	}
	if len(got) != packet.Length() {
		t.Errorf("Encode() length == %d, expected %d", len(got), packet.Length())
	}
	decoded, _, err := DecodePacket(got)
	if err != nil {
		t.Fatalf("DecodePacket() error:\n%+v", err)
	}
	if decoded.Header.Count != 1 {
		t.Errorf("DecodePacket().Header.Count == %d, expected 1", decoded.Header.Count)
	}

	packet.Records[0].SrcAddr = netip.MustParseAddr("2001:db8::1")
	if _, err := packet.Encode(); err == nil {
		t.Error("Encode() with IPv6 address did not error")
	}
}
