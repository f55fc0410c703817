// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package replay reads captures written by the recorder: NetFlow v5
// packets stored back to back. Packets are read one at a time.
package replay

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"rflow/common/netflowv5"
)

// ErrTooManyRecords is returned when a packet header announces more
// records than allowed.
var ErrTooManyRecords = errors.New("too many records")

// DecodeError is returned when the packet at Offset cannot be read.
type DecodeError struct {
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode packet at offset %d: %s", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Reader reads packets from a capture.
type Reader struct {
	// MaxRecords, when not 0, is the maximum number of records
	// accepted in a packet. It is checked before reading records.
	MaxRecords int

	r      io.Reader
	offset int64
	buf    []byte
}

// NewReader returns a new reader reading packets from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:   r,
		buf: make([]byte, netflowv5.HeaderLength+netflowv5.MaxRecords*netflowv5.RecordLength),
	}
}

// Offset returns the offset of the next packet.
func (rd *Reader) Offset() int64 {
	return rd.offset
}

// Next returns the next packet. At the end of a capture, it returns
// io.EOF. When the capture ends in the middle of a packet, the returned
// DecodeError wraps netflowv5.ErrInsufficientBytes.
func (rd *Reader) Next() (netflowv5.Packet, error) {
	header := rd.buf[:netflowv5.HeaderLength]
	if _, err := io.ReadFull(rd.r, header); err != nil {
		if errors.Is(err, io.EOF) {
			return netflowv5.Packet{}, io.EOF
		}
		return netflowv5.Packet{}, rd.fail(err)
	}
	count := int(binary.BigEndian.Uint16(header[2:]))
	if rd.MaxRecords > 0 && count > rd.MaxRecords {
		return netflowv5.Packet{}, rd.fail(fmt.Errorf("%w (%d)", ErrTooManyRecords, count))
	}

	length := netflowv5.HeaderLength + count*netflowv5.RecordLength
	if len(rd.buf) < length {
		rd.buf = append(rd.buf, make([]byte, length-len(rd.buf))...)
	}
	if _, err := io.ReadFull(rd.r, rd.buf[netflowv5.HeaderLength:length]); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return netflowv5.Packet{}, rd.fail(err)
	}

	packet, _, err := netflowv5.DecodePacket(rd.buf[:length])
	if err != nil {
		return netflowv5.Packet{}, rd.fail(err)
	}
	rd.offset += int64(length)
	return packet, nil
}

// fail builds an error for the packet at the current offset. A short
// read is reported as netflowv5.ErrInsufficientBytes.
func (rd *Reader) fail(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = netflowv5.ErrInsufficientBytes
	}
	return &DecodeError{Offset: rd.offset, Err: err}
}
