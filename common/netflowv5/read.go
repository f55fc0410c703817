// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package netflowv5

import "encoding/binary"

func readUint8(b []byte) (uint8, []byte, error) {
	if len(b) < 1 {
		return 0, b, ErrInsufficientBytes
	}
	return b[0], b[1:], nil
}

func readUint16(b []byte) (uint16, []byte, error) {
	if len(b) < 2 {
		return 0, b, ErrInsufficientBytes
	}
	return binary.BigEndian.Uint16(b), b[2:], nil
}

func readUint32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, b, ErrInsufficientBytes
	}
	return binary.BigEndian.Uint32(b), b[4:], nil
}

func skip(b []byte, n int) ([]byte, error) {
	if len(b) < n {
		return b, ErrInsufficientBytes
	}
	return b[n:], nil
}
