// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package netflowv5 decodes and encodes NetFlow v5 export packets.
//
// Decoding functions take a buffer and return the decoded value with the
// unconsumed remainder of the buffer, so that several packets stored back
// to back can be decoded in sequence. They do not keep references to the
// buffer.
package netflowv5

import "errors"

const (
	// Version is the only NetFlow version handled by this package.
	Version = 5
	// HeaderLength is the size of a packet header on the wire.
	HeaderLength = 24
	// RecordLength is the size of a flow record on the wire.
	RecordLength = 48
	// MaxRecords is the maximum number of records a v5 exporter puts in
	// a single packet.
	MaxRecords = 30

	// padAfterSrcPort is the padding between source and destination ports.
	padAfterSrcPort = 1
	// padAfterDstMask is the padding at the end of a flow record.
	padAfterDstMask = 2
)

// ErrInsufficientBytes is returned when the buffer ends before a complete
// value could be read. This is the only decoding error.
var ErrInsufficientBytes = errors.New("insufficient bytes")
