// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package netflowv5

import "time"

// Header is the header of a NetFlow v5 packet.
type Header struct {
	Version   uint16 `json:"version" yaml:"version"`
	Count     uint16 `json:"count" yaml:"count"`
	SysUptime uint32 `json:"sys-uptime" yaml:"sys-uptime"` // seconds since boot
	UnixSecs  uint32 `json:"unix-secs" yaml:"unix-secs"`
	UnixNsecs uint32 `json:"unix-nsecs" yaml:"unix-nsecs"`

	FlowSequence     uint32 `json:"flow-sequence" yaml:"flow-sequence"`
	EngineType       uint8  `json:"engine-type" yaml:"engine-type"`
	EngineID         uint8  `json:"engine-id" yaml:"engine-id"`
	SamplingInterval uint16 `json:"sampling-interval" yaml:"sampling-interval"`

	// Timestamp is the export time built from UnixSecs and UnixNsecs.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// DecodeHeader decodes a packet header from the start of b. The version
// on the wire is not checked: the decoded header always says 5.
func DecodeHeader(b []byte) (Header, []byte, error) {
	var (
		h   Header
		err error
	)
	if _, b, err = readUint16(b); err != nil {
		return Header{}, nil, err
	}
	h.Version = Version
	if h.Count, b, err = readUint16(b); err != nil {
		return Header{}, nil, err
	}
	if h.SysUptime, b, err = readUint32(b); err != nil {
		return Header{}, nil, err
	}
	if h.UnixSecs, b, err = readUint32(b); err != nil {
		return Header{}, nil, err
	}
	if h.UnixNsecs, b, err = readUint32(b); err != nil {
		return Header{}, nil, err
	}
	if h.FlowSequence, b, err = readUint32(b); err != nil {
		return Header{}, nil, err
	}
	if h.EngineType, b, err = readUint8(b); err != nil {
		return Header{}, nil, err
	}
	if h.EngineID, b, err = readUint8(b); err != nil {
		return Header{}, nil, err
	}
	if h.SamplingInterval, b, err = readUint16(b); err != nil {
		return Header{}, nil, err
	}
	h.Timestamp = time.Unix(int64(h.UnixSecs), int64(h.UnixNsecs)).UTC()
	return h, b, nil
}
