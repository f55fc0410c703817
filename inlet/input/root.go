// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package input defines the interface of an input module for the
// recorder. An input receives datagrams from exporters and hands them
// to a SendFunc.
package input

import (
	"net/netip"
	"time"

	"rflow/common/daemon"
	"rflow/common/reporter"
)

// Datagram is a datagram received from an exporter.
type Datagram struct {
	TimeReceived time.Time
	Source       netip.Addr
	// Payload is only valid during the call to SendFunc: the input
	// reuses the buffer afterwards.
	Payload []byte
}

// SendFunc is a function to send a datagram to the next step. exporter
// is the textual form of the source address.
type SendFunc func(exporter string, datagram *Datagram)

// Input is the interface any input should meet.
type Input interface {
	// Start instructs an input to start producing datagrams.
	Start() error
	// Stop instructs the input to stop producing datagrams.
	Stop() error
}

// Configuration is the interface for the configuration of an input module.
type Configuration interface {
	// New instantiates a new input from its configuration.
	New(r *reporter.Reporter, daemon daemon.Component, send SendFunc) (Input, error)
}
