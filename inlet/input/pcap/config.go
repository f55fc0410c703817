// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package pcap

import "rflow/inlet/input"

// Configuration describes pcap input configuration.
type Configuration struct {
	// Paths to use as input, replayed once in order.
	Paths []string `validate:"min=1,dive,required"`
	// Port, when not 0, only keeps UDP datagrams sent to this port.
	Port uint16
}

// DefaultConfiguration describes the default configuration for pcap input.
func DefaultConfiguration() input.Configuration {
	return &Configuration{}
}
