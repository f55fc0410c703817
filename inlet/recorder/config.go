// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package recorder

import (
	"rflow/common/helpers"
	"rflow/inlet/input"
	"rflow/inlet/input/pcap"
	"rflow/inlet/input/udp"
)

// Configuration describes the configuration for the recorder component.
type Configuration struct {
	// Inputs define a list of input modules to enable
	Inputs []InputConfiguration `validate:"min=1,dive"`
	// Path is the capture file to write datagrams to.
	Path string `validate:"required"`
	// Append tells to append to an existing capture instead of
	// truncating it.
	Append bool
	// QueueSize is the number of datagrams waiting to be written.
	QueueSize uint `validate:"min=1"`
	// RecordInvalid also records datagrams which cannot be decoded.
	// The capture may then not be replayable.
	RecordInvalid bool
}

// DefaultConfiguration represents the default configuration for the recorder.
func DefaultConfiguration() Configuration {
	return Configuration{
		Inputs: []InputConfiguration{{
			Config: udp.DefaultConfiguration(),
		}},
		Path:      "recorded.netflow",
		QueueSize: 1000,
	}
}

// InputConfiguration represents the configuration for an input.
type InputConfiguration struct {
	// Config is the actual configuration of the input.
	Config input.Configuration
}

// MarshalYAML undoes ParametrizedConfigurationUnmarshallerHook().
func (ic InputConfiguration) MarshalYAML() (any, error) {
	return helpers.ParametrizedConfigurationMarshalYAML(ic, inputs)
}

var inputs = map[string](func() input.Configuration){
	"udp":  udp.DefaultConfiguration,
	"pcap": pcap.DefaultConfiguration,
}

func init() {
	helpers.RegisterMapstructureUnmarshallerHook(
		helpers.ParametrizedConfigurationUnmarshallerHook(InputConfiguration{}, inputs))
}
