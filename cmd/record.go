// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"rflow/common/daemon"
	"rflow/common/httpserver"
	"rflow/common/reporter"
	"rflow/inlet/recorder"
)

// RecordConfiguration represents the configuration file for the record command.
type RecordConfiguration struct {
	Reporting reporter.Configuration
	HTTP      httpserver.Configuration
	Recorder  recorder.Configuration
}

// Reset resets the configuration for the record command to its default value.
func (c *RecordConfiguration) Reset() {
	*c = RecordConfiguration{
		Reporting: reporter.DefaultConfiguration(),
		HTTP:      httpserver.DefaultConfiguration(),
		Recorder:  recorder.DefaultConfiguration(),
	}
}

type recordOptions struct {
	ConfigRelatedOptions
	CheckMode bool
}

// RecordOptions stores the command-line option values for the record
// command.
var RecordOptions recordOptions

var recordCmd = &cobra.Command{
	Use:   "record CONFIG",
	Short: "Record NetFlow v5 datagrams to a capture file",
	Long: `Receive NetFlow v5 datagrams from the configured inputs, keep per-exporter
statistics and append valid datagrams to a capture file which can be
replayed with the dump command.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := RecordConfiguration{}
		config.Reset()
		RecordOptions.Path = args[0]
		if err := RecordOptions.Parse(cmd.OutOrStdout(), "record", &config); err != nil {
			return err
		}

		r, err := reporter.New(config.Reporting)
		if err != nil {
			return fmt.Errorf("unable to initialize reporter: %w", err)
		}
		return recordStart(r, config, RecordOptions.CheckMode)
	},
}

func init() {
	RootCmd.AddCommand(recordCmd)
	recordCmd.Flags().BoolVarP(&RecordOptions.ConfigRelatedOptions.Dump, "dump", "D", false,
		"Dump configuration before starting")
	recordCmd.Flags().BoolVarP(&RecordOptions.CheckMode, "check", "C", false,
		"Check configuration, but does not start")
}

func recordStart(r *reporter.Reporter, config RecordConfiguration, checkOnly bool) error {
	// Initialize the various components
	daemonComponent, err := daemon.New(r)
	if err != nil {
		return fmt.Errorf("unable to initialize daemon component: %w", err)
	}
	httpComponent, err := httpserver.New(r, config.HTTP, httpserver.Dependencies{
		Daemon: daemonComponent,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize http component: %w", err)
	}
	recorderComponent, err := recorder.New(r, config.Recorder, recorder.Dependencies{
		Daemon: daemonComponent,
		HTTP:   httpComponent,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize recorder component: %w", err)
	}

	// Expose some information and metrics
	httpComponent.GinRouter.GET("/api/v0/version", versionHandler)
	versionMetrics(r)

	// If we only asked for a check, stop here.
	if checkOnly {
		return nil
	}

	// Start all the components.
	components := []any{
		httpComponent,
		recorderComponent,
	}
	return StartStopComponents(r, daemonComponent, components)
}
