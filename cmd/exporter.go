// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"rflow/common/daemon"
	"rflow/common/httpserver"
	"rflow/common/reporter"
	"rflow/exporter"
)

// ExporterConfiguration represents the configuration file for the exporter command.
type ExporterConfiguration struct {
	Reporting reporter.Configuration
	HTTP      httpserver.Configuration
	Exporter  exporter.Configuration `mapstructure:",squash" yaml:",inline"`
}

// Reset sets the default configuration for the exporter command.
func (c *ExporterConfiguration) Reset() {
	*c = ExporterConfiguration{
		Reporting: reporter.DefaultConfiguration(),
		HTTP:      httpserver.DefaultConfiguration(),
		Exporter:  exporter.DefaultConfiguration(),
	}
	c.HTTP.Listen = "0.0.0.0:8081"
}

type exporterOptions struct {
	ConfigRelatedOptions
	CheckMode bool
}

// ExporterOptions stores the command-line option values for the
// exporter command.
var ExporterOptions exporterOptions

var exporterCmd = &cobra.Command{
	Use:   "exporter CONFIG",
	Short: "Start a synthetic NetFlow v5 exporter",
	Long: `For testing purpose, this service sends synthetic NetFlow v5 packets
to the configured target.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := ExporterConfiguration{}
		config.Reset()
		ExporterOptions.Path = args[0]
		if err := ExporterOptions.Parse(cmd.OutOrStdout(), "exporter", &config); err != nil {
			return err
		}

		r, err := reporter.New(config.Reporting)
		if err != nil {
			return fmt.Errorf("unable to initialize reporter: %w", err)
		}
		return exporterStart(r, config, ExporterOptions.CheckMode)
	},
}

func init() {
	RootCmd.AddCommand(exporterCmd)
	exporterCmd.Flags().BoolVarP(&ExporterOptions.ConfigRelatedOptions.Dump, "dump", "D", false,
		"Dump configuration before starting")
	exporterCmd.Flags().BoolVarP(&ExporterOptions.CheckMode, "check", "C", false,
		"Check configuration, but does not start")
}

func exporterStart(r *reporter.Reporter, config ExporterConfiguration, checkOnly bool) error {
	daemonComponent, err := daemon.New(r)
	if err != nil {
		return fmt.Errorf("unable to initialize daemon component: %w", err)
	}
	httpComponent, err := httpserver.New(r, config.HTTP, httpserver.Dependencies{
		Daemon: daemonComponent,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize HTTP component: %w", err)
	}
	exporterComponent, err := exporter.New(r, config.Exporter, exporter.Dependencies{
		Daemon: daemonComponent,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize exporter component: %w", err)
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
		exporterComponent,
	}
	return StartStopComponents(r, daemonComponent, components)
}
