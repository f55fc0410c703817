// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"rflow/common/netflowv5"
	"rflow/replay"
)

type dumpOptions struct {
	Format     string
	MaxRecords int
}

// DumpOptions stores the command-line option values for the dump
// command.
var DumpOptions dumpOptions

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "Print the content of a capture file",
	Long: `Decode a capture file packet by packet and print each header and
flow record, with the computed start and end time of each flow.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("unable to open capture: %w", err)
		}
		defer f.Close()
		return dumpCapture(cmd.OutOrStdout(), f, DumpOptions)
	},
}

func init() {
	RootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringVarP(&DumpOptions.Format, "format", "f", "yaml",
		"Output format (yaml or json)")
	dumpCmd.Flags().IntVar(&DumpOptions.MaxRecords, "max-records", netflowv5.MaxRecords,
		"Reject packets with more records (0 for no limit)")
}

type dumpedRecord struct {
	netflowv5.Record `yaml:",inline"`
	Start            time.Time `json:"start" yaml:"start"`
	End              time.Time `json:"end" yaml:"end"`
}

type dumpedPacket struct {
	Offset  int64            `json:"offset" yaml:"offset"`
	Header  netflowv5.Header `json:"header" yaml:"header"`
	Records []dumpedRecord   `json:"records" yaml:"records"`
}

type encoder interface {
	Encode(v any) error
}

// dumpCapture prints every packet of a capture. It stops at the first
// packet which cannot be decoded.
func dumpCapture(out io.Writer, in io.Reader, options dumpOptions) error {
	var enc encoder
	switch options.Format {
	case "yaml":
		ye := yaml.NewEncoder(out)
		defer ye.Close()
		enc = ye
	case "json":
		enc = json.NewEncoder(out)
	default:
		return fmt.Errorf("unknown output format %q", options.Format)
	}

	rd := replay.NewReader(in)
	rd.MaxRecords = options.MaxRecords
	for {
		offset := rd.Offset()
		p, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("unable to decode capture: %w", err)
		}
		dumped := dumpedPacket{
			Offset:  offset,
			Header:  p.Header,
			Records: make([]dumpedRecord, 0, len(p.Records)),
		}
		for _, record := range p.Records {
			start, end := record.When(p.Header)
			dumped.Records = append(dumped.Records, dumpedRecord{
				Record: record,
				Start:  start,
				End:    end,
			})
		}
		if err := enc.Encode(dumped); err != nil {
			return fmt.Errorf("unable to write packet: %w", err)
		}
	}
}
