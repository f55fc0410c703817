// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build !release

package helpers

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ConfigurationDecodeCases describes test cases for configuration
// decoding. Functions are used as decoding may mutate their result.
type ConfigurationDecodeCases []struct {
	Description    string
	Pos            Pos
	Initial        func() any // initial value for configuration
	Configuration  func() any // configuration to decode
	Expected       any
	Error          bool
	SkipValidation bool
}

// TestConfigurationDecode decodes each case as is, then after a round
// trip through YAML, and compares with the expected result.
func TestConfigurationDecode(t *testing.T, cases ConfigurationDecodeCases, options ...cmp.Option) {
	t.Helper()
	for _, tc := range cases {
		for _, fromYAML := range []bool{false, true} {
			title := tc.Description
			if fromYAML {
				title += " (from YAML)"
			}
			t.Run(title, func(t *testing.T) {
				var configuration any = tc.Configuration()
				if fromYAML {
					out, err := yaml.Marshal(configuration)
					if err != nil {
						t.Fatalf("%syaml.Marshal() error:\n%+v", tc.Pos, err)
					}
					configuration = nil
					if err := yaml.Unmarshal(out, &configuration); err != nil {
						t.Fatalf("%syaml.Unmarshal() error:\n%+v", tc.Pos, err)
					}
				}

				got := tc.Initial()
				decoder, err := mapstructure.NewDecoder(GetMapStructureDecoderConfig(&got))
				if err != nil {
					t.Fatalf("%sNewDecoder() error:\n%+v", tc.Pos, err)
				}
				err = decoder.Decode(configuration)
				if err == nil && !tc.SkipValidation {
					err = Validate.Struct(got)
				}
				switch {
				case err != nil && tc.Error:
					return
				case err != nil:
					t.Fatalf("%sDecode() error:\n%+v", tc.Pos, err)
				case tc.Error:
					t.Fatalf("%sDecode() did not error", tc.Pos)
				}

				if diff := Diff(got, tc.Expected, options...); diff != "" {
					t.Fatalf("%sDecode() (-got, +want):\n%s", tc.Pos, diff)
				}
			})
		}
	}
}
