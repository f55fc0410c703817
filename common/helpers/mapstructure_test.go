// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package helpers

import (
	"testing"

	"github.com/mitchellh/mapstructure"
)

type innerA struct {
	Path  string
	Count int
}
type innerB struct {
	Listen string
}
type outer struct {
	Workers int
	Config  any
}

var innerConfigurations = map[string](func() any){
	"a": func() any { return &innerA{Path: "default", Count: 1} },
	"b": func() any { return &innerB{Listen: ":2055"} },
}

func TestMapStructureMatchName(t *testing.T) {
	cases := []struct {
		Pos       Pos
		MapKey    string
		FieldName string
		Expected  bool
	}{
		{Mark(), "one", "one", true},
		{Mark(), "one", "One", true},
		{Mark(), "queue-size", "QueueSize", true},
		{Mark(), "queuesize", "QueueSize", true},
		{Mark(), "queue_size", "QueueSize", false},
		{Mark(), "one", "two", false},
	}
	for _, tc := range cases {
		if got := MapStructureMatchName(tc.MapKey, tc.FieldName); got != tc.Expected {
			t.Errorf("%sMapStructureMatchName(%q, %q) == %v but expected %v",
				tc.Pos, tc.MapKey, tc.FieldName, got, tc.Expected)
		}
	}
}

func TestParametrizedConfiguration(t *testing.T) {
	hook := ParametrizedConfigurationUnmarshallerHook(outer{}, innerConfigurations)
	decode := func(initial outer, input map[string]any) (outer, error) {
		got := initial
		decoder, err := mapstructure.NewDecoder(GetMapStructureDecoderConfig(&got, hook))
		if err != nil {
			t.Fatalf("NewDecoder() error:\n%+v", err)
		}
		err = decoder.Decode(input)
		return got, err
	}

	got, err := decode(outer{}, map[string]any{
		"type":    "a",
		"workers": 2,
		"count":   4,
	})
	if err != nil {
		t.Fatalf("Decode() error:\n%+v", err)
	}
	expected := outer{Workers: 2, Config: &innerA{Path: "default", Count: 4}}
	if diff := Diff(got, expected); diff != "" {
		t.Fatalf("Decode() (-got, +want):\n%s", diff)
	}

	// Without type, keep the current one.
	got, err = decode(outer{Config: &innerB{Listen: ":2055"}}, map[string]any{
		"listen": "127.0.0.1:2056",
	})
	if err != nil {
		t.Fatalf("Decode() error:\n%+v", err)
	}
	expected = outer{Config: &innerB{Listen: "127.0.0.1:2056"}}
	if diff := Diff(got, expected); diff != "" {
		t.Fatalf("Decode() (-got, +want):\n%s", diff)
	}

	for _, input := range []map[string]any{
		{"type": "c"},
		{"type": 1},
		{"count": 4},
		{"type": "a", "config": map[string]any{}},
		{"type": "a", "unknown": 4},
	} {
		if _, err := decode(outer{}, input); err == nil {
			t.Errorf("Decode(%v) did not error", input)
		}
	}

	marshalled, err := ParametrizedConfigurationMarshalYAML(expected, innerConfigurations)
	if err != nil {
		t.Fatalf("ParametrizedConfigurationMarshalYAML() error:\n%+v", err)
	}
	if diff := Diff(marshalled, map[string]any{
		"type":    "b",
		"workers": 0,
		"listen":  "127.0.0.1:2056",
	}); diff != "" {
		t.Fatalf("ParametrizedConfigurationMarshalYAML() (-got, +want):\n%s", diff)
	}
}
