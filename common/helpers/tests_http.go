// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build !release

package helpers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
)

// HTTPEndpointCases describes cases for TestHTTPEndpoints.
type HTTPEndpointCases []struct {
	Pos         Pos
	Description string
	URL         string

	ContentType string
	StatusCode  int
	FirstLines  []string
	JSONOutput  any
}

// TestHTTPEndpoints sends a GET request for each case and checks the
// answer. JSON outputs are compared after a round trip through JSON.
func TestHTTPEndpoints(t *testing.T, serverAddr net.Addr, cases HTTPEndpointCases) {
	t.Helper()
	for _, tc := range cases {
		desc := tc.Description
		if desc == "" {
			desc = tc.URL
		}
		t.Run(desc, func(t *testing.T) {
			if tc.FirstLines != nil && tc.JSONOutput != nil {
				t.Fatalf("%sCannot have both FirstLines and JSONOutput", tc.Pos)
			}
			resp, err := http.Get(fmt.Sprintf("http://%s%s", serverAddr, tc.URL))
			if err != nil {
				t.Fatalf("%sGET %s:\n%+v", tc.Pos, tc.URL, err)
			}
			defer resp.Body.Close()

			if tc.StatusCode == 0 {
				tc.StatusCode = http.StatusOK
			}
			if resp.StatusCode != tc.StatusCode {
				t.Errorf("%sGET %s: got status code %d, not %d",
					tc.Pos, tc.URL, resp.StatusCode, tc.StatusCode)
			}
			if tc.JSONOutput != nil {
				tc.ContentType = "application/json; charset=utf-8"
			}
			if got := resp.Header.Get("Content-Type"); got != tc.ContentType {
				t.Errorf("%sGET %s Content-Type (-got, +want):\n-%s\n+%s",
					tc.Pos, tc.URL, got, tc.ContentType)
			}

			if tc.JSONOutput == nil {
				scanner := bufio.NewScanner(resp.Body)
				got := []string{}
				for len(got) < len(tc.FirstLines) && scanner.Scan() {
					got = append(got, scanner.Text())
				}
				if tc.FirstLines == nil {
					tc.FirstLines = []string{}
				}
				if diff := Diff(got, tc.FirstLines); diff != "" {
					t.Errorf("%sGET %s (-got, +want):\n%s", tc.Pos, tc.URL, diff)
				}
				return
			}

			var got, expected any
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatalf("%sGET %s:\n%+v", tc.Pos, tc.URL, err)
			}
			expectedBytes, err := json.Marshal(tc.JSONOutput)
			if err != nil {
				t.Fatalf("%sjson.Marshal() error:\n%+v", tc.Pos, err)
			}
			if err := json.Unmarshal(expectedBytes, &expected); err != nil {
				t.Fatalf("%sjson.Unmarshal() error:\n%+v", tc.Pos, err)
			}
			if diff := Diff(got, expected); diff != "" {
				t.Fatalf("%sGET %s (-got, +want):\n%s", tc.Pos, tc.URL, diff)
			}
		})
	}
}
