// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package reporter_test

import (
	"testing"

	"rflow/common/helpers"
	"rflow/common/reporter"
)

func TestMetrics(t *testing.T) {
	r := reporter.NewMock(t)
	r.Counter(reporter.CounterOpts{
		Name: "counter1",
		Help: "Some counter",
	}).Add(18)
	r.CounterVec(reporter.CounterOpts{
		Name: "counter2",
		Help: "Some counter vector",
	}, []string{"exporter"}).WithLabelValues("192.0.2.1").Inc()
	r.Gauge(reporter.GaugeOpts{
		Name: "gauge1",
		Help: "Some gauge",
	}).Set(4)
	r.GaugeFunc(reporter.GaugeOpts{
		Name: "gauge2",
		Help: "Some gauge function",
	}, func() float64 { return 7 })

	gotMetrics := r.GetMetrics("rflow_common_reporter_test_")
	expectedMetrics := map[string]string{
		"counter1":                        "18",
		`counter2{exporter="192.0.2.1"}`: "1",
		"gauge1":                          "4",
		"gauge2":                          "7",
	}
	if diff := helpers.Diff(gotMetrics, expectedMetrics); diff != "" {
		t.Fatalf("Metrics (-got, +want):\n%s", diff)
	}

	gotMetrics = r.GetMetrics("rflow_common_reporter_test_", "gauge")
	expectedMetrics = map[string]string{
		"gauge1": "4",
		"gauge2": "7",
	}
	if diff := helpers.Diff(gotMetrics, expectedMetrics); diff != "" {
		t.Fatalf("Metrics subset (-got, +want):\n%s", diff)
	}
}
