// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics handles metrics for rflow.
//
// This is a wrapper around the Prometheus Go client. Metric names are
// prefixed with the package registering them.
package metrics

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rflow/common/reporter/logger"
	"rflow/common/reporter/stack"
)

// Metrics represents the internal state of the metric subsystem.
type Metrics struct {
	logger    logger.Logger
	config    Configuration
	registry  *prometheus.Registry
	factories map[string]*Factory
	lock      sync.RWMutex
}

// New creates a new metric registry, with Go runtime and process metrics
// already registered.
func New(logger logger.Logger, configuration Configuration) (*Metrics, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector(collectors.WithGoCollections(
		collectors.GoRuntimeMemStatsCollection | collectors.GoRuntimeMetricsCollection)))
	return &Metrics{
		logger:    logger,
		config:    configuration,
		registry:  reg,
		factories: make(map[string]*Factory),
	}, nil
}

// HTTPHandler returns an handler to serve Prometheus metrics.
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: promHTTPLogger{m.logger},
	})
}

// prefixFor turns a function name into a metric prefix:
// rflow/inlet/recorder.New becomes rflow_inlet_recorder_.
func prefixFor(function string) string {
	module := stack.ModuleName
	if strings.HasPrefix(function, stack.ModuleName) {
		module = strings.SplitN(function, ".", 2)[0]
	}
	return strings.NewReplacer("/", "_", ".", "_").Replace(module) + "_"
}

// Factory returns a factory registering metrics prefixed by the package
// of the caller, skipCallstack frames up. Factories are cached per
// function name.
func (m *Metrics) Factory(skipCallstack int) *Factory {
	function := stack.Callers()[1+skipCallstack].FunctionName()

	m.lock.RLock()
	factory, ok := m.factories[function]
	m.lock.RUnlock()
	if ok {
		return factory
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	if factory, ok := m.factories[function]; ok {
		return factory
	}
	factory = &Factory{
		prefix:   prefixFor(function),
		registry: m.registry,
	}
	m.factories[function] = factory
	return factory
}

// Desc creates a metric description prefixed like metrics from Factory.
func (m *Metrics) Desc(skipCallstack int, name, help string, variableLabels []string) *prometheus.Desc {
	function := stack.Callers()[1+skipCallstack].FunctionName()
	return prometheus.NewDesc(prefixFor(function)+name, help, variableLabels, nil)
}

// Collector registers a custom collector.
func (m *Metrics) Collector(c prometheus.Collector) {
	m.registry.MustRegister(c)
}
