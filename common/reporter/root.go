// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package reporter is the reporting façade of rflow: logging, metrics
// and healthchecks.
package reporter

import (
	"sync"

	"rflow/common/reporter/logger"
	"rflow/common/reporter/metrics"
)

// Reporter contains the state for a reporter. It can be used directly as
// a logger.
type Reporter struct {
	logger.Logger
	metrics *metrics.Metrics

	healthchecks     map[string]HealthcheckFunc
	healthchecksLock sync.Mutex
}

// New creates a new reporter.
func New(config Configuration) (*Reporter, error) {
	l, err := logger.New(config.Logging)
	if err != nil {
		return nil, err
	}
	m, err := metrics.New(l, config.Metrics)
	if err != nil {
		return nil, err
	}
	return &Reporter{
		Logger:       l,
		metrics:      m,
		healthchecks: map[string]HealthcheckFunc{},
	}, nil
}
