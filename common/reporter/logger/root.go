// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package logger handles logging for rflow.
//
// This is a thin wrapper around zerolog. Each event gets a "caller" field
// and a "module" field, the latter being the package of the first frame
// belonging to rflow. Sub-loggers are created with With() as with any
// zerolog logger.
package logger

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rflow/common/reporter/stack"
)

// Logger is a logger instance, compatible with zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// New creates a new logger from the global zerolog logger.
func New(_ Configuration) (Logger, error) {
	return Logger{log.Logger.Hook(contextHook{})}, nil
}

type contextHook struct{}

// Run adds "caller" and "module" to an event.
func (contextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	callers := stack.Callers()
	// Skip Run, zerolog internals and the logging method. There is a
	// test checking this offset.
	callers = callers[3:]
	e.Str("caller", callers[0].SourceFile(true))
	for _, call := range callers {
		fn := call.FunctionName()
		if !strings.HasPrefix(fn, stack.ModuleName) {
			continue
		}
		e.Str("module", strings.SplitN(fn, ".", 2)[0])
		return
	}
}
