// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package daemon handles process-wide lifecycle: termination on signal
// or when a tracked component dies.
package daemon

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"gopkg.in/tomb.v2"

	"rflow/common/reporter"
)

// Component is the interface the daemon component provides.
type Component interface {
	Start() error
	Stop() error
	Track(t *tomb.Tomb, who string)

	// Terminated returns a channel closed when the daemon should exit.
	Terminated() <-chan struct{}
	// Terminate requests termination. It can be called several times.
	Terminate()
}

type lifecycle struct {
	terminated    chan struct{}
	terminateOnce sync.Once
}

func newLifecycle() lifecycle {
	return lifecycle{terminated: make(chan struct{})}
}

func (l *lifecycle) Terminated() <-chan struct{} {
	return l.terminated
}

func (l *lifecycle) Terminate() {
	l.terminateOnce.Do(func() { close(l.terminated) })
}

type tracked struct {
	tomb   *tomb.Tomb
	origin string
}

type realComponent struct {
	r       *reporter.Reporter
	tracked []tracked

	lifecycle
}

// New creates a new daemon component.
func New(r *reporter.Reporter) (Component, error) {
	return &realComponent{
		r:         r,
		lifecycle: newLifecycle(),
	}, nil
}

// Start watches tracked tombs and signals.
func (c *realComponent) Start() error {
	for _, t := range c.tracked {
		go func(t tracked) {
			select {
			case <-t.tomb.Dying():
			case <-c.Terminated():
				return
			}
			if err := t.tomb.Err(); err != nil {
				c.r.Err(err).Str("component", t.origin).Msg("component error, quitting")
			} else {
				c.r.Debug().Str("component", t.origin).Msg("component shutting down, quitting")
			}
			c.Terminate()
		}(t)
	}
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(signals)
		select {
		case s := <-signals:
			c.r.Info().Stringer("signal", s).Msg("signal received, quitting")
			c.Terminate()
		case <-c.Terminated():
		}
	}()
	return nil
}

// Stop terminates the daemon.
func (c *realComponent) Stop() error {
	c.Terminate()
	return nil
}

// Track adds a tomb to watch. The daemon terminates when the tomb dies.
// This must be called before Start().
func (c *realComponent) Track(t *tomb.Tomb, who string) {
	c.tracked = append(c.tracked, tracked{tomb: t, origin: who})
}
