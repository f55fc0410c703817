// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package udp

import (
	"fmt"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"rflow/common/reporter"
)

type oobMessage struct {
	Drops    uint32
	Received time.Time
}

// socketOption is a socket option to set on a listening socket. When
// not mandatory, a failure is only logged.
type socketOption struct {
	Name      string
	Level     int
	Option    int
	Mandatory bool
}

// listenConfig returns a listen configuration setting the provided
// socket options.
func listenConfig(r *reporter.Reporter, options []socketOption) *net.ListenConfig {
	return &net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var err error
			cerr := c.Control(func(fd uintptr) {
				for _, opt := range options {
					if serr := unix.SetsockoptInt(int(fd), opt.Level, opt.Option, 1); serr != nil {
						if opt.Mandatory {
							err = fmt.Errorf("cannot set option %s: %w", opt.Name, serr)
							return
						}
						r.Warn().Err(serr).Str("option", opt.Name).Msg("cannot set socket option")
					}
				}
			})
			if cerr != nil {
				return cerr
			}
			return err
		},
	}
}
