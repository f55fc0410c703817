// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package recorder

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"rflow/common/reporter"
)

const writeBufferSize = 64 << 10

func (c *Component) openCapture() (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if c.config.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(c.config.Path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("unable to open capture: %w", err)
	}
	return f, nil
}

// runWriter appends queued datagrams to the capture. The buffer is
// flushed each time the queue is empty. On stop, the queue is drained
// before the capture is closed.
func (c *Component) runWriter(f *os.File) (err error) {
	w := bufio.NewWriterSize(f, writeBufferSize)
	defer func() {
		if ferr := w.Flush(); ferr != nil {
			err = errors.Join(err, fmt.Errorf("unable to flush capture: %w", ferr))
		}
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("unable to close capture: %w", cerr))
		}
		c.r.Info().Str("path", c.config.Path).Msg("capture closed")
	}()

	write := func(payload []byte) error {
		if _, err := w.Write(payload); err != nil {
			c.r.Err(err).Str("path", c.config.Path).Msg("unable to write to capture")
			return fmt.Errorf("unable to write to capture: %w", err)
		}
		c.metrics.recorded.Inc()
		c.metrics.recordedBytes.Add(float64(len(payload)))
		if len(c.queue) == 0 {
			c.metrics.flushes.Inc()
			if err := w.Flush(); err != nil {
				return fmt.Errorf("unable to flush capture: %w", err)
			}
		}
		return nil
	}

	for {
		select {
		case <-c.t.Dying():
			for {
				select {
				case payload := <-c.queue:
					if err := write(payload); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		case cb := <-c.healthcheck:
			cb(reporter.HealthcheckOK, "ok")
		case payload := <-c.queue:
			if err := write(payload); err != nil {
				return err
			}
		}
	}
}
