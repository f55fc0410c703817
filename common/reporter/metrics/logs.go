// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package metrics

import (
	"fmt"

	"rflow/common/reporter/logger"
)

// promHTTPLogger adapts logger.Logger to promhttp.Logger.
type promHTTPLogger struct {
	l logger.Logger
}

// Println logs at debug level.
func (m promHTTPLogger) Println(v ...any) {
	if e := m.l.Debug(); e.Enabled() {
		e.Msg(fmt.Sprint(v...))
	}
}
