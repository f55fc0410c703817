// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package helpers

import (
	"net"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Validate is a validator instance to be used everywhere.
var Validate *validator.Validate

// isListen validates a [host]:port combination used for listening or
// sending. The host part is optional.
func isListen(fl validator.FieldLevel) bool {
	host, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil {
		return false
	}
	if p, err := strconv.ParseUint(port, 10, 16); err != nil || p > 65535 {
		return false
	}
	if host == "" {
		return true
	}
	return Validate.Var(host, "ip|hostname_rfc1123") == nil
}

func init() {
	Validate = validator.New()
	Validate.RegisterValidation("listen", isListen)
}
