// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package recorder

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// exportersHTTPHandler returns the flow sequence state of each exporter.
func (c *Component) exportersHTTPHandler(gc *gin.Context) {
	gc.JSON(http.StatusOK, gin.H{"exporters": c.sequences.snapshot()})
}
