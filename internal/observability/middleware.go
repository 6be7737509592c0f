// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Routes hit by health checks and scrapers, logged at debug
var quietRoutes = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// HTTPObserver logs every request and records it in the HTTP metrics. The
// route template, not the raw path, is used as the path label; the remote
// name from the URL only goes into the log line.
func HTTPObserver(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := routePath(c)
		status := c.Writer.Status()
		RecordHTTPRequest(c.Request.Method, route, status, elapsed)

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case quietRoutes[route]:
			event = logger.Debug()
		default:
			event = logger.Info()
		}

		if remote := c.Param("name"); remote != "" {
			event = event.Str("remote", remote)
		}
		if last := c.Errors.Last(); last != nil {
			event = event.Err(last.Err)
		}
		event.
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", elapsed).
			Msg("http_request")
	}
}

// routePath prefers the route template so remote names do not explode the
// label set.
func routePath(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return "unmatched"
}
