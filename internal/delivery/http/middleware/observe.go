package middleware

import (
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
	"github.com/gin-gonic/gin"
)

// Observe logs each request and records it in the HTTP metrics under its route pattern.
func Observe(m *metrics.GatewayMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		dur := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		if m != nil {
			m.ObserveHTTPRequest(c.Request.Method, route, status, dur)
		}

		level := slog.LevelInfo
		if status >= 400 {
			level = slog.LevelWarn
		}
		slog.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", dur,
			"ip", c.ClientIP(),
		)
	}
}
