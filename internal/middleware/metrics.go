package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/snaplink/snaplink/internal/metrics"
)

// MetricsMiddleware collects HTTP metrics for each request
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()

		c.Next()

		duration := time.Since(start)

		// Use the route pattern instead of the raw path so that
		// /api/v1/s_link/abc123 groups under one series.
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		status := strconv.Itoa(c.Writer.Status())

		metrics.RecordHTTPMetrics(c.Request.Method, path, status, duration)
	}
}
