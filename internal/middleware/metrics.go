package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aac-therapy-api/internal/service"
)

// unmatchedRoute labels requests that hit no registered route, keeping raw
// URLs (and download tokens) out of metric labels.
const unmatchedRoute = "unmatched"

// Metrics records request latency and counts per route template. The
// Prometheus scrape endpoint itself is not observed.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
