package middleware

import (
	"strconv"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/pkg/logger"
	"github.com/campusnet/campusnet/backend/go-services/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request after it completes and observes its latency.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())

		fields := logger.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": elapsed.String(),
			"ip":      c.ClientIP(),
		}
		if u := CurrentUser(c); u != nil {
			fields["user"] = u.ID.Hex()
		}
		switch {
		case status >= 500:
			logger.Errorw("request", fields)
		case status >= 400:
			logger.Warnw("request", fields)
		default:
			logger.Infow("request", fields)
		}
	}
}
