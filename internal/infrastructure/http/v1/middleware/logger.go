package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"invoicer/pkg/logger"
)

// Logger middleware logs HTTP requests with timing and status.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		// c.Request now carries the identity set by Session.
		l := log.WithContext(c.Request.Context())
		emit := l.Infow
		if status >= 500 {
			emit = l.Errorw
		} else if status >= 400 {
			emit = l.Warnw
		}
		emit("http request",
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
			"bytes", c.Writer.Size(),
			"error", c.Errors.ByType(gin.ErrorTypePrivate).String(),
		)
	}
}
