package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request through zap, replacing gin's
// default console logger.
func RequestLogger() gin.HandlerFunc {
	log := logger.Named("http")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if userID := c.GetString("user_id"); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}

		switch {
		case status >= 500:
			log.Error("Request completed", fields...)
		case status >= 400:
			log.Warn("Request completed", fields...)
		default:
			log.Debug("Request completed", fields...)
		}
	}
}
