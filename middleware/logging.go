package middleware

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/princinho/parkingbackend/apperror"
	"github.com/princinho/parkingbackend/utils"
)

const maxCorrelationIDLength = 128

// CorrelationID reuses the caller's X-Correlation-ID when present and
// otherwise mints one. The id is echoed on the response.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(utils.CorrelationIDHeader)
		if id == "" || len(id) > maxCorrelationIDLength {
			id = uuid.NewString()
		}
		c.Set(utils.CorrelationIDKey, id)
		c.Header(utils.CorrelationIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs every request once it has been handled.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 400 && status < 500 {
			level = slog.LevelWarn
		} else if status >= 500 {
			level = slog.LevelError
		}

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("ip", c.ClientIP()),
			slog.String("correlation_id", c.GetString(utils.CorrelationIDKey)),
		}
		if p := CurrentPrincipal(c); p != nil {
			attrs = append(attrs, slog.Int64("user_id", p.ID))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.Last().Error()))
		}
		slog.Log(c.Request.Context(), level, "HTTP request processed", attrs...)
	}
}

// Recovery turns a panic into an INTERNAL_ERROR response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		utils.SendError(c, apperror.Internal(fmt.Errorf("panic: %v", recovered)))
	})
}
