// Package middleware holds the gin middleware shared by every route group.
package middleware

import (
	"log/slog"
	"net/http"
	"shop/internal/http/response"
	"shop/internal/lib/sl"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID keeps the caller's X-Request-ID or generates a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logger writes one access log line per request.
func Logger(log *slog.Logger) gin.HandlerFunc {
	log = log.With(slog.String("component", "middleware/logger"))

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("remote_addr", c.ClientIP()),
			slog.String("request_id", RequestIDFrom(c)),
			slog.Int("status", status),
			slog.Int("bytes", c.Writer.Size()),
			slog.String("duration", time.Since(start).String()),
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request completed", attrs...)
		default:
			log.Info("request completed", attrs...)
		}
	}
}

// Recovery turns a panic into a 500 envelope and logs it.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			slog.Any("panic", recovered),
			slog.String("path", c.Request.URL.Path),
			slog.String("request_id", RequestIDFrom(c)),
		)
		response.Internal(c)
	})
}

func logErr(log *slog.Logger, c *gin.Context, msg string, err error) {
	log.Error(msg, sl.Err(err), slog.String("request_id", RequestIDFrom(c)))
}
