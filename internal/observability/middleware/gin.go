package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NeriVermilion/departure-planner/internal/observability/logging"
	"github.com/NeriVermilion/departure-planner/internal/observability/metrics"
)

type GinConfig struct {
	SkipPaths   []string
	Module      logging.Module
	HTTPMetrics *metrics.HTTPMetrics
}

// Gin logs each request and records HTTP metrics. A request id is taken from
// the x-request-id header or generated, and stored on the request context for
// downstream provider calls.
func Gin(cfg GinConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if slices.Contains(cfg.SkipPaths, path) {
			c.Next()
			return
		}

		requestID := logging.ValidateAndExtractRequestID(c.GetHeader("x-request-id"))
		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("x-request-id", requestID)

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		if cfg.HTTPMetrics != nil {
			cfg.HTTPMetrics.Record(ctx, c.Request.Method, c.FullPath(), status, elapsed)
		}

		attrs := []any{
			slog.String("module", string(cfg.Module)),
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("elapsed", elapsed),
		}

		switch {
		case status >= http.StatusInternalServerError:
			slog.ErrorContext(ctx, "request failed", attrs...)
		case status >= http.StatusBadRequest:
			slog.WarnContext(ctx, "request rejected", attrs...)
		default:
			slog.InfoContext(ctx, "request completed", attrs...)
		}
	}
}

// PanicRecoveryGin converts a handler panic into a 500 without killing the
// process.
func PanicRecoveryGin() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(c.Request.Context(), "handler panic recovered",
					slog.Any("panic", r),
					slog.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal_error",
				})
			}
		}()
		c.Next()
	}
}
