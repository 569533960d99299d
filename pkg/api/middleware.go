package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// slogRequest logs one completed request the way the rest of the codebase
// logs everything else — structured, via log/slog — rather than gin's
// built-in text logger.
func slogRequest(c *gin.Context, elapsed time.Duration) {
	status := c.Writer.Status()
	attrs := []any{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", status,
		"duration", elapsed.String(),
	}
	switch {
	case status >= 500:
		slog.Error("http request", attrs...)
	case status >= 400:
		slog.Warn("http request", attrs...)
	default:
		slog.Info("http request", attrs...)
	}
}
