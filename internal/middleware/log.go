package middleware

import (
	"net/http"
	"time"

	"fintracker/internal/util"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request and turns panics into a 500.
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered", "method", c.Request.Method, "path", c.Request.URL.Path, "panic", rec)
				util.Error(c, http.StatusInternalServerError, "internal server error")
			}

			status := c.Writer.Status()
			fields := []any{
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"status", status,
				"latency", time.Since(start),
			}
			if owner := Owner(c); owner != "" {
				fields = append(fields, "owner", owner)
			}
			if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
				fields = append(fields, "err", errs.String())
			}

			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("request", fields...)
			case status >= http.StatusBadRequest:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
		}()

		c.Next()
	}
}
