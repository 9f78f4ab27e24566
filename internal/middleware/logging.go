package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/octobees/desamiantage-leads/internal/logging"
)

// Logging writes one structured line per HTTP request.
func Logging(logger *logging.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			attrs := []any{
				"request_id", RequestIDFromContext(c),
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			}
			if sc := trace.SpanContextFromContext(req.Context()); sc.IsValid() {
				attrs = append(attrs, "trace_id", sc.TraceID().String())
			}
			if status >= 500 {
				logger.Error("request completed", attrs...)
			} else {
				logger.Info("request completed", attrs...)
			}

			return err
		}
	}
}
