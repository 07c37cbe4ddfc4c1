package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dawnstudy/attendance/internal/errors"
)

// RequestRecorder receives one observation per request.
type RequestRecorder interface {
	RecordHTTPRequest(method, path string, statusCode int, duration float64)
}

// NewMetrics records requests by route template so path parameters do not
// explode label cardinality.
func NewMetrics(rec RequestRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			// errors are written by the echo error handler after the chain
			status := c.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			rec.RecordHTTPRequest(c.Request().Method, path, status, time.Since(start).Seconds())
			return err
		}
	}
}
