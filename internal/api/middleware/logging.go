// Package middleware provides the echo middleware of the attendance API.
package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dawnstudy/attendance/internal/logger"
)

// NewRequestLogger logs one line per request with the request id as trace id.
func NewRequestLogger(log logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("uri", v.URI),
				logger.Int("status", v.Status),
				logger.String("ip", v.RemoteIP),
				logger.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, logger.Error(v.Error))
			}

			ctx := logger.WithTraceID(c.Request().Context(), v.RequestID)
			reqLog := log.WithContext(ctx)
			if v.Status >= 500 {
				reqLog.Error("request", fields...)
				return nil
			}
			reqLog.Info("request", fields...)
			return nil
		},
	})
}
