package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	applogger "StockPilot/pkg/logger"
)

// RequestLogging assigns X-Request-ID (kept when the client sent one) and
// logs one line per request after the error handler has written the status.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	requestID := echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	})
	if l == nil {
		return requestID
	}
	logRequest := echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		HandleError:  true,
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogRoutePath: true,
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			fields := []applogger.Field{
				applogger.String("request_id", v.RequestID),
				applogger.String("method", v.Method),
				applogger.String("uri", v.URI),
				applogger.String("route", v.RoutePath),
				applogger.String("remote", v.RemoteIP),
				applogger.Int("status", v.Status),
				applogger.Duration("latency_ms", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, applogger.Error(v.Error))
			}
			if v.Status >= 500 {
				l.Warn("http request", fields...)
			} else {
				l.Info("http request", fields...)
			}
			return nil
		},
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return requestID(logRequest(next))
	}
}
