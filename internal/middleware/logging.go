package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HandlerErrorKey holds an internal error a handler already answered with
// a generic response, so the request log can record the cause.
const HandlerErrorKey = "handler_error"

// RequestLog writes one structured line per request.
func RequestLog(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let the error handler write the response so the status is final
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("route", c.Path()),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
				zap.String("user", currentUserID(c)),
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			} else if herr, ok := c.Get(HandlerErrorKey).(error); ok {
				fields = append(fields, zap.Error(herr))
			}

			l := requestLogger(c, log)
			switch {
			case status >= 500:
				l.Error("request", fields...)
			case status >= 400:
				l.Warn("request", fields...)
			default:
				l.Info("request", fields...)
			}
			return nil
		}
	}
}
