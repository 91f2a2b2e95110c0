package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fitnesshub/program-tracker/internal/auth"
	"github.com/fitnesshub/program-tracker/internal/logger"
)

const requestIDKey = "request_id"

// currentUserID returns the authenticated user's id as a string, or "anon".
func currentUserID(c echo.Context) string {
	if id := auth.FromContext(c.Request().Context()); id != nil {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}

// requestLogger tags base with the request id assigned by RequestID.
func requestLogger(c echo.Context, base *zap.Logger) *zap.Logger {
	if id, ok := c.Get(requestIDKey).(string); ok && id != "" {
		return logger.WithRequestID(base, id)
	}
	return base
}
