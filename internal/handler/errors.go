package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fitnesshub/program-tracker/internal/apperr"
	"github.com/fitnesshub/program-tracker/internal/middleware"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var statusByKind = map[error]int{
	apperr.ErrInvalidInput:    http.StatusBadRequest,
	apperr.ErrConflict:        http.StatusConflict,
	apperr.ErrAlreadyVerified: http.StatusConflict,
	apperr.ErrBadCredentials:  http.StatusUnauthorized,
	apperr.ErrUnauthenticated: http.StatusUnauthorized,
	apperr.ErrNotVerified:     http.StatusForbidden,
	apperr.ErrForbidden:       http.StatusForbidden,
	apperr.ErrNotFound:        http.StatusNotFound,
	apperr.ErrExpired:         http.StatusGone,
	apperr.ErrRateLimited:     http.StatusTooManyRequests,
	apperr.ErrEmailDispatch:   http.StatusBadGateway,
}

// StatusOf returns the HTTP status for a service error.
func StatusOf(err error) int {
	if s, ok := statusByKind[apperr.Kind(err)]; ok {
		return s
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error": code, "message": text}. Errors
// without a known kind are reported generically; the request log keeps
// the detail.
func writeError(c echo.Context, err error) error {
	status := StatusOf(err)
	if apperr.Kind(err) == nil {
		c.Set(middleware.HandlerErrorKey, err)
		msg := "internal server error"
		if status == http.StatusServiceUnavailable {
			msg = "request timed out"
		}
		return c.JSON(status, errorResponse{Error: apperr.Code(err), Message: msg})
	}
	return c.JSON(status, errorResponse{Error: apperr.Code(err), Message: err.Error()})
}

// bindAndValidate decodes the request body into dst and validates it.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.New(apperr.ErrInvalidInput, "invalid request body")
	}
	return c.Validate(dst)
}

// ErrorHandler renders framework errors (unknown routes, body limits,
// panics recovered upstream) in the same shape as service errors.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		msg := "internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(status)
			}
		} else {
			log.Error("unhandled error", zap.String("path", c.Request().URL.Path), zap.Error(err))
		}
		code := strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
		if status == http.StatusNotFound {
			code = apperr.Code(apperr.ErrNotFound)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, errorResponse{Error: code, Message: msg})
	}
}

func withTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(c.Request().Context(), d)
}
