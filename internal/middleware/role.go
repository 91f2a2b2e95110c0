package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fitnesshub/program-tracker/internal/apperr"
	"github.com/fitnesshub/program-tracker/internal/auth"
	"github.com/fitnesshub/program-tracker/internal/model"
)

// RequireRole rejects requests whose identity does not hold one of roles.
// It must run after Gate.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := auth.FromContext(c.Request().Context())
			if id == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":   apperr.Code(apperr.ErrUnauthenticated),
					"message": "authentication required",
				})
			}
			if !allowed[id.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"error":   apperr.Code(apperr.ErrForbidden),
					"message": "insufficient role",
				})
			}
			return next(c)
		}
	}
}
