package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fitnesshub/program-tracker/internal/service"
)

// AdminHandler serves maintenance endpoints restricted to administrators.
type AdminHandler struct {
	Verifications *service.VerificationService
	Timeout       time.Duration
}

func NewAdminHandler(v *service.VerificationService, timeout time.Duration) *AdminHandler {
	return &AdminHandler{Verifications: v, Timeout: timeout}
}

// PurgeExpiredVerifications deletes unredeemed verification tokens past
// their expiry.
func (h *AdminHandler) PurgeExpiredVerifications(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	n, err := h.Verifications.PurgeExpired(ctx, identity(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}
