package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fitnesshub/program-tracker/internal/auth"
	"github.com/fitnesshub/program-tracker/internal/model"
)

// UserLookup resolves the subject of a session token to an account.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// Gate attaches the caller's identity to requests outside the public
// allow-list. It never rejects a request: a missing, malformed, expired or
// orphaned token leaves the caller anonymous, and handlers decide whether
// that is acceptable.
func Gate(tokens *auth.TokenService, users UserLookup, public PublicRoutes, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if public.Allows(req.Method, req.URL.Path) {
				return next(c)
			}
			if id := authenticate(c, tokens, users, log); id != nil {
				c.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), id)))
			}
			return next(c)
		}
	}
}

func authenticate(c echo.Context, tokens *auth.TokenService, users UserLookup, log *zap.Logger) *auth.Identity {
	raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return nil
	}
	log = requestLogger(c, log)

	claims, err := tokens.Verify(raw)
	if err != nil {
		log.Debug("session token rejected", zap.Error(err))
		return nil
	}
	u, err := users.GetByEmail(c.Request().Context(), claims.Subject)
	if err != nil {
		log.Debug("session subject not resolved", zap.String("subject", claims.Subject), zap.Error(err))
		return nil
	}
	if !u.Verified {
		log.Debug("session subject not verified", zap.Uint64("user_id", u.ID))
		return nil
	}
	return auth.IdentityOf(*u)
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}
