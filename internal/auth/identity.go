package auth

import (
	"context"

	"github.com/fitnesshub/program-tracker/internal/apperr"
	"github.com/fitnesshub/program-tracker/internal/model"
)

// Identity is the authenticated caller of a single request. A nil
// *Identity means the caller is anonymous.
type Identity struct {
	UserID   uint64
	Email    string
	Username string
	Role     model.Role
}

// IdentityOf builds the identity of a loaded user.
func IdentityOf(u model.User) *Identity {
	return &Identity{UserID: u.ID, Email: u.Email, Username: u.Username, Role: u.Role}
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}

// RequireIdentity fails with apperr.ErrUnauthenticated unless id names a
// user.
func RequireIdentity(id *Identity) (*Identity, error) {
	if id == nil || id.UserID == 0 {
		return nil, apperr.New(apperr.ErrUnauthenticated, "authentication required")
	}
	return id, nil
}
