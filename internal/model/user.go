package model

import (
	"strings"
	"time"
)

// Role is the authorization role carried by a user and embedded in session
// tokens. Capability checks live in package auth.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// ParseRole maps a stored or claimed role name to a Role. Unknown names
// fall back to RoleUser, the least privileged role.
func ParseRole(s string) Role {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if r.Valid() {
		return r
	}
	return RoleUser
}

// User mirrors the `users` table. PasswordHash never leaves the service
// layer; handlers build their own response types.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username (unique)
	Email        string    // users.email (unique, lower-cased)
	PasswordHash string    // users.password_hash (bcrypt)
	FirstName    *string   // users.first_name
	LastName     *string   // users.last_name
	Verified     bool      // users.is_verified
	Role         Role      // users.role
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// DisplayName joins the optional first and last names, falling back to the
// username when neither is set.
func (u User) DisplayName() string {
	var parts []string
	if u.FirstName != nil && strings.TrimSpace(*u.FirstName) != "" {
		parts = append(parts, strings.TrimSpace(*u.FirstName))
	}
	if u.LastName != nil && strings.TrimSpace(*u.LastName) != "" {
		parts = append(parts, strings.TrimSpace(*u.LastName))
	}
	if len(parts) == 0 {
		return u.Username
	}
	return strings.Join(parts, " ")
}
