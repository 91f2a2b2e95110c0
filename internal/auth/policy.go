package auth

import "github.com/fitnesshub/program-tracker/internal/model"

// Owned is implemented by resources that record the user who created them.
type Owned interface {
	Owner() *uint64
}

// IsAdmin reports whether role bypasses ownership checks.
func IsAdmin(role model.Role) bool { return role == model.RoleAdmin }

// CanModify reports whether id may update or delete r. Administrators may
// modify anything; otherwise only the recorded owner may, so unowned
// resources are admin-only.
func CanModify(r Owned, id *Identity) bool {
	if id == nil {
		return false
	}
	if IsAdmin(id.Role) {
		return true
	}
	owner := r.Owner()
	return owner != nil && *owner == id.UserID
}
