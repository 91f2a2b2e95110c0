package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitnesshub/program-tracker/internal/apperr"
	"github.com/fitnesshub/program-tracker/internal/model"
)

func owned(id uint64) model.Program { return model.Program{CreatedBy: &id} }

func TestCanModify(t *testing.T) {
	alice := &Identity{UserID: 1, Role: model.RoleUser}
	bob := &Identity{UserID: 2, Role: model.RoleUser}
	mod := &Identity{UserID: 3, Role: model.RoleModerator}
	admin := &Identity{UserID: 4, Role: model.RoleAdmin}
	unowned := model.Program{}

	cases := []struct {
		name string
		res  Owned
		id   *Identity
		want bool
	}{
		{"owner", owned(1), alice, true},
		{"other user", owned(1), bob, false},
		{"moderator is not privileged", owned(1), mod, false},
		{"admin bypasses", owned(1), admin, true},
		{"unowned for user", unowned, alice, false},
		{"unowned for admin", unowned, admin, true},
		{"anonymous", owned(1), nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanModify(tc.res, tc.id))
		})
	}
}

func TestRequireIdentity(t *testing.T) {
	_, err := RequireIdentity(nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = RequireIdentity(&Identity{})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	id, err := RequireIdentity(&Identity{UserID: 9})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), id.UserID)
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))

	id := IdentityOf(model.User{ID: 5, Email: "a@x.io", Username: "a", Role: model.RoleAdmin})
	got := FromContext(WithIdentity(ctx, id))
	require.NotNil(t, got)
	assert.Equal(t, uint64(5), got.UserID)
	assert.True(t, IsAdmin(got.Role))
}
