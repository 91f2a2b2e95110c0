package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitnesshub/program-tracker/internal/apperr"
	"github.com/fitnesshub/program-tracker/internal/model"
)

func strp(s string) *string { return &s }

func TestRegisterCreatesUnverifiedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Register(ctx, RegisterInput{
		Username:  "alice",
		Email:     "  Alice@Example.com ",
		Password:  "password1",
		FirstName: strp(" Alice "),
		LastName:  strp(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.False(t, u.Verified)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.Equal(t, "Alice", *u.FirstName)
	assert.Nil(t, u.LastName)
	assert.NotEqual(t, "password1", u.PasswordHash)

	require.Equal(t, 1, f.mailer.count())
	sent := f.mailer.sent[0]
	assert.Equal(t, "alice@example.com", sent.to)
	assert.Equal(t, "Verify your Fitness Program Hub account", sent.subject)
	assert.Contains(t, sent.body, "http://localhost:4200/auth/verify?token=")
	assert.Contains(t, sent.body, "24 hours")
}

func TestRegisterRejectsTakenEmailAndUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifiedUser(t, "alice")

	_, err := f.auth.Register(ctx, RegisterInput{Username: "other", Email: "ALICE@example.com", Password: "password1"})
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.auth.Register(ctx, RegisterInput{Username: "alice", Email: "new@example.com", Password: "password1"})
	assert.ErrorIs(t, err, apperr.ErrUsernameTaken)
}

func TestRegisterRollsBackWhenEmailFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mailer.fail = true

	_, err := f.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password1"})
	require.ErrorIs(t, err, apperr.ErrEmailDispatch)

	exists, err := f.store.Users().ExistsByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	f.mailer.fail = false
	_, err = f.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password1"})
	require.NoError(t, err)
}

func TestRegisterRequiresFields(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Register(context.Background(), RegisterInput{Email: "a@example.com"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: strings.Repeat("p", 80)})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Equal(t, "invalid_input", apperr.Code(err))
	assert.Zero(t, f.mailer.count())

	exists, err := f.store.Users().ExistsByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: strings.Repeat("p", 72)})
	require.NoError(t, err)
}

func TestLoginBeforeVerificationFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, LoginInput{Login: "alice", Password: "password1"})
	assert.ErrorIs(t, err, apperr.ErrNotVerified)

	_, err = f.auth.VerifyEmail(ctx, f.mailer.lastToken(t, "alice@example.com"))
	require.NoError(t, err)

	res, err := f.auth.Login(ctx, LoginInput{Login: "alice", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.True(t, res.User.Verified)
	assert.Equal(t, f.clock.Now().Add(24*time.Hour), res.ExpiresAt)

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, "USER", claims.Role)
}

func TestLoginByEmailOrUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifiedUser(t, "alice")

	for _, login := range []string{"alice", "alice@example.com", "ALICE@example.com"} {
		_, err := f.auth.Login(ctx, LoginInput{Login: login, Password: "password1"})
		assert.NoError(t, err, login)
	}
}

func TestLoginBadCredentialsAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifiedUser(t, "alice")

	_, wrongPassword := f.auth.Login(ctx, LoginInput{Login: "alice", Password: "nope"})
	_, unknownUser := f.auth.Login(ctx, LoginInput{Login: "mallory", Password: "password1"})

	require.ErrorIs(t, wrongPassword, apperr.ErrBadCredentials)
	require.ErrorIs(t, unknownUser, apperr.ErrBadCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.verifiedUser(t, "alice")

	u, err := f.auth.Me(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = f.auth.Me(ctx, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}
