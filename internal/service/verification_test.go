package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitnesshub/program-tracker/internal/apperr"
	"github.com/fitnesshub/program-tracker/internal/model"
)

func register(t *testing.T, f *fixture, name string) *model.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), RegisterInput{Username: name, Email: name + "@example.com", Password: "password1"})
	require.NoError(t, err)
	return u
}

func TestRedeemVerifiesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := register(t, f, "alice")
	token := f.mailer.lastToken(t, u.Email)

	got, err := f.verify.Redeem(ctx, token)
	require.NoError(t, err)
	assert.True(t, got.Verified)

	v, err := f.store.Verifications().GetByToken(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, v.VerifiedAt)
	assert.Equal(t, f.clock.Now(), *v.VerifiedAt)

	_, err = f.verify.Redeem(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrAlreadyVerified)
}

func TestRedeemExpired(t *testing.T) {
	f := newFixture(t)
	u := register(t, f, "alice")
	token := f.mailer.lastToken(t, u.Email)

	f.clock.Advance(24*time.Hour + time.Second)
	_, err := f.verify.Redeem(context.Background(), token)
	assert.ErrorIs(t, err, apperr.ErrExpired)

	stored, err := f.store.Users().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, stored.Verified)
}

func TestRedeemUnknownAndEmpty(t *testing.T) {
	f := newFixture(t)
	_, err := f.verify.Redeem(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.verify.Redeem(context.Background(), "  ")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestResendSupersedesPreviousToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := register(t, f, "alice")
	first := f.mailer.lastToken(t, u.Email)

	f.clock.Advance(time.Minute)
	require.NoError(t, f.verify.Resend(ctx, u.Email, "10.0.0.1"))
	second := f.mailer.lastToken(t, u.Email)
	require.NotEqual(t, first, second)

	_, err := f.verify.Redeem(ctx, first)
	assert.ErrorIs(t, err, apperr.ErrExpired)

	_, err = f.verify.Redeem(ctx, second)
	require.NoError(t, err)

	v, err := f.store.Verifications().GetByToken(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, v.IPAddress)
	assert.Equal(t, "10.0.0.1", *v.IPAddress)
}

func TestIssuanceRateLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := register(t, f, "alice") // first issuance

	f.clock.Advance(time.Minute)
	require.NoError(t, f.verify.Resend(ctx, u.Email, ""))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.verify.Resend(ctx, u.Email, "")) // third succeeds

	f.clock.Advance(time.Minute)
	err := f.verify.Resend(ctx, u.Email, "")
	assert.ErrorIs(t, err, apperr.ErrRateLimited)
	assert.Equal(t, 3, f.mailer.count())

	// The window slides: once the first issuance is over an hour old a new
	// one is allowed again.
	f.clock.Advance(58 * time.Minute)
	require.NoError(t, f.verify.Resend(ctx, u.Email, ""))
}

func TestResendRejectsUnknownAndVerified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.verify.Resend(ctx, "ghost@example.com", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	id := f.verifiedUser(t, "alice")
	err = f.verify.Resend(ctx, id.Email, "")
	assert.ErrorIs(t, err, apperr.ErrAlreadyVerified)
}

func TestResendDropsUndeliveredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := register(t, f, "alice")
	since := f.clock.Now().Add(-time.Hour)

	f.mailer.fail = true
	err := f.verify.Resend(ctx, u.Email, "")
	require.ErrorIs(t, err, apperr.ErrEmailDispatch)

	n, err := f.store.Verifications().CountSince(ctx, u.Email, model.KindEmailVerification, since)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPurgeExpiredRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "alice")
	user := f.seedAccount(t, "bob", model.RoleUser)
	admin := f.seedAccount(t, "root", model.RoleAdmin)

	_, err := f.verify.PurgeExpired(ctx, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = f.verify.PurgeExpired(ctx, user)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	n, err := f.verify.PurgeExpired(ctx, admin)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.Advance(25 * time.Hour)
	n, err = f.verify.PurgeExpired(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "24 hours", humanDuration(24*time.Hour))
	assert.Equal(t, "1 hour", humanDuration(time.Hour))
	assert.Equal(t, "30 minutes", humanDuration(30*time.Minute))
	assert.Equal(t, "1m30s", humanDuration(90*time.Second))
}

func TestResendFailureKeepsPreviousToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := register(t, f, "alice")
	first := f.mailer.lastToken(t, u.Email)

	f.clock.Advance(time.Minute)
	f.mailer.fail = true
	require.ErrorIs(t, f.verify.Resend(ctx, u.Email, ""), apperr.ErrEmailDispatch)
	f.mailer.fail = false

	got, err := f.verify.Redeem(ctx, first)
	require.NoError(t, err)
	assert.True(t, got.Verified)
}

func TestPurgeExpiredKeepsRowsInsideWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := register(t, f, "alice")
	admin := f.seedAccount(t, "root", model.RoleAdmin)

	f.clock.Advance(time.Minute)
	require.NoError(t, f.verify.Resend(ctx, u.Email, "")) // supersedes the first token
	f.clock.Advance(time.Minute)

	n, err := f.verify.PurgeExpired(ctx, admin)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := f.store.Verifications().CountSince(ctx, u.Email, model.KindEmailVerification, f.clock.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	f.clock.Advance(time.Hour)
	n, err = f.verify.PurgeExpired(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
