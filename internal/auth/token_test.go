package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitnesshub/program-tracker/internal/model"
)

var (
	testKey = []byte(strings.Repeat("s", 32))
	t0      = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
)

func newTokens(t *testing.T, at time.Time) *TokenService {
	t.Helper()
	s, err := NewTokenService(testKey, 24*time.Hour)
	require.NoError(t, err)
	return s.WithClock(func() time.Time { return at })
}

func TestIssueAndVerify(t *testing.T) {
	s := newTokens(t, t0)
	raw, exp, err := s.Issue(model.User{ID: 7, Email: "alice@x.io", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(24*time.Hour), exp)

	claims, err := newTokens(t, t0.Add(23*time.Hour)).Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.io", claims.Subject)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, t0.Unix(), claims.IssuedAt.Unix())
}

func TestVerifyExpired(t *testing.T) {
	raw, _, err := newTokens(t, t0).Issue(model.User{ID: 7, Email: "alice@x.io", Role: model.RoleUser})
	require.NoError(t, err)

	_, err = newTokens(t, t0.Add(25*time.Hour)).Verify(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsOtherKey(t *testing.T) {
	raw, _, err := newTokens(t, t0).Issue(model.User{ID: 7, Email: "alice@x.io", Role: model.RoleUser})
	require.NoError(t, err)

	other, err := NewTokenService([]byte(strings.Repeat("o", 32)), time.Hour)
	require.NoError(t, err)
	_, err = other.WithClock(func() time.Time { return t0 }).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbageAndAlgorithms(t *testing.T) {
	s := newTokens(t, t0)

	for _, raw := range []string{"", "abc", "a.b.c"} {
		_, err := s.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID:           7,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice@x.io", ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice@x.io", ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour))},
	}).SignedString(testKey)
	require.NoError(t, err)
	_, err = s.Verify(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiresExpiryAndSubject(t *testing.T) {
	s := newTokens(t, t0)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice@x.io"},
	}).SignedString(testKey)
	require.NoError(t, err)
	_, err = s.Verify(noExp)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour))},
	}).SignedString(testKey)
	require.NoError(t, err)
	_, err = s.Verify(noSub)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenServiceValidates(t *testing.T) {
	_, err := NewTokenService(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewTokenService(testKey, 0)
	assert.Error(t, err)
}
