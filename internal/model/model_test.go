package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strp(s string) *string { return &s }

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "alice", User{Username: "alice"}.DisplayName())
	assert.Equal(t, "Alice", User{Username: "alice", FirstName: strp("Alice")}.DisplayName())
	assert.Equal(t, "Alice Smith", User{Username: "alice", FirstName: strp("Alice"), LastName: strp("Smith")}.DisplayName())
	assert.Equal(t, "Smith", User{Username: "alice", FirstName: strp("  "), LastName: strp("Smith")}.DisplayName())
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleModerator, ParseRole(" MODERATOR "))
	assert.Equal(t, RoleUser, ParseRole("superuser"))
	assert.Equal(t, RoleUser, ParseRole(""))
}

func TestVerificationValidity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v := EmailVerification{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, v.Valid(now))

	assert.True(t, v.Expired(now.Add(time.Hour)), "expiry instant is already expired")
	assert.False(t, v.Valid(now.Add(2*time.Hour)))

	redeemed := now
	v.VerifiedAt = &redeemed
	assert.True(t, v.Redeemed())
	assert.False(t, v.Valid(now))
}

func TestTags(t *testing.T) {
	assert.Equal(t, `["Beginner","Advanced"]`, EncodeTags([]string{"Beginner", "Advanced"}))
	assert.Equal(t, "[]", EncodeTags(nil))

	cases := map[string][]string{
		`["Beginner","Advanced"]`:         {"Beginner", "Advanced"},
		"['Beginner', 'Intermediate']":    {"Beginner", "Intermediate"},
		"Muscle & Sculpting, Bodybuilding": {"Muscle & Sculpting", "Bodybuilding"},
		"":                                {},
		"[]":                              {},
	}
	for in, want := range cases {
		assert.Equal(t, want, DecodeTags(in), in)
	}
}

func TestNormalizeDay(t *testing.T) {
	d, ok := NormalizeDay("monday")
	assert.True(t, ok)
	assert.Equal(t, "MON", d)

	_, ok = NormalizeDay("someday")
	assert.False(t, ok)
}

func TestProgramOwnership(t *testing.T) {
	id := uint64(7)
	assert.True(t, Program{}.IsPublic())
	assert.False(t, Program{CreatedBy: &id}.IsPublic())
	assert.Equal(t, &id, Program{CreatedBy: &id}.Owner())
}

func TestEncodeTagsKeepsSymbolsLiteral(t *testing.T) {
	enc := EncodeTags([]string{"Strength & Power", "<Core>"})
	assert.Equal(t, `["Strength & Power","<Core>"]`, enc)
	assert.Contains(t, strings.ToLower(enc), "& power")
	assert.Equal(t, []string{"Strength & Power", "<Core>"}, DecodeTags(enc))
}
