package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitnesshub/program-tracker/internal/apperr"
	"github.com/fitnesshub/program-tracker/internal/auth"
	"github.com/fitnesshub/program-tracker/internal/model"
	"github.com/fitnesshub/program-tracker/internal/repository"
)

func sampleProgram(title string) ProgramInput {
	return ProgramInput{
		Title:          title,
		Description:    "Three full-body sessions per week.",
		Levels:         []string{"Beginner", " "},
		Goals:          []string{"Muscle & Sculpting"},
		Equipment:      "Full Gym",
		ProgramLength:  8,
		TimePerWorkout: 45,
		TotalExercises: 24,
	}
}

func TestCreateProgramRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	_, err := f.programs.Create(context.Background(), nil, sampleProgram("Starter"))
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestCreateProgramRecordsOwner(t *testing.T) {
	f := newFixture(t)
	alice := f.verifiedUser(t, "alice")

	p, err := f.programs.Create(context.Background(), alice, sampleProgram(" Starter "))
	require.NoError(t, err)
	assert.Equal(t, "Starter", p.Title)
	assert.Equal(t, []string{"Beginner"}, p.Levels)
	require.NotNil(t, p.CreatedBy)
	assert.Equal(t, alice.UserID, *p.CreatedBy)
	require.NotNil(t, p.Creator)
	assert.Equal(t, "alice", p.Creator.Username)
	assert.False(t, p.IsPublic())
}

func TestCreateProgramValidates(t *testing.T) {
	f := newFixture(t)
	alice := f.verifiedUser(t, "alice")

	in := sampleProgram("ab")
	in.Description = "short"
	in.Goals = nil
	in.TimePerWorkout = 301
	_, err := f.programs.Create(context.Background(), alice, in)
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Contains(t, err.Error(), "title")
	assert.Contains(t, err.Error(), "description")
	assert.Contains(t, err.Error(), "goal")
	assert.Contains(t, err.Error(), "time per workout")
}

func TestProgramOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.verifiedUser(t, "alice")
	bob := f.verifiedUser(t, "bob")
	admin := f.seedAccount(t, "root", model.RoleAdmin)

	p, err := f.programs.Create(ctx, alice, sampleProgram("Alice's plan"))
	require.NoError(t, err)

	_, err = f.programs.Update(ctx, bob, p.ID, sampleProgram("Hijacked"))
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	err = f.programs.Delete(ctx, bob, p.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.programs.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice's plan", got.Title)

	updated, err := f.programs.Update(ctx, alice, p.ID, sampleProgram("Alice's plan v2"))
	require.NoError(t, err)
	assert.Equal(t, "Alice's plan v2", updated.Title)
	assert.Equal(t, alice.UserID, *updated.CreatedBy)

	updated, err = f.programs.Update(ctx, admin, p.ID, sampleProgram("Moderated"))
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, *updated.CreatedBy, "admin edits keep the owner")

	require.NoError(t, f.programs.Delete(ctx, admin, p.ID))
	_, err = f.programs.Get(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUnownedProgramsAreAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.verifiedUser(t, "alice")
	admin := f.seedAccount(t, "root", model.RoleAdmin)

	p := &model.Program{Title: "Catalogue", Description: "Imported program.", Levels: []string{"Beginner"}, Goals: []string{"Athletics"}, Equipment: "At Home", ProgramLength: 4, TimePerWorkout: 30, TotalExercises: 10}
	require.NoError(t, f.store.Programs().Create(ctx, p))

	err := f.programs.Delete(ctx, alice, p.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	require.NoError(t, f.programs.Delete(ctx, admin, p.ID))
}

func TestMutatingMissingProgram(t *testing.T) {
	f := newFixture(t)
	alice := f.verifiedUser(t, "alice")
	_, err := f.programs.Update(context.Background(), alice, 999, sampleProgram("Nothing"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSearchPrograms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.verifiedUser(t, "alice")

	short := sampleProgram("Quick home")
	short.Equipment = "At Home"
	short.TimePerWorkout = 20
	_, err := f.programs.Create(ctx, alice, short)
	require.NoError(t, err)

	long := sampleProgram("Long gym")
	long.Levels = []string{"Advanced"}
	long.TimePerWorkout = 90
	_, err = f.programs.Create(ctx, alice, long)
	require.NoError(t, err)

	all, err := f.programs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	max := 30.0
	got, err := f.programs.Search(ctx, repository.ProgramFilter{MaxDuration: &max})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Quick home", got[0].Title)

	got, err = f.programs.Search(ctx, repository.ProgramFilter{Level: "advan", Equipment: "Full Gym"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Long gym", got[0].Title)

	neg := -1.0
	_, err = f.programs.Search(ctx, repository.ProgramFilter{MaxDuration: &neg})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestWeeklyPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.verifiedUser(t, "alice")
	bob := f.verifiedUser(t, "bob")

	p, err := f.programs.Create(ctx, alice, sampleProgram("Split"))
	require.NoError(t, err)

	_, err = f.plans.Save(ctx, alice, p.ID, "monday", "Push day")
	require.NoError(t, err)
	_, err = f.plans.Save(ctx, alice, p.ID, "WED", "Pull day")
	require.NoError(t, err)
	e, err := f.plans.Save(ctx, alice, p.ID, "Mon", "Legs")
	require.NoError(t, err)
	assert.Equal(t, "MON", e.DayOfWeek)

	entries, err := f.plans.List(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Legs", entries[0].Content)

	_, err = f.plans.Save(ctx, alice, p.ID, "someday", "Rest")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = f.plans.Save(ctx, alice, p.ID, "FRI", "  ")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = f.plans.Save(ctx, bob, p.ID, "FRI", "Sabotage")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.plans.Save(ctx, (*auth.Identity)(nil), p.ID, "FRI", "Anon")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	require.NoError(t, f.plans.Remove(ctx, alice, p.ID, "wednesday"))
	err = f.plans.Remove(ctx, alice, p.ID, "WED")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.plans.List(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, f.programs.Delete(ctx, alice, p.ID))
	entries, err = f.store.WeeklyPlans().ListByProgram(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
