package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fitnesshub/program-tracker/internal/apperr"
	"github.com/fitnesshub/program-tracker/internal/auth"
	"github.com/fitnesshub/program-tracker/internal/model"
	"github.com/fitnesshub/program-tracker/internal/queue"
	"github.com/fitnesshub/program-tracker/internal/repository"
)

// WeeklyPlanService reads and edits a program's weekly schedule. A program
// holds at most one entry per day.
type WeeklyPlanService struct {
	store repository.Store
	options
}

func NewWeeklyPlanService(store repository.Store, opts ...Option) *WeeklyPlanService {
	return &WeeklyPlanService{store: store, options: buildOptions(opts)}
}

// List returns the program's entries in insertion order.
func (s *WeeklyPlanService) List(ctx context.Context, programID uint64) ([]model.WeeklyPlanEntry, error) {
	if _, err := getProgram(ctx, s.store, programID); err != nil {
		return nil, err
	}
	return s.store.WeeklyPlans().ListByProgram(ctx, programID)
}

// Save sets the content for one day, creating or replacing the entry.
func (s *WeeklyPlanService) Save(ctx context.Context, id *auth.Identity, programID uint64, day, content string) (*model.WeeklyPlanEntry, error) {
	id, err := auth.RequireIdentity(id)
	if err != nil {
		return nil, err
	}
	code, ok := model.NormalizeDay(day)
	if !ok {
		return nil, apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("unknown day of week %q", day))
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.New(apperr.ErrInvalidInput, "content is required")
	}

	e := &model.WeeklyPlanEntry{ProgramID: programID, DayOfWeek: code, Content: content}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := authorizeProgram(ctx, tx, id, programID); err != nil {
			return err
		}
		if err := tx.WeeklyPlans().Upsert(ctx, e); err != nil {
			return fmt.Errorf("save weekly plan entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, queue.AuditEvent{Type: queue.EventWeeklyPlanSaved, UserID: id.UserID, ProgramID: programID, Detail: code})
	return e, nil
}

// Remove deletes the entry for one day.
func (s *WeeklyPlanService) Remove(ctx context.Context, id *auth.Identity, programID uint64, day string) error {
	id, err := auth.RequireIdentity(id)
	if err != nil {
		return err
	}
	code, ok := model.NormalizeDay(day)
	if !ok {
		return apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("unknown day of week %q", day))
	}

	return s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := authorizeProgram(ctx, tx, id, programID); err != nil {
			return err
		}
		err := tx.WeeklyPlans().Delete(ctx, programID, code)
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, fmt.Sprintf("no %s entry in this plan", code))
		}
		return err
	})
}
