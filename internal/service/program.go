package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fitnesshub/program-tracker/internal/apperr"
	"github.com/fitnesshub/program-tracker/internal/auth"
	"github.com/fitnesshub/program-tracker/internal/model"
	"github.com/fitnesshub/program-tracker/internal/queue"
	"github.com/fitnesshub/program-tracker/internal/repository"
)

// ProgramInput holds the editable fields of a program.
type ProgramInput struct {
	Title          string
	Description    string
	Levels         []string
	Goals          []string
	Equipment      string
	ProgramLength  float64
	TimePerWorkout float64
	TotalExercises int
}

func (in ProgramInput) validate() error {
	var problems []string
	if n := len(strings.TrimSpace(in.Title)); n < 3 || n > 100 {
		problems = append(problems, "title must be between 3 and 100 characters")
	}
	if len(strings.TrimSpace(in.Description)) < 10 {
		problems = append(problems, "description must be at least 10 characters")
	}
	if len(cleanTags(in.Levels)) == 0 {
		problems = append(problems, "at least one level is required")
	}
	if len(cleanTags(in.Goals)) == 0 {
		problems = append(problems, "at least one goal is required")
	}
	if strings.TrimSpace(in.Equipment) == "" {
		problems = append(problems, "equipment is required")
	}
	if in.ProgramLength <= 0 {
		problems = append(problems, "program length must be positive")
	}
	if in.TimePerWorkout <= 0 || in.TimePerWorkout > 300 {
		problems = append(problems, "time per workout must be between 0 and 300 minutes")
	}
	if in.TotalExercises <= 0 {
		problems = append(problems, "total exercises must be positive")
	}
	if len(problems) > 0 {
		return apperr.New(apperr.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func (in ProgramInput) apply(p *model.Program) {
	p.Title = strings.TrimSpace(in.Title)
	p.Description = strings.TrimSpace(in.Description)
	p.Levels = cleanTags(in.Levels)
	p.Goals = cleanTags(in.Goals)
	p.Equipment = strings.TrimSpace(in.Equipment)
	p.ProgramLength = in.ProgramLength
	p.TimePerWorkout = in.TimePerWorkout
	p.TotalExercises = in.TotalExercises
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ProgramService reads and edits programs. Reads are public; mutations
// require an identity and, for existing programs, ownership.
type ProgramService struct {
	store repository.Store
	options
}

func NewProgramService(store repository.Store, opts ...Option) *ProgramService {
	return &ProgramService{store: store, options: buildOptions(opts)}
}

func (s *ProgramService) List(ctx context.Context) ([]model.Program, error) {
	return s.store.Programs().List(ctx)
}

func (s *ProgramService) Search(ctx context.Context, f repository.ProgramFilter) ([]model.Program, error) {
	if f.MaxDuration != nil && *f.MaxDuration < 0 {
		return nil, apperr.New(apperr.ErrInvalidInput, "maxDuration must not be negative")
	}
	return s.store.Programs().Search(ctx, f.Predicates()...)
}

func (s *ProgramService) Get(ctx context.Context, id uint64) (*model.Program, error) {
	return getProgram(ctx, s.store, id)
}

// Create stores a program owned by the caller.
func (s *ProgramService) Create(ctx context.Context, id *auth.Identity, in ProgramInput) (*model.Program, error) {
	id, err := auth.RequireIdentity(id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.clock()
	owner := id.UserID
	p := &model.Program{CreatedBy: &owner, CreatedAt: now, UpdatedAt: now}
	in.apply(p)
	if err := s.store.Programs().Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	s.log.Info("program created", zap.Uint64("program_id", p.ID), zap.Uint64("user_id", id.UserID))
	s.publish(ctx, queue.AuditEvent{Type: queue.EventProgramCreated, UserID: id.UserID, ProgramID: p.ID, Detail: p.Title})
	return getProgram(ctx, s.store, p.ID)
}

// Update replaces the editable fields of a program the caller may modify.
func (s *ProgramService) Update(ctx context.Context, id *auth.Identity, programID uint64, in ProgramInput) (*model.Program, error) {
	id, err := auth.RequireIdentity(id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		p, err := authorizeProgram(ctx, tx, id, programID)
		if err != nil {
			return err
		}
		in.apply(p)
		p.UpdatedAt = s.clock()
		if err := tx.Programs().Update(ctx, p); err != nil {
			return fmt.Errorf("update program: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, queue.AuditEvent{Type: queue.EventProgramUpdated, UserID: id.UserID, ProgramID: programID})
	return getProgram(ctx, s.store, programID)
}

// Delete removes a program the caller may modify, with its weekly plan.
func (s *ProgramService) Delete(ctx context.Context, id *auth.Identity, programID uint64) error {
	id, err := auth.RequireIdentity(id)
	if err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := authorizeProgram(ctx, tx, id, programID); err != nil {
			return err
		}
		if err := tx.Programs().Delete(ctx, programID); err != nil {
			return fmt.Errorf("delete program: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("program deleted", zap.Uint64("program_id", programID), zap.Uint64("user_id", id.UserID))
	s.publish(ctx, queue.AuditEvent{Type: queue.EventProgramDeleted, UserID: id.UserID, ProgramID: programID})
	return nil
}

func getProgram(ctx context.Context, store repository.Store, id uint64) (*model.Program, error) {
	p, err := store.Programs().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.ErrNotFound, fmt.Sprintf("program %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}
	return p, nil
}

// authorizeProgram loads a program and checks that id may modify it.
func authorizeProgram(ctx context.Context, store repository.Store, id *auth.Identity, programID uint64) (*model.Program, error) {
	p, err := getProgram(ctx, store, programID)
	if err != nil {
		return nil, err
	}
	if !auth.CanModify(p, id) {
		return nil, apperr.New(apperr.ErrForbidden, "you can only modify your own programs")
	}
	return p, nil
}
