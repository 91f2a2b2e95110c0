package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fitnesshub/program-tracker/internal/apperr"
	"github.com/fitnesshub/program-tracker/internal/auth"
	"github.com/fitnesshub/program-tracker/internal/model"
	"github.com/fitnesshub/program-tracker/internal/repository"
	"github.com/fitnesshub/program-tracker/internal/service"
)

// ProgramHandler serves /api/programs and the nested weekly plan.
type ProgramHandler struct {
	Programs *service.ProgramService
	Plans    *service.WeeklyPlanService
	Timeout  time.Duration
}

func NewProgramHandler(p *service.ProgramService, w *service.WeeklyPlanService, timeout time.Duration) *ProgramHandler {
	return &ProgramHandler{Programs: p, Plans: w, Timeout: timeout}
}

type programReq struct {
	Title          string   `json:"title" validate:"required,min=3,max=100"`
	Description    string   `json:"description" validate:"required,min=10"`
	Levels         []string `json:"levels" validate:"required,min=1"`
	Goals          []string `json:"goals" validate:"required,min=1"`
	Equipment      string   `json:"equipment" validate:"required"`
	ProgramLength  float64  `json:"programLength" validate:"required,gt=0"`
	TimePerWorkout float64  `json:"timePerWorkout" validate:"required,gt=0,lte=300"`
	TotalExercises int      `json:"totalExercises" validate:"required,gt=0"`
}

func (r programReq) input() service.ProgramInput {
	return service.ProgramInput{
		Title:          r.Title,
		Description:    r.Description,
		Levels:         r.Levels,
		Goals:          r.Goals,
		Equipment:      r.Equipment,
		ProgramLength:  r.ProgramLength,
		TimePerWorkout: r.TimePerWorkout,
		TotalExercises: r.TotalExercises,
	}
}

type programResp struct {
	ID                 uint64    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Levels             []string  `json:"levels"`
	Goals              []string  `json:"goals"`
	Equipment          string    `json:"equipment"`
	ProgramLength      float64   `json:"programLength"`
	TimePerWorkout     float64   `json:"timePerWorkout"`
	TotalExercises     int       `json:"totalExercises"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
	CreatedByUserID    *uint64   `json:"createdByUserId"`
	CreatedByUsername  *string   `json:"createdByUsername"`
	IsPublic           bool      `json:"isPublic"`
	CreatorDisplayName string    `json:"creatorDisplayName"`
}

func toProgramResp(p model.Program) programResp {
	out := programResp{
		ID:                 p.ID,
		Title:              p.Title,
		Description:        p.Description,
		Levels:             nonNil(p.Levels),
		Goals:              nonNil(p.Goals),
		Equipment:          p.Equipment,
		ProgramLength:      p.ProgramLength,
		TimePerWorkout:     p.TimePerWorkout,
		TotalExercises:     p.TotalExercises,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
		CreatedByUserID:    p.CreatedBy,
		IsPublic:           p.IsPublic(),
		CreatorDisplayName: "Anonymous",
	}
	if p.Creator != nil {
		name := p.Creator.Username
		out.CreatedByUsername = &name
		out.CreatorDisplayName = p.Creator.DisplayName()
	}
	return out
}

func toProgramList(ps []model.Program) []programResp {
	out := make([]programResp, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProgramResp(p))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type planEntryResp struct {
	ID        uint64 `json:"id"`
	DayOfWeek string `json:"dayOfWeek"`
	Content   string `json:"content"`
}

type weeklyPlanResp struct {
	ProgramID uint64          `json:"programId"`
	Entries   []planEntryResp `json:"entries"`
}

type planEntryReq struct {
	Content string `json:"content" validate:"required"`
}

func (h *ProgramHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	ps, err := h.Programs.List(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toProgramList(ps))
}

// Search filters by equipment (exact), level and goal (substring, any
// case) and maxDuration (minutes per workout). Omitted parameters do not
// constrain the result.
func (h *ProgramHandler) Search(c echo.Context) error {
	f := repository.ProgramFilter{
		Equipment: c.QueryParam("equipment"),
		Level:     c.QueryParam("level"),
		Goal:      c.QueryParam("goal"),
	}
	if raw := strings.TrimSpace(c.QueryParam("maxDuration")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return writeError(c, apperr.New(apperr.ErrInvalidInput, "maxDuration must be a number"))
		}
		f.MaxDuration = &v
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	ps, err := h.Programs.Search(ctx, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toProgramList(ps))
}

func (h *ProgramHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	p, err := h.Programs.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toProgramResp(*p))
}

func (h *ProgramHandler) Create(c echo.Context) error {
	var req programReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	p, err := h.Programs.Create(ctx, identity(c), req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toProgramResp(*p))
}

func (h *ProgramHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req programReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	p, err := h.Programs.Update(ctx, identity(c), id, req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toProgramResp(*p))
}

func (h *ProgramHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	if err := h.Programs.Delete(ctx, identity(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProgramHandler) WeeklyPlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	entries, err := h.Plans.List(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	out := weeklyPlanResp{ProgramID: id, Entries: make([]planEntryResp, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, planEntryResp{ID: e.ID, DayOfWeek: e.DayOfWeek, Content: e.Content})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProgramHandler) SaveDay(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req planEntryReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	e, err := h.Plans.Save(ctx, identity(c), id, c.Param("day"), req.Content)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, planEntryResp{ID: e.ID, DayOfWeek: e.DayOfWeek, Content: e.Content})
}

func (h *ProgramHandler) RemoveDay(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	if err := h.Plans.Remove(ctx, identity(c), id, c.Param("day")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.ErrInvalidInput, "invalid program id")
	}
	return id, nil
}

func identity(c echo.Context) *auth.Identity { return auth.FromContext(c.Request().Context()) }
