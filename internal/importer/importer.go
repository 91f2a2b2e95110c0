// Package importer loads the catalogue CSV export into the program store.
// Imported programs have no owner, so only administrators may edit them.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fitnesshub/program-tracker/internal/model"
	"github.com/fitnesshub/program-tracker/internal/repository"
)

var required = []string{
	"title", "description", "level", "goal", "equipment",
	"program_length", "time_per_workout", "total_exercises",
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// RowError describes a CSV line that could not be converted.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e RowError) Unwrap() error { return e.Err }

// Parse reads every data row of r. Rows that fail to convert are reported
// in the returned slice and skipped; a malformed header fails the whole
// read. now fills created/last_edit when the columns are absent or empty.
func Parse(r io.Reader, now time.Time) ([]model.Program, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
	}

	var (
		out     []model.Program
		skipped []RowError
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped = append(skipped, RowError{Line: line, Err: err})
			continue
		}
		p, err := convert(rec, col, now)
		if err != nil {
			skipped = append(skipped, RowError{Line: line, Err: err})
			continue
		}
		out = append(out, p)
	}
	return out, skipped, nil
}

func convert(rec []string, col map[string]int, now time.Time) (model.Program, error) {
	get := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	p := model.Program{
		Title:       get("title"),
		Description: get("description"),
		Levels:      model.DecodeTags(get("level")),
		Goals:       model.DecodeTags(get("goal")),
		Equipment:   get("equipment"),
	}
	if p.Title == "" {
		return p, errors.New("empty title")
	}

	var err error
	if p.ProgramLength, err = strconv.ParseFloat(get("program_length"), 64); err != nil {
		return p, fmt.Errorf("program_length: %w", err)
	}
	if p.TimePerWorkout, err = strconv.ParseFloat(get("time_per_workout"), 64); err != nil {
		return p, fmt.Errorf("time_per_workout: %w", err)
	}
	// pandas writes integer columns with NaNs as floats ("24.0")
	exercises, err := strconv.ParseFloat(get("total_exercises"), 64)
	if err != nil {
		return p, fmt.Errorf("total_exercises: %w", err)
	}
	p.TotalExercises = int(exercises)

	p.CreatedAt = parseTime(get("created"), now)
	p.UpdatedAt = parseTime(get("last_edit"), p.CreatedAt)
	return p, nil
}

func parseTime(s string, fallback time.Time) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return fallback
}

// Load stores programs in one transaction and returns how many were
// written.
func Load(ctx context.Context, store repository.Store, programs []model.Program) (int, error) {
	n := 0
	err := store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		for i := range programs {
			programs[i].CreatedBy = nil
			if err := tx.Programs().Create(ctx, &programs[i]); err != nil {
				return fmt.Errorf("insert %q: %w", programs[i].Title, err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
