package repository

import (
	"context"

	"github.com/fitnesshub/program-tracker/internal/database"
	"github.com/fitnesshub/program-tracker/internal/model"
)

type WeeklyPlanRepo struct{ db database.DBTX }

func NewWeeklyPlanRepo(db database.DBTX) *WeeklyPlanRepo { return &WeeklyPlanRepo{db: db} }

// ListByProgram returns the program's entries in insertion order.
func (r *WeeklyPlanRepo) ListByProgram(ctx context.Context, programID uint64) ([]model.WeeklyPlanEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, program_id, day_of_week, content FROM weekly_plan_entries WHERE program_id = ? ORDER BY id ASC",
		programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.WeeklyPlanEntry{}
	for rows.Next() {
		var e model.WeeklyPlanEntry
		if err := rows.Scan(&e.ID, &e.ProgramID, &e.DayOfWeek, &e.Content); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Upsert stores the entry for its program and day, replacing the content of
// an existing entry for the same day. The entry id is refreshed either way.
func (r *WeeklyPlanRepo) Upsert(ctx context.Context, e *model.WeeklyPlanEntry) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO weekly_plan_entries (program_id, day_of_week, content) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id), content = VALUES(content)`,
		e.ProgramID, e.DayOfWeek, e.Content)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

func (r *WeeklyPlanRepo) Delete(ctx context.Context, programID uint64, day string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM weekly_plan_entries WHERE program_id = ? AND day_of_week = ?", programID, day)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
