package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fitnesshub/program-tracker/internal/database"
	"github.com/fitnesshub/program-tracker/internal/model"
)

type ProgramRepo struct{ db database.DBTX }

func NewProgramRepo(db database.DBTX) *ProgramRepo { return &ProgramRepo{db: db} }

const programSelect = `SELECT
		p.id, p.title, p.description, p.level, p.goal, p.equipment,
		p.program_length, p.time_per_workout, p.total_exercises,
		p.user_id, p.created, p.last_edit,
		u.username, u.first_name, u.last_name
	FROM fitness_programs p
	LEFT JOIN users u ON u.id = p.user_id`

func (r *ProgramRepo) List(ctx context.Context) ([]model.Program, error) {
	return r.Search(ctx)
}

// Search returns the programs matching every predicate, ordered by id.
func (r *ProgramRepo) Search(ctx context.Context, preds ...ProgramPredicate) ([]model.Program, error) {
	cond, args := whereClause(preds)
	rows, err := r.db.QueryContext(ctx, programSelect+" WHERE "+cond+" ORDER BY p.id ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Program{}
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProgramRepo) GetByID(ctx context.Context, id uint64) (*model.Program, error) {
	p, err := scanProgram(r.db.QueryRowContext(ctx, programSelect+" WHERE p.id = ? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *ProgramRepo) Create(ctx context.Context, p *model.Program) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO fitness_programs
		 (title, description, level, goal, equipment, program_length, time_per_workout, total_exercises, user_id, created, last_edit)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.Title, p.Description, model.EncodeTags(p.Levels), model.EncodeTags(p.Goals), p.Equipment,
		p.ProgramLength, p.TimePerWorkout, p.TotalExercises, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Update rewrites the editable columns. Ownership and the creation time are
// left untouched.
func (r *ProgramRepo) Update(ctx context.Context, p *model.Program) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE fitness_programs SET
		 title = ?, description = ?, level = ?, goal = ?, equipment = ?,
		 program_length = ?, time_per_workout = ?, total_exercises = ?, last_edit = ?
		 WHERE id = ?`,
		p.Title, p.Description, model.EncodeTags(p.Levels), model.EncodeTags(p.Goals), p.Equipment,
		p.ProgramLength, p.TimePerWorkout, p.TotalExercises, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *ProgramRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM fitness_programs WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgram(s rowScanner) (*model.Program, error) {
	var (
		p           model.Program
		level, goal string
		userID      sql.NullInt64
		username    sql.NullString
		first, last *string
	)
	if err := s.Scan(&p.ID, &p.Title, &p.Description, &level, &goal, &p.Equipment,
		&p.ProgramLength, &p.TimePerWorkout, &p.TotalExercises,
		&userID, &p.CreatedAt, &p.UpdatedAt,
		&username, &first, &last); err != nil {
		return nil, err
	}
	p.Levels = model.DecodeTags(level)
	p.Goals = model.DecodeTags(goal)
	if userID.Valid {
		id := uint64(userID.Int64)
		p.CreatedBy = &id
		p.Creator = &model.Creator{ID: id, Username: username.String, FirstName: first, LastName: last}
	}
	return &p, nil
}
