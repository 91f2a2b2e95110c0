package repository

import (
	"strings"

	"github.com/fitnesshub/program-tracker/internal/model"
)

// ProgramPredicate is one search condition. It renders to a SQL fragment
// over the `p` alias and can also be evaluated against a loaded Program,
// so every Store implementation filters the same way.
type ProgramPredicate struct {
	clause string
	args   []any
	match  func(model.Program) bool
}

// Matches evaluates the predicate in memory.
func (p ProgramPredicate) Matches(prog model.Program) bool { return p.match(prog) }

// EquipmentIs matches programs whose equipment equals v exactly.
func EquipmentIs(v string) ProgramPredicate {
	return ProgramPredicate{
		clause: "p.equipment = ?",
		args:   []any{v},
		match:  func(p model.Program) bool { return p.Equipment == v },
	}
}

// LevelContains matches programs with v anywhere in their level tags,
// ignoring case.
func LevelContains(v string) ProgramPredicate {
	return ProgramPredicate{
		clause: `LOWER(p.level) LIKE ? ESCAPE '\\'`,
		args:   []any{likePattern(v)},
		match:  func(p model.Program) bool { return tagsContain(p.Levels, v) },
	}
}

// GoalContains matches programs with v anywhere in their goal tags,
// ignoring case.
func GoalContains(v string) ProgramPredicate {
	return ProgramPredicate{
		clause: `LOWER(p.goal) LIKE ? ESCAPE '\\'`,
		args:   []any{likePattern(v)},
		match:  func(p model.Program) bool { return tagsContain(p.Goals, v) },
	}
}

// MaxTimePerWorkout matches programs whose workouts last at most minutes.
func MaxTimePerWorkout(minutes float64) ProgramPredicate {
	return ProgramPredicate{
		clause: "p.time_per_workout <= ?",
		args:   []any{minutes},
		match:  func(p model.Program) bool { return p.TimePerWorkout <= minutes },
	}
}

// ProgramFilter is the search form accepted by the programs API. Empty
// fields do not constrain the result.
type ProgramFilter struct {
	Equipment   string
	Level       string
	Goal        string
	MaxDuration *float64
}

// Predicates converts the filter into predicates joined with AND.
func (f ProgramFilter) Predicates() []ProgramPredicate {
	var preds []ProgramPredicate
	if v := strings.TrimSpace(f.Equipment); v != "" {
		preds = append(preds, EquipmentIs(v))
	}
	if v := strings.TrimSpace(f.Level); v != "" {
		preds = append(preds, LevelContains(v))
	}
	if v := strings.TrimSpace(f.Goal); v != "" {
		preds = append(preds, GoalContains(v))
	}
	if f.MaxDuration != nil {
		preds = append(preds, MaxTimePerWorkout(*f.MaxDuration))
	}
	return preds
}

// whereClause joins the predicates; an empty set matches everything.
func whereClause(preds []ProgramPredicate) (string, []any) {
	if len(preds) == 0 {
		return "1=1", nil
	}
	where := make([]string, 0, len(preds))
	var args []any
	for _, p := range preds {
		where = append(where, p.clause)
		args = append(args, p.args...)
	}
	return strings.Join(where, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(v string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(v)) + "%"
}

// tagsContain mirrors LOWER(col) LIKE '%v%' over the stored JSON text, which
// only differs from a per-tag check for needles spanning two tags.
func tagsContain(tags []string, v string) bool {
	needle := strings.ToLower(v)
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}
