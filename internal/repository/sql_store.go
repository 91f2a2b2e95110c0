package repository

import (
	"context"
	"database/sql"

	"github.com/fitnesshub/program-tracker/internal/database"
)

// SQLStore is the MySQL-backed Store.
type SQLStore struct {
	db *sql.DB       // nil when bound to a transaction
	q  database.DBTX // *sql.DB or *sql.Tx
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db, q: db} }

func (s *SQLStore) Users() UserStore                 { return NewUserRepo(s.q) }
func (s *SQLStore) Verifications() VerificationStore { return NewVerificationRepo(s.q) }
func (s *SQLStore) Programs() ProgramStore           { return NewProgramRepo(s.q) }
func (s *SQLStore) WeeklyPlans() WeeklyPlanStore     { return NewWeeklyPlanRepo(s.q) }

func (s *SQLStore) WithTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	if s.db == nil {
		return fn(ctx, s)
	}
	return database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx database.DBTX) error {
		return fn(ctx, &SQLStore{q: tx})
	})
}
