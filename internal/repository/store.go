package repository

import (
	"context"
	"time"

	"github.com/fitnesshub/program-tracker/internal/model"
)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByLogin matches login against the email or the username.
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	MarkVerified(ctx context.Context, id uint64, at time.Time) error
	Delete(ctx context.Context, id uint64) error
}

// VerificationStore persists emailed tokens.
type VerificationStore interface {
	Create(ctx context.Context, v *model.EmailVerification) error
	GetByToken(ctx context.Context, token string) (*model.EmailVerification, error)
	// LockByToken is GetByToken holding a row lock until the surrounding
	// transaction ends.
	LockByToken(ctx context.Context, token string) (*model.EmailVerification, error)
	// CountSince counts tokens of kind sent to email at or after since.
	CountSince(ctx context.Context, email string, kind model.TokenKind, since time.Time) (int, error)
	// Supersede expires, as of now, every live token of kind held by the
	// user except keepID. The rows stay so they still count against the
	// issuance window.
	Supersede(ctx context.Context, userID uint64, kind model.TokenKind, keepID uint64, now time.Time) (int64, error)
	MarkRedeemed(ctx context.Context, id uint64, at time.Time) error
	Delete(ctx context.Context, id uint64) error
	// DeleteExpired removes unredeemed tokens that expired before
	// expiredBefore and were created before createdBefore. Rows still inside
	// the issuance window are kept.
	DeleteExpired(ctx context.Context, expiredBefore, createdBefore time.Time) (int64, error)
}

// ProgramStore persists programs. Reads populate Program.Creator.
type ProgramStore interface {
	List(ctx context.Context) ([]model.Program, error)
	Search(ctx context.Context, preds ...ProgramPredicate) ([]model.Program, error)
	GetByID(ctx context.Context, id uint64) (*model.Program, error)
	Create(ctx context.Context, p *model.Program) error
	Update(ctx context.Context, p *model.Program) error
	Delete(ctx context.Context, id uint64) error
}

// WeeklyPlanStore persists weekly plan entries, one per program and day.
type WeeklyPlanStore interface {
	ListByProgram(ctx context.Context, programID uint64) ([]model.WeeklyPlanEntry, error)
	Upsert(ctx context.Context, e *model.WeeklyPlanEntry) error
	Delete(ctx context.Context, programID uint64, day string) error
}

// Store groups the repositories and runs units of work across them.
type Store interface {
	Users() UserStore
	Verifications() VerificationStore
	Programs() ProgramStore
	WeeklyPlans() WeeklyPlanStore
	// WithTx runs fn against a Store bound to a single transaction. Calling
	// WithTx on that Store joins the existing transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
