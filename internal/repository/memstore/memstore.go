// Package memstore is an in-memory repository.Store for tests and for
// running the server without MySQL (DB_DRIVER=memory). Transactions are
// serialized against each other; a failed transaction undoes only its own
// writes, so concurrent writes made outside it survive the rollback.
package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fitnesshub/program-tracker/internal/model"
	"github.com/fitnesshub/program-tracker/internal/repository"
)

type state struct {
	users         map[uint64]model.User
	verifications map[uint64]model.EmailVerification
	programs      map[uint64]model.Program
	plans         map[uint64]model.WeeklyPlanEntry
	nextID        uint64
}

func (s *state) id() uint64 {
	s.nextID++
	return s.nextID
}

type db struct {
	mu   sync.Mutex // guards st
	txMu sync.Mutex // serializes transactions
	st   *state
}

// journal collects the undo steps of one transaction. It is only touched
// while db.mu is held.
type journal struct {
	undo []func()
}

// track records how to restore m[k] before it is overwritten or deleted.
// Outside a transaction it does nothing.
func track[K comparable, V any](j *journal, m map[K]V, k K) {
	if j == nil {
		return
	}
	prev, ok := m[k]
	j.undo = append(j.undo, func() {
		if ok {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}

// handle is the view a repository gets: the shared db plus the journal of
// the transaction it runs in, if any.
type handle struct {
	*db
	tx *journal
}

// Store implements repository.Store.
type Store struct {
	db *db
	tx *journal
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{db: &db{st: &state{
		users:         map[uint64]model.User{},
		verifications: map[uint64]model.EmailVerification{},
		programs:      map[uint64]model.Program{},
		plans:         map[uint64]model.WeeklyPlanEntry{},
	}}}
}

func (s *Store) h() handle { return handle{db: s.db, tx: s.tx} }

func (s *Store) Users() repository.UserStore                 { return users{s.h()} }
func (s *Store) Verifications() repository.VerificationStore { return verifications{s.h()} }
func (s *Store) Programs() repository.ProgramStore           { return programs{s.h()} }
func (s *Store) WeeklyPlans() repository.WeeklyPlanStore     { return plans{s.h()} }

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) (err error) {
	if s.tx != nil {
		return fn(ctx, s)
	}
	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	j := &journal{}
	defer func() {
		if p := recover(); p != nil {
			s.db.rollback(j)
			panic(p)
		}
		if err != nil {
			s.db.rollback(j)
		}
	}()
	return fn(ctx, &Store{db: s.db, tx: j})
}

func (d *db) rollback(j *journal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
}

func (d *db) with(fn func(st *state)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.st)
}

type users struct{ d handle }

func (r users) Create(_ context.Context, u *model.User) (err error) {
	r.d.with(func(st *state) {
		for _, x := range st.users {
			switch {
			case x.Email == u.Email:
				err = repository.ErrDuplicateEmail
				return
			case x.Username == u.Username:
				err = repository.ErrDuplicateUsername
				return
			}
		}
		u.ID = st.id()
		track(r.d.tx, st.users, u.ID)
		st.users[u.ID] = *u
	})
	return err
}

func (r users) GetByID(_ context.Context, id uint64) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id })
}

func (r users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.find(func(u model.User) bool { return u.Email == email })
}

func (r users) GetByLogin(_ context.Context, login string) (*model.User, error) {
	login = strings.TrimSpace(login)
	lower := strings.ToLower(login)
	return r.find(func(u model.User) bool { return u.Email == lower || u.Username == login })
}

func (r users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return exists(r.GetByEmail(ctx, email))
}

func (r users) ExistsByUsername(_ context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	return exists(r.find(func(u model.User) bool { return u.Username == username }))
}

func (r users) MarkVerified(_ context.Context, id uint64, at time.Time) (err error) {
	r.d.with(func(st *state) {
		u, ok := st.users[id]
		if !ok {
			err = repository.ErrNotFound
			return
		}
		u.Verified = true
		u.UpdatedAt = at
		track(r.d.tx, st.users, id)
		st.users[id] = u
	})
	return err
}

func (r users) Delete(_ context.Context, id uint64) (err error) {
	r.d.with(func(st *state) {
		if _, ok := st.users[id]; !ok {
			err = repository.ErrNotFound
			return
		}
		track(r.d.tx, st.users, id)
		delete(st.users, id)
		for k, v := range st.verifications {
			if v.UserID == id {
				track(r.d.tx, st.verifications, k)
				delete(st.verifications, k)
			}
		}
		for k, p := range st.programs {
			if p.CreatedBy != nil && *p.CreatedBy == id {
				p.CreatedBy = nil
				track(r.d.tx, st.programs, k)
				st.programs[k] = p
			}
		}
	})
	return err
}

func (r users) find(match func(model.User) bool) (out *model.User, err error) {
	r.d.with(func(st *state) {
		for _, u := range st.users {
			if match(u) {
				out = &u
				return
			}
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func exists[T any](_ T, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	}
	return false, err
}

type verifications struct{ d handle }

func (r verifications) Create(_ context.Context, v *model.EmailVerification) (err error) {
	r.d.with(func(st *state) {
		for _, x := range st.verifications {
			if x.Token == v.Token {
				err = repository.ErrDuplicateToken
				return
			}
		}
		v.ID = st.id()
		track(r.d.tx, st.verifications, v.ID)
		st.verifications[v.ID] = *v
	})
	return err
}

func (r verifications) GetByToken(_ context.Context, token string) (out *model.EmailVerification, err error) {
	r.d.with(func(st *state) {
		for _, v := range st.verifications {
			if v.Token == token {
				out = &v
				return
			}
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r verifications) LockByToken(ctx context.Context, token string) (*model.EmailVerification, error) {
	return r.GetByToken(ctx, token)
}

func (r verifications) CountSince(_ context.Context, email string, kind model.TokenKind, since time.Time) (n int, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	r.d.with(func(st *state) {
		for _, v := range st.verifications {
			if v.Email == email && v.Kind == kind && !v.CreatedAt.Before(since) {
				n++
			}
		}
	})
	return n, nil
}

func (r verifications) Supersede(_ context.Context, userID uint64, kind model.TokenKind, keepID uint64, now time.Time) (n int64, err error) {
	r.d.with(func(st *state) {
		for k, v := range st.verifications {
			if k != keepID && v.UserID == userID && v.Kind == kind && v.VerifiedAt == nil && v.ExpiresAt.After(now) {
				v.ExpiresAt = now
				track(r.d.tx, st.verifications, k)
				st.verifications[k] = v
				n++
			}
		}
	})
	return n, nil
}

func (r verifications) MarkRedeemed(_ context.Context, id uint64, at time.Time) (err error) {
	r.d.with(func(st *state) {
		v, ok := st.verifications[id]
		if !ok || v.VerifiedAt != nil {
			err = repository.ErrNotFound
			return
		}
		v.VerifiedAt = &at
		track(r.d.tx, st.verifications, id)
		st.verifications[id] = v
	})
	return err
}

func (r verifications) Delete(_ context.Context, id uint64) (err error) {
	r.d.with(func(st *state) {
		if _, ok := st.verifications[id]; !ok {
			err = repository.ErrNotFound
			return
		}
		track(r.d.tx, st.verifications, id)
		delete(st.verifications, id)
	})
	return err
}

func (r verifications) DeleteExpired(_ context.Context, expiredBefore, createdBefore time.Time) (n int64, err error) {
	r.d.with(func(st *state) {
		for k, v := range st.verifications {
			if v.VerifiedAt == nil && v.ExpiresAt.Before(expiredBefore) && v.CreatedAt.Before(createdBefore) {
				track(r.d.tx, st.verifications, k)
				delete(st.verifications, k)
				n++
			}
		}
	})
	return n, nil
}

type programs struct{ d handle }

func (r programs) List(ctx context.Context) ([]model.Program, error) { return r.Search(ctx) }

func (r programs) Search(_ context.Context, preds ...repository.ProgramPredicate) ([]model.Program, error) {
	out := []model.Program{}
	r.d.with(func(st *state) {
	next:
		for _, p := range st.programs {
			for _, pred := range preds {
				if !pred.Matches(p) {
					continue next
				}
			}
			out = append(out, withCreator(st, p))
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r programs) GetByID(_ context.Context, id uint64) (out *model.Program, err error) {
	r.d.with(func(st *state) {
		if p, ok := st.programs[id]; ok {
			p = withCreator(st, p)
			out = &p
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r programs) Create(_ context.Context, p *model.Program) error {
	r.d.with(func(st *state) {
		p.ID = st.id()
		stored := *p
		stored.Creator = nil
		track(r.d.tx, st.programs, p.ID)
		st.programs[p.ID] = stored
	})
	return nil
}

func (r programs) Update(_ context.Context, p *model.Program) (err error) {
	r.d.with(func(st *state) {
		cur, ok := st.programs[p.ID]
		if !ok {
			err = repository.ErrNotFound
			return
		}
		cur.Title = p.Title
		cur.Description = p.Description
		cur.Levels = append([]string(nil), p.Levels...)
		cur.Goals = append([]string(nil), p.Goals...)
		cur.Equipment = p.Equipment
		cur.ProgramLength = p.ProgramLength
		cur.TimePerWorkout = p.TimePerWorkout
		cur.TotalExercises = p.TotalExercises
		cur.UpdatedAt = p.UpdatedAt
		track(r.d.tx, st.programs, p.ID)
		st.programs[p.ID] = cur
	})
	return err
}

func (r programs) Delete(_ context.Context, id uint64) (err error) {
	r.d.with(func(st *state) {
		if _, ok := st.programs[id]; !ok {
			err = repository.ErrNotFound
			return
		}
		track(r.d.tx, st.programs, id)
		delete(st.programs, id)
		for k, e := range st.plans {
			if e.ProgramID == id {
				track(r.d.tx, st.plans, k)
				delete(st.plans, k)
			}
		}
	})
	return err
}

func withCreator(st *state, p model.Program) model.Program {
	p.Creator = nil
	if p.CreatedBy == nil {
		return p
	}
	if u, ok := st.users[*p.CreatedBy]; ok {
		p.Creator = &model.Creator{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
	}
	return p
}

type plans struct{ d handle }

func (r plans) ListByProgram(_ context.Context, programID uint64) ([]model.WeeklyPlanEntry, error) {
	out := []model.WeeklyPlanEntry{}
	r.d.with(func(st *state) {
		for _, e := range st.plans {
			if e.ProgramID == programID {
				out = append(out, e)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r plans) Upsert(_ context.Context, e *model.WeeklyPlanEntry) (err error) {
	r.d.with(func(st *state) {
		if _, ok := st.programs[e.ProgramID]; !ok {
			err = repository.ErrNotFound
			return
		}
		for k, x := range st.plans {
			if x.ProgramID == e.ProgramID && x.DayOfWeek == e.DayOfWeek {
				x.Content = e.Content
				track(r.d.tx, st.plans, k)
				st.plans[k] = x
				e.ID = x.ID
				return
			}
		}
		e.ID = st.id()
		track(r.d.tx, st.plans, e.ID)
		st.plans[e.ID] = *e
	})
	return err
}

func (r plans) Delete(_ context.Context, programID uint64, day string) (err error) {
	r.d.with(func(st *state) {
		for k, x := range st.plans {
			if x.ProgramID == programID && x.DayOfWeek == day {
				track(r.d.tx, st.plans, k)
				delete(st.plans, k)
				return
			}
		}
		err = repository.ErrNotFound
	})
	return err
}
