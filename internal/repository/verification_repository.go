package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fitnesshub/program-tracker/internal/database"
	"github.com/fitnesshub/program-tracker/internal/model"
)

type VerificationRepo struct{ db database.DBTX }

func NewVerificationRepo(db database.DBTX) *VerificationRepo { return &VerificationRepo{db: db} }

const verificationColumns = "id, user_id, token, token_type, email, expires_at, verified_at, created_at, ip_address"

func (r *VerificationRepo) Create(ctx context.Context, v *model.EmailVerification) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO email_verifications (user_id, token, token_type, email, expires_at, verified_at, created_at, ip_address)
		 VALUES (?,?,?,?,?,?,?,?)`,
		v.UserID, v.Token, string(v.Kind), v.Email, v.ExpiresAt, v.VerifiedAt, v.CreatedAt, v.IPAddress)
	if err != nil {
		return mapDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

func (r *VerificationRepo) GetByToken(ctx context.Context, token string) (*model.EmailVerification, error) {
	return scanVerification(r.db.QueryRowContext(ctx,
		"SELECT "+verificationColumns+" FROM email_verifications WHERE token = ? LIMIT 1", token))
}

func (r *VerificationRepo) LockByToken(ctx context.Context, token string) (*model.EmailVerification, error) {
	return scanVerification(r.db.QueryRowContext(ctx,
		"SELECT "+verificationColumns+" FROM email_verifications WHERE token = ? LIMIT 1 FOR UPDATE", token))
}

func (r *VerificationRepo) CountSince(ctx context.Context, email string, kind model.TokenKind, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM email_verifications WHERE email = ? AND token_type = ? AND created_at >= ?",
		normalizeEmail(email), string(kind), since).Scan(&n)
	return n, err
}

func (r *VerificationRepo) Supersede(ctx context.Context, userID uint64, kind model.TokenKind, keepID uint64, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE email_verifications SET expires_at = ?
		 WHERE user_id = ? AND token_type = ? AND id <> ? AND verified_at IS NULL AND expires_at > ?`,
		now, userID, string(kind), keepID, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *VerificationRepo) MarkRedeemed(ctx context.Context, id uint64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE email_verifications SET verified_at = ? WHERE id = ? AND verified_at IS NULL", at, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *VerificationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM email_verifications WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *VerificationRepo) DeleteExpired(ctx context.Context, expiredBefore, createdBefore time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM email_verifications WHERE expires_at < ? AND created_at < ? AND verified_at IS NULL",
		expiredBefore, createdBefore)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanVerification(row *sql.Row) (*model.EmailVerification, error) {
	var (
		v    model.EmailVerification
		kind string
	)
	err := row.Scan(&v.ID, &v.UserID, &v.Token, &kind, &v.Email, &v.ExpiresAt, &v.VerifiedAt, &v.CreatedAt, &v.IPAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	v.Kind = model.TokenKind(kind)
	return &v, nil
}
