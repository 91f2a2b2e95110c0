package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fitnesshub/program-tracker/internal/apperr"
	"github.com/fitnesshub/program-tracker/internal/auth"
	"github.com/fitnesshub/program-tracker/internal/mail"
	"github.com/fitnesshub/program-tracker/internal/model"
	"github.com/fitnesshub/program-tracker/internal/queue"
	"github.com/fitnesshub/program-tracker/internal/repository"
	"github.com/fitnesshub/program-tracker/internal/utils"
)

// VerificationConfig tunes token issuance.
type VerificationConfig struct {
	TTL          time.Duration // token lifetime
	Window       time.Duration // trailing window for MaxPerWindow
	MaxPerWindow int           // issuances allowed per email within Window
	FrontendURL  string        // links point at FrontendURL + "/auth/verify"
	AppName      string
}

// VerificationService issues, redeems and re-issues email verification
// tokens.
type VerificationService struct {
	store  repository.Store
	mailer Mailer
	cfg    VerificationConfig
	options
}

func NewVerificationService(store repository.Store, mailer Mailer, cfg VerificationConfig, opts ...Option) *VerificationService {
	return &VerificationService{store: store, mailer: mailer, cfg: cfg, options: buildOptions(opts)}
}

// Issue sends a fresh verification token to u. It fails with
// apperr.ErrRateLimited when the email already received MaxPerWindow tokens
// within Window, and with apperr.ErrEmailDispatch when the mail cannot be
// sent. In the latter case the token row exists; the caller compensates.
// Earlier tokens stay valid until the new one has been delivered.
func (s *VerificationService) Issue(ctx context.Context, u *model.User, ip string) error {
	_, err := s.issue(ctx, u, ip)
	return err
}

func (s *VerificationService) issue(ctx context.Context, u *model.User, ip string) (*model.EmailVerification, error) {
	now := s.clock()
	var v *model.EmailVerification

	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		n, err := tx.Verifications().CountSince(ctx, u.Email, model.KindEmailVerification, now.Add(-s.cfg.Window))
		if err != nil {
			return fmt.Errorf("count verifications: %w", err)
		}
		if n >= s.cfg.MaxPerWindow {
			return apperr.New(apperr.ErrRateLimited, "too many verification emails requested, try again later")
		}

		token, err := utils.RandomToken(utils.VerificationTokenBytes)
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}
		v = &model.EmailVerification{
			UserID:    u.ID,
			Token:     token,
			Kind:      model.KindEmailVerification,
			Email:     u.Email,
			ExpiresAt: now.Add(s.cfg.TTL),
			CreatedAt: now,
		}
		if ip != "" {
			v.IPAddress = &ip
		}
		if err := tx.Verifications().Create(ctx, v); err != nil {
			return fmt.Errorf("save verification: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.send(ctx, u, v.Token); err != nil {
		s.log.Error("verification email failed", zap.Uint64("user_id", u.ID), zap.Error(err))
		return v, apperr.New(apperr.ErrEmailDispatch, "verification email could not be sent")
	}
	s.log.Info("verification email sent", zap.Uint64("user_id", u.ID))

	// The new link is out; older ones stop working but keep counting.
	if _, err := s.store.Verifications().Supersede(context.WithoutCancel(ctx), u.ID, model.KindEmailVerification, v.ID, now); err != nil {
		s.log.Error("supersede verifications", zap.Uint64("user_id", u.ID), zap.Error(err))
	}
	return v, nil
}

func (s *VerificationService) send(ctx context.Context, u *model.User, token string) error {
	subject, body, err := mail.RenderVerification(mail.VerificationData{
		AppName:   s.cfg.AppName,
		Username:  u.Username,
		Link:      s.link(token),
		ExpiresIn: humanDuration(s.cfg.TTL),
	})
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, u.Email, subject, body)
}

func (s *VerificationService) link(token string) string {
	return strings.TrimRight(s.cfg.FrontendURL, "/") + "/auth/verify?token=" + url.QueryEscape(token)
}

// Redeem marks the token's user verified. Unknown tokens fail with
// apperr.ErrNotFound, expired ones with apperr.ErrExpired and used ones
// with apperr.ErrAlreadyVerified.
func (s *VerificationService) Redeem(ctx context.Context, token string) (*model.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.New(apperr.ErrInvalidInput, "verification token is required")
	}
	now := s.clock()

	var user *model.User
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		v, err := tx.Verifications().LockByToken(ctx, token)
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "invalid verification token")
		}
		if err != nil {
			return fmt.Errorf("load verification: %w", err)
		}
		if v.Expired(now) {
			return apperr.New(apperr.ErrExpired, "verification link has expired, request a new one")
		}
		if v.Redeemed() {
			return apperr.New(apperr.ErrAlreadyVerified, "email already verified")
		}
		if err := tx.Users().MarkVerified(ctx, v.UserID, now); err != nil {
			return fmt.Errorf("mark user verified: %w", err)
		}
		if err := tx.Verifications().MarkRedeemed(ctx, v.ID, now); err != nil {
			return fmt.Errorf("mark token redeemed: %w", err)
		}
		user, err = tx.Users().GetByID(ctx, v.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, queue.AuditEvent{Type: queue.EventEmailVerified, UserID: user.ID, Email: user.Email})
	return user, nil
}

// Resend issues a new token to the unverified account registered under
// email, superseding the previous one once the mail is out. When dispatch
// fails the new token is dropped and the previous one stays usable.
func (s *VerificationService) Resend(ctx context.Context, email, ip string) error {
	u, err := s.store.Users().GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.New(apperr.ErrNotFound, "no pending verification found for this email")
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if u.Verified {
		return apperr.New(apperr.ErrAlreadyVerified, "email already verified")
	}

	v, err := s.issue(ctx, u, ip)
	if errors.Is(err, apperr.ErrEmailDispatch) && v != nil {
		if delErr := s.store.Verifications().Delete(context.WithoutCancel(ctx), v.ID); delErr != nil {
			s.log.Error("drop undelivered verification", zap.Uint64("verification_id", v.ID), zap.Error(delErr))
		}
	}
	return err
}

// PurgeExpired deletes unredeemed tokens that have expired and fall outside
// the issuance window, so the rate limit keeps seeing recent sends. Only
// administrators may run it.
func (s *VerificationService) PurgeExpired(ctx context.Context, id *auth.Identity) (int64, error) {
	id, err := auth.RequireIdentity(id)
	if err != nil {
		return 0, err
	}
	if !auth.IsAdmin(id.Role) {
		return 0, apperr.New(apperr.ErrForbidden, "administrator role required")
	}
	now := s.clock()
	n, err := s.store.Verifications().DeleteExpired(ctx, now, now.Add(-s.cfg.Window))
	if err != nil {
		return 0, fmt.Errorf("purge verifications: %w", err)
	}
	s.log.Info("expired verifications purged", zap.Int64("deleted", n), zap.Uint64("admin_id", id.UserID))
	return n, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if h := int(d / time.Hour); h != 1 {
			return fmt.Sprintf("%d hours", h)
		}
		return "1 hour"
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
	return d.String()
}
