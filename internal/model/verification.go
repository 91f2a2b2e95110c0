package model

import "time"

// TokenKind distinguishes the purposes an emailed token can serve. Only
// email verification is issued today; the other kinds are reserved in the
// schema.
type TokenKind string

const (
	KindEmailVerification TokenKind = "EMAIL_VERIFICATION"
	KindPasswordReset     TokenKind = "PASSWORD_RESET"
	KindEmailChange       TokenKind = "EMAIL_CHANGE"
)

// EmailVerification models a row in `email_verifications`. A row is live
// until it expires or is redeemed; redeemed rows are never reused.
type EmailVerification struct {
	ID         uint64     // email_verifications.id
	UserID     uint64     // email_verifications.user_id
	Token      string     // email_verifications.token (unique)
	Kind       TokenKind  // email_verifications.token_type
	Email      string     // address the token was sent to
	ExpiresAt  time.Time  // email_verifications.expires_at
	VerifiedAt *time.Time // set on redemption
	CreatedAt  time.Time  // email_verifications.created_at
	IPAddress  *string    // requester address, when known
}

// Expired reports whether the token is past its expiry at now.
func (v EmailVerification) Expired(now time.Time) bool { return !now.Before(v.ExpiresAt) }

// Redeemed reports whether the token has already been used.
func (v EmailVerification) Redeemed() bool { return v.VerifiedAt != nil }

// Valid reports whether the token can still be redeemed at now.
func (v EmailVerification) Valid(now time.Time) bool { return !v.Expired(now) && !v.Redeemed() }
