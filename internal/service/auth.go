package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fitnesshub/program-tracker/internal/apperr"
	"github.com/fitnesshub/program-tracker/internal/auth"
	"github.com/fitnesshub/program-tracker/internal/model"
	"github.com/fitnesshub/program-tracker/internal/queue"
	"github.com/fitnesshub/program-tracker/internal/repository"
	"github.com/fitnesshub/program-tracker/internal/utils"
)

// CredentialVerifier checks a login and password pair and returns the
// matching user. Any mismatch fails with apperr.ErrBadCredentials.
type CredentialVerifier interface {
	Verify(ctx context.Context, login, password string) (*model.User, error)
}

// PasswordCredentials verifies bcrypt passwords stored on users.
type PasswordCredentials struct {
	users  repository.UserStore
	hasher *utils.PasswordHasher
}

func NewPasswordCredentials(users repository.UserStore, hasher *utils.PasswordHasher) *PasswordCredentials {
	return &PasswordCredentials{users: users, hasher: hasher}
}

func (c *PasswordCredentials) Verify(ctx context.Context, login, password string) (*model.User, error) {
	u, err := c.users.GetByLogin(ctx, login)
	if errors.Is(err, repository.ErrNotFound) {
		c.hasher.Burn(password)
		return nil, apperr.New(apperr.ErrBadCredentials, "invalid username/email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !c.hasher.Verify(u.PasswordHash, password) {
		return nil, apperr.New(apperr.ErrBadCredentials, "invalid username/email or password")
	}
	return u, nil
}

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName *string
	LastName  *string
	IP        string
}

// LoginInput carries an email or username and a password.
type LoginInput struct {
	Login    string
	Password string
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
	User      model.User
}

// AuthService runs registration, login and email verification.
type AuthService struct {
	store         repository.Store
	hasher        *utils.PasswordHasher
	tokens        *auth.TokenService
	credentials   CredentialVerifier
	verifications *VerificationService
	options
}

func NewAuthService(
	store repository.Store,
	hasher *utils.PasswordHasher,
	tokens *auth.TokenService,
	credentials CredentialVerifier,
	verifications *VerificationService,
	opts ...Option,
) *AuthService {
	return &AuthService{
		store:         store,
		hasher:        hasher,
		tokens:        tokens,
		credentials:   credentials,
		verifications: verifications,
		options:       buildOptions(opts),
	}
}

// Register creates an unverified account and emails a verification link.
// If the email cannot be issued the account is deleted again and the call
// fails with apperr.ErrEmailDispatch. No session token is returned.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (u *model.User, err error) {
	defer func() { s.metrics.ObserveAuth("register", apperr.Code(err)) }()

	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if email == "" || username == "" || in.Password == "" {
		return nil, apperr.New(apperr.ErrInvalidInput, "username, email and password are required")
	}
	if len(in.Password) > utils.MaxPasswordBytes {
		return nil, apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("password must be at most %d bytes", utils.MaxPasswordBytes))
	}

	users := s.store.Users()
	if taken, err := users.ExistsByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if taken {
		return nil, apperr.ErrEmailTaken
	}
	if taken, err := users.ExistsByUsername(ctx, username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if taken {
		return nil, apperr.ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.clock()
	u = &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    trimmed(in.FirstName),
		LastName:     trimmed(in.LastName),
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	switch err := users.Create(ctx, u); {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return nil, apperr.ErrEmailTaken
	case errors.Is(err, repository.ErrDuplicateUsername):
		return nil, apperr.ErrUsernameTaken
	case err != nil:
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.verifications.Issue(ctx, u, in.IP); err != nil {
		s.log.Warn("registration rolled back", zap.Uint64("user_id", u.ID), zap.Error(err))
		if delErr := users.Delete(context.WithoutCancel(ctx), u.ID); delErr != nil {
			s.log.Error("delete user after failed verification", zap.Uint64("user_id", u.ID), zap.Error(delErr))
		}
		return nil, apperr.New(apperr.ErrEmailDispatch, "registration failed: verification email could not be sent")
	}

	s.log.Info("user registered", zap.Uint64("user_id", u.ID))
	s.publish(ctx, queue.AuditEvent{Type: queue.EventUserRegistered, UserID: u.ID, Email: u.Email})
	return u, nil
}

// Login issues a session token for a verified user.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (res *LoginResult, err error) {
	defer func() { s.metrics.ObserveAuth("login", apperr.Code(err)) }()

	if strings.TrimSpace(in.Login) == "" || in.Password == "" {
		return nil, apperr.New(apperr.ErrInvalidInput, "login and password are required")
	}
	u, err := s.credentials.Verify(ctx, in.Login, in.Password)
	if err != nil {
		return nil, err
	}
	if !u.Verified {
		return nil, apperr.New(apperr.ErrNotVerified, "please verify your email before logging in")
	}

	token, exp, err := s.tokens.Issue(*u)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	s.publish(ctx, queue.AuditEvent{Type: queue.EventUserLoggedIn, UserID: u.ID, Email: u.Email})
	return &LoginResult{Token: token, TokenType: "Bearer", ExpiresAt: exp, User: *u}, nil
}

// VerifyEmail redeems an emailed verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (u *model.User, err error) {
	defer func() { s.metrics.ObserveAuth("verify", apperr.Code(err)) }()
	return s.verifications.Redeem(ctx, token)
}

// ResendVerification emails a new token to an unverified account.
func (s *AuthService) ResendVerification(ctx context.Context, email, ip string) (err error) {
	defer func() { s.metrics.ObserveAuth("resend", apperr.Code(err)) }()
	return s.verifications.Resend(ctx, email, ip)
}

// Me loads the account behind an identity.
func (s *AuthService) Me(ctx context.Context, id *auth.Identity) (*model.User, error) {
	id, err := auth.RequireIdentity(id)
	if err != nil {
		return nil, err
	}
	u, err := s.store.Users().GetByID(ctx, id.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.ErrUnauthenticated, "account no longer exists")
	}
	return u, err
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
