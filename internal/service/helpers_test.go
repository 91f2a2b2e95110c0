package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fitnesshub/program-tracker/internal/auth"
	"github.com/fitnesshub/program-tracker/internal/model"
	"github.com/fitnesshub/program-tracker/internal/repository/memstore"
	"github.com/fitnesshub/program-tracker/internal/utils"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentMail struct{ to, subject, body string }

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

var tokenInLink = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)

// lastToken returns the token in the most recent email sent to addr.
func (m *fakeMailer) lastToken(t *testing.T, addr string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].to == addr {
			match := tokenInLink.FindStringSubmatch(m.sent[i].body)
			require.Len(t, match, 2, "no token in mail body")
			return match[1]
		}
	}
	t.Fatalf("no mail sent to %s", addr)
	return ""
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fixture struct {
	store    *memstore.Store
	mailer   *fakeMailer
	clock    *clock
	tokens   *auth.TokenService
	verify   *VerificationService
	auth     *AuthService
	programs *ProgramService
	plans    *WeeklyPlanService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  memstore.New(),
		mailer: &fakeMailer{},
		clock:  &clock{t: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)},
	}
	tokens, err := auth.NewTokenService([]byte(strings.Repeat("k", 32)), 24*time.Hour)
	require.NoError(t, err)
	f.tokens = tokens.WithClock(f.clock.Now)

	opts := []Option{WithClock(f.clock.Now)}
	hasher := utils.NewPasswordHasher(bcrypt.MinCost)
	f.verify = NewVerificationService(f.store, f.mailer, VerificationConfig{
		TTL:          24 * time.Hour,
		Window:       time.Hour,
		MaxPerWindow: 3,
		FrontendURL:  "http://localhost:4200/",
		AppName:      "Fitness Program Hub",
	}, opts...)
	f.auth = NewAuthService(f.store, hasher, f.tokens, NewPasswordCredentials(f.store.Users(), hasher), f.verify, opts...)
	f.programs = NewProgramService(f.store, opts...)
	f.plans = NewWeeklyPlanService(f.store, opts...)
	return f
}

// verifiedUser registers and verifies an account through the service and
// returns its identity.
func (f *fixture) verifiedUser(t *testing.T, name string) *auth.Identity {
	t.Helper()
	ctx := context.Background()
	u, err := f.auth.Register(ctx, RegisterInput{Username: name, Email: name + "@example.com", Password: "password1"})
	require.NoError(t, err)
	u, err = f.auth.VerifyEmail(ctx, f.mailer.lastToken(t, u.Email))
	require.NoError(t, err)
	return auth.IdentityOf(*u)
}

// seedAccount stores a verified account with the given role directly, since
// roles cannot be assigned through the API.
func (f *fixture) seedAccount(t *testing.T, name string, role model.Role) *auth.Identity {
	t.Helper()
	hash, err := utils.NewPasswordHasher(bcrypt.MinCost).Hash("password1")
	require.NoError(t, err)
	now := f.clock.Now()
	u := &model.User{Username: name, Email: name + "@example.com", PasswordHash: hash, Verified: true, Role: role, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return auth.IdentityOf(*u)
}
