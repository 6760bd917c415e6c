package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"otp-auth/internal/data/repository"
	"otp-auth/pkg/apperror"
	"otp-auth/pkg/csrf"
	"otp-auth/pkg/session"
	"otp-auth/pkg/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMail struct {
	email string
	code  string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{email: email, code: code})
	return m.err
}

func (m *recordingMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

type fixture struct {
	repo     *repository.Repository
	sessions *session.Manager
	csrf     *csrf.Store
	mailer   *recordingMailer
	auth     *authService
	users    UserService
	admin    AdminService
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()
	config := &utils.Config{
		OTP: utils.OTPConfig{ExpiryMinutes: 10, Length: 6},
	}

	f := &fixture{
		repo:     repository.NewMemoryRepository(log),
		sessions: session.NewManager("test-secret", session.DefaultTTL),
		csrf:     csrf.NewStore(csrf.DefaultTTL, log),
		mailer:   &recordingMailer{},
		now:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	svc := NewService(f.repo, f.sessions, f.csrf, f.mailer, config, log)
	f.auth = svc.Auth.(*authService)
	f.auth.now = func() time.Time { return f.now }
	f.users = svc.User
	f.admin = svc.Admin
	return f
}

func requireKind(t *testing.T, err error, kind apperror.Kind, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr), "expected *apperror.Error, got %T", err)
	require.Equal(t, kind, appErr.Kind)
	if message != "" {
		require.Equal(t, message, appErr.Message)
	}
}
