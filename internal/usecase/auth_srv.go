package usecase

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"otp-auth/internal/data/entity"
	"otp-auth/internal/data/repository"
	"otp-auth/internal/dto/request"
	"otp-auth/internal/dto/response"
	"otp-auth/pkg/apperror"
	"otp-auth/pkg/csrf"
	"otp-auth/pkg/mailer"
	"otp-auth/pkg/metrics"
	"otp-auth/pkg/session"
	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

type AuthService interface {
	SendOTP(ctx context.Context, req *request.SendOTPRequest) (*response.SendOTPResponse, error)
	VerifyOTP(ctx context.Context, req *request.VerifyOTPRequest) (*response.VerifyOTPResponse, error)
	Logout(ctx context.Context, identity *utils.Identity)
}

type authService struct {
	repo     *repository.Repository // user + otp
	sessions *session.Manager
	csrf     *csrf.Store
	mailer   mailer.Mailer
	config   *utils.Config
	log      *zap.Logger
	now      func() time.Time
	generate func(length int) (string, error)
}

func NewAuthService(
	repo *repository.Repository,
	sessions *session.Manager,
	csrfStore *csrf.Store,
	mail mailer.Mailer,
	config *utils.Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:     repo,
		sessions: sessions,
		csrf:     csrfStore,
		mailer:   mail,
		config:   config,
		log:      log.With(zap.String("service", "auth")),
		now:      time.Now,
		generate: utils.GenerateOTP,
	}
}

func (s *authService) SendOTP(ctx context.Context, req *request.SendOTPRequest) (*response.SendOTPResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.InvalidInput("Invalid email format")
	}

	code, err := s.generate(s.config.OTP.Length)
	if err != nil {
		s.log.Error("Failed to generate OTP", zap.Error(err))
		return nil, apperror.Wrap(apperror.KindInvalidInput, "Failed to send OTP. Please try again.", err)
	}

	otp := entity.OTP{
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(s.config.OTP.Expiry()),
	}

	if err := s.repo.OTP.Upsert(ctx, otp.Email, otp.Code, otp.ExpiresAt); err != nil {
		s.log.Error("Failed to store OTP", zap.Error(err), zap.String("email", email))
		return nil, apperror.Wrap(apperror.KindInvalidInput, "Failed to send OTP. Please try again.", err)
	}
	metrics.OTPIssued.Inc()

	// Delivery is best-effort: the code is already stored and verifiable.
	if err := s.mailer.Send(ctx, otp.Email, otp.Code); err != nil {
		metrics.OTPEmailFailures.Inc()
		s.log.Warn("OTP email delivery failed", zap.Error(err), zap.String("email", email))
		s.log.Debug("Undelivered OTP", zap.String("email", email), zap.String("otp", otp.Code))
	}

	s.log.Info("OTP issued",
		zap.String("email", email),
		zap.Time("expires_at", otp.ExpiresAt),
	)

	return &response.SendOTPResponse{
		Success: true,
		Message: "OTP sent successfully to your email",
		Email:   email,
	}, nil
}

func (s *authService) VerifyOTP(ctx context.Context, req *request.VerifyOTPRequest) (*response.VerifyOTPResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.OTP == "" {
		return nil, apperror.InvalidInput("Email and OTP are required")
	}

	user, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to load user for OTP", zap.Error(err), zap.String("email", email))
		return nil, apperror.Wrap(apperror.KindInvalidInput, "Failed to verify OTP", err)
	}
	if user == nil {
		metrics.OTPVerifications.WithLabelValues("unknown_user").Inc()
		return nil, apperror.Unauthorized("User not found")
	}

	if user.OTP == nil || subtle.ConstantTimeCompare([]byte(*user.OTP), []byte(req.OTP)) != 1 {
		metrics.OTPVerifications.WithLabelValues("mismatch").Inc()
		s.log.Warn("OTP mismatch", zap.Int64("user_id", user.ID))
		return nil, apperror.Unauthorized("Invalid OTP")
	}

	stored := entity.OTP{Email: user.Email, Code: *user.OTP}
	if user.OTPExpiry != nil {
		stored.ExpiresAt = *user.OTPExpiry
	}
	if stored.Expired(s.now()) {
		metrics.OTPVerifications.WithLabelValues("expired").Inc()
		return nil, apperror.Unauthorized("OTP has expired")
	}

	// Conditional clear: a concurrent request that already used this code
	// leaves nothing to consume.
	verified, err := s.repo.OTP.Consume(ctx, email, req.OTP)
	if err != nil {
		s.log.Error("Failed to consume OTP", zap.Error(err), zap.Int64("user_id", user.ID))
		return nil, apperror.Wrap(apperror.KindInvalidInput, "Failed to verify OTP", err)
	}
	if verified == nil {
		metrics.OTPVerifications.WithLabelValues("mismatch").Inc()
		return nil, apperror.Unauthorized("Invalid OTP")
	}

	role := verified.Role
	if role == "" {
		role = entity.RoleUser
	}

	token, expiresAt, err := s.sessions.Issue(verified.ID, verified.Email, string(role))
	if err != nil {
		s.log.Error("Failed to sign session", zap.Error(err), zap.Int64("user_id", verified.ID))
		return nil, apperror.Wrap(apperror.KindInternal, "Failed to create session", err)
	}

	csrfToken, err := s.csrf.IssueFor(verified.ID)
	if err != nil {
		s.log.Error("Failed to issue CSRF token", zap.Error(err), zap.Int64("user_id", verified.ID))
		return nil, apperror.Wrap(apperror.KindInternal, "Failed to create session", err)
	}

	metrics.OTPVerifications.WithLabelValues("success").Inc()
	s.log.Info("OTP verified",
		zap.Int64("user_id", verified.ID),
		zap.String("email", verified.Email),
		zap.String("role", string(role)),
	)

	return &response.VerifyOTPResponse{
		Success:   true,
		Message:   "OTP verified successfully",
		Token:     token,
		CSRFToken: csrfToken,
		User: response.SessionUser{
			ID:    verified.ID,
			Email: verified.Email,
			Role:  role,
		},
		Role:      role,
		ExpiresAt: expiresAt,
	}, nil
}

// Logout drops the caller's CSRF entry. The session credential itself cannot
// be revoked server-side; clearing the cookie is up to the transport.
func (s *authService) Logout(_ context.Context, identity *utils.Identity) {
	if identity == nil {
		return
	}
	s.csrf.Invalidate(identity.ID)
	s.log.Info("User logged out", zap.Int64("user_id", identity.ID))
}
