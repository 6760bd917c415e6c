package usecase

import (
	"context"
	"errors"
	"strings"

	"otp-auth/internal/data/repository"
	"otp-auth/internal/dto/request"
	"otp-auth/internal/dto/response"
	"otp-auth/pkg/apperror"
	"otp-auth/pkg/session"

	"go.uber.org/zap"
)

// EmailChange is the result of a self-service email update. Token is a fresh
// session credential carrying the new email, to be set as the session cookie.
type EmailChange struct {
	Response *response.UserMutationResponse
	Token    string
}

type UserService interface {
	GetProfile(ctx context.Context, email string) (*response.ProfileResponse, error)
	UpdateProfile(ctx context.Context, email string, req *request.UpdateProfileRequest) (*response.UserMutationResponse, error)
	UpdateEmail(ctx context.Context, email string, req *request.UpdateEmailRequest) (*EmailChange, error)
}

type userService struct {
	userRepo repository.UserRepository
	sessions *session.Manager
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, sessions *session.Manager, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		sessions: sessions,
		log:      log.With(zap.String("service", "user")),
	}
}

func (us *userService) GetProfile(ctx context.Context, email string) (*response.ProfileResponse, error) {
	if email == "" {
		return nil, apperror.Unauthorized("Email not provided")
	}

	user, err := us.userRepo.FindByEmail(ctx, email)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("email", email))
		return nil, apperror.Wrap(apperror.KindInvalidInput, "Failed to fetch profile", err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("User not found")
	}

	return &response.ProfileResponse{
		Success: true,
		User:    response.UserToResponse(user),
	}, nil
}

func (us *userService) UpdateProfile(ctx context.Context, email string, req *request.UpdateProfileRequest) (*response.UserMutationResponse, error) {
	if email == "" {
		return nil, apperror.Unauthorized("Email not provided")
	}

	update := req.ToEntity()
	if update.Empty() {
		return nil, apperror.InvalidInput("No valid fields to update")
	}

	user, err := us.userRepo.UpdateProfile(ctx, email, update)
	if err != nil {
		us.log.Error("Failed to update profile", zap.Error(err), zap.String("email", email))
		return nil, apperror.Wrap(apperror.KindInvalidInput, "Failed to update profile", err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("User not found")
	}

	us.log.Info("Profile updated", zap.Int64("user_id", user.ID))

	resp := response.UserToResponse(user)
	return &response.UserMutationResponse{
		Success: true,
		Message: "Profile updated successfully",
		User:    &resp,
	}, nil
}

func (us *userService) UpdateEmail(ctx context.Context, email string, req *request.UpdateEmailRequest) (*EmailChange, error) {
	if email == "" {
		return nil, apperror.Unauthorized("Email not provided")
	}

	newEmail := strings.TrimSpace(req.Email)
	if newEmail == "" {
		return nil, apperror.InvalidInput("New email is required")
	}

	existing, err := us.userRepo.FindByEmail(ctx, newEmail)
	if err != nil {
		us.log.Error("Failed to check email", zap.Error(err), zap.String("email", newEmail))
		return nil, apperror.Wrap(apperror.KindInvalidInput, "Failed to update email", err)
	}
	if existing != nil {
		return nil, apperror.InvalidInput("Email already in use")
	}

	user, err := us.userRepo.UpdateEmail(ctx, email, newEmail)
	if errors.Is(err, repository.ErrEmailTaken) {
		return nil, apperror.InvalidInput("Email already in use")
	}
	if err != nil {
		us.log.Error("Failed to update email", zap.Error(err), zap.String("email", email))
		return nil, apperror.Wrap(apperror.KindInvalidInput, "Failed to update email", err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("User not found")
	}

	// The old credential names the old email and would no longer resolve.
	token, _, err := us.sessions.Issue(user.ID, user.Email, string(user.Role))
	if err != nil {
		us.log.Error("Failed to re-sign session", zap.Error(err), zap.Int64("user_id", user.ID))
		return nil, apperror.Wrap(apperror.KindInternal, "Failed to update email", err)
	}

	us.log.Info("Email updated",
		zap.Int64("user_id", user.ID),
		zap.String("old_email", email),
		zap.String("new_email", user.Email),
	)

	resp := response.UserToResponse(user)
	return &EmailChange{
		Response: &response.UserMutationResponse{
			Success: true,
			Message: "Email updated successfully",
			User:    &resp,
		},
		Token: token,
	}, nil
}
