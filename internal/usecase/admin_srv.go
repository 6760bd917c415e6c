package usecase

import (
	"context"
	"fmt"

	"otp-auth/internal/data/entity"
	"otp-auth/internal/data/repository"
	"otp-auth/internal/dto/request"
	"otp-auth/internal/dto/response"
	"otp-auth/pkg/apperror"
	"otp-auth/pkg/csrf"
	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

// RecentUsersLimit is how many newest accounts the dashboard lists.
const RecentUsersLimit = 10

type AdminService interface {
	Dashboard(ctx context.Context) (*response.DashboardResponse, error)
	ListUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error)
	UpdateRole(ctx context.Context, userID int64, role string) (*response.UserMutationResponse, error)
	DeleteUser(ctx context.Context, userID int64) (*response.UserMutationResponse, error)
}

type adminService struct {
	userRepo repository.UserRepository
	csrf     *csrf.Store
	log      *zap.Logger
}

func NewAdminService(userRepo repository.UserRepository, csrfStore *csrf.Store, log *zap.Logger) AdminService {
	return &adminService{
		userRepo: userRepo,
		csrf:     csrfStore,
		log:      log.With(zap.String("service", "admin")),
	}
}

func (as *adminService) Dashboard(ctx context.Context) (*response.DashboardResponse, error) {
	stats, err := as.userRepo.Stats(ctx, RecentUsersLimit)
	if err != nil {
		as.log.Error("Failed to load dashboard stats", zap.Error(err))
		return nil, apperror.Wrap(apperror.KindInvalidInput, "Failed to fetch dashboard statistics", err)
	}

	return &response.DashboardResponse{
		Success: true,
		Stats: response.DashboardStats{
			TotalUsers:    stats.TotalUsers,
			VerifiedUsers: stats.VerifiedUsers,
			AdminUsers:    stats.AdminUsers,
			RecentUsers:   response.UsersToResponse(stats.RecentUsers),
		},
	}, nil
}

func (as *adminService) ListUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	req.Page, req.Limit = utils.NormalizePage(req.Page, req.Limit)

	users, err := as.userRepo.FindAll(ctx, req.Limit, req.Offset())
	if err != nil {
		as.log.Error("Failed to list users",
			zap.Error(err),
			zap.Int("page", req.Page),
			zap.Int("limit", req.Limit),
		)
		return nil, apperror.Wrap(apperror.KindInvalidInput, "Failed to fetch users", err)
	}

	total, err := as.userRepo.CountAll(ctx)
	if err != nil {
		as.log.Error("Failed to count users", zap.Error(err))
		return nil, apperror.Wrap(apperror.KindInvalidInput, "Failed to fetch users", err)
	}

	pages := utils.CalculateTotalPages(total, req.Limit)

	as.log.Debug("Users retrieved",
		zap.Int("count", len(users)),
		zap.Int64("total", total),
		zap.Int("page", req.Page),
		zap.Int("pages", pages),
	)

	return response.NewPaginatedResponse(response.UsersToResponse(users), req.Page, req.Limit, total, pages), nil
}

func (as *adminService) UpdateRole(ctx context.Context, userID int64, role string) (*response.UserMutationResponse, error) {
	newRole := entity.UserRole(role)
	if !newRole.Valid() {
		return nil, apperror.InvalidInput("Invalid role")
	}

	user, err := as.userRepo.UpdateRole(ctx, userID, newRole)
	if err != nil {
		as.log.Error("Failed to update role", zap.Error(err), zap.Int64("user_id", userID))
		return nil, apperror.Wrap(apperror.KindInvalidInput, "Failed to update user role", err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("User not found")
	}

	as.log.Info("User role updated", zap.Int64("user_id", userID), zap.String("role", role))

	resp := response.UserToResponse(user)
	return &response.UserMutationResponse{
		Success: true,
		Message: fmt.Sprintf("User role updated to %s", newRole),
		User:    &resp,
	}, nil
}

func (as *adminService) DeleteUser(ctx context.Context, userID int64) (*response.UserMutationResponse, error) {
	user, err := as.userRepo.Delete(ctx, userID)
	if err != nil {
		as.log.Error("Failed to delete user", zap.Error(err), zap.Int64("user_id", userID))
		return nil, apperror.Wrap(apperror.KindInvalidInput, "Failed to delete user", err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("User not found")
	}

	as.csrf.Invalidate(userID)
	as.log.Info("User deleted", zap.Int64("user_id", userID), zap.String("email", user.Email))

	resp := response.UserToResponse(user)
	return &response.UserMutationResponse{
		Success: true,
		Message: "User deleted successfully",
		User:    &resp,
	}, nil
}
