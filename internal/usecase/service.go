package usecase

import (
	"otp-auth/internal/data/repository"
	"otp-auth/pkg/csrf"
	"otp-auth/pkg/mailer"
	"otp-auth/pkg/session"
	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth  AuthService
	User  UserService
	Admin AdminService
}

func NewService(
	repo *repository.Repository,
	sessions *session.Manager,
	csrfStore *csrf.Store,
	mail mailer.Mailer,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:  NewAuthService(repo, sessions, csrfStore, mail, config, log),
		User:  NewUserService(repo.User, sessions, log),
		Admin: NewAdminService(repo.User, csrfStore, log),
	}
}
