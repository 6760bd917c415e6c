package response

import (
	"time"

	"otp-auth/internal/data/entity"
)

type UserResponse struct {
	ID         int64           `json:"id"`
	Email      string          `json:"email"`
	Role       entity.UserRole `json:"role"`
	IsVerified bool            `json:"is_verified"`
	FirstName  *string         `json:"first_name,omitempty"`
	LastName   *string         `json:"last_name,omitempty"`
	Phone      *string         `json:"phone,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Role:       user.Role,
		IsVerified: user.IsVerified,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Phone:      user.Phone,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

func UsersToResponse(users []*entity.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = UserToResponse(u)
	}
	return out
}

type ProfileResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}

// UserMutationResponse answers every operation that changes a user row.
// CSRFToken carries the token rotated by the CSRF middleware, if any.
type UserMutationResponse struct {
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	User      *UserResponse `json:"user,omitempty"`
	CSRFToken string        `json:"csrfToken,omitempty"`
}
