package response

import (
	"time"

	"otp-auth/internal/data/entity"
)

type SendOTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Email   string `json:"email"`
}

// SessionUser is the short user summary returned at sign-in.
type SessionUser struct {
	ID    int64           `json:"id"`
	Email string          `json:"email"`
	Role  entity.UserRole `json:"role"`
}

// VerifyOTPResponse carries the signed session in Token for the handler to
// put in the HttpOnly cookie; it never reaches the JSON body.
type VerifyOTPResponse struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Token     string          `json:"-"`
	CSRFToken string          `json:"csrfToken"`
	User      SessionUser     `json:"user"`
	Role      entity.UserRole `json:"role"`
	ExpiresAt time.Time       `json:"-"`
}
