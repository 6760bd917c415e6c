package request

import "otp-auth/pkg/utils"

// Role is checked against entity.UserRole in the admin service, which owns
// the "Invalid role" failure.
type UpdateRoleRequest struct {
	Role string `json:"role"`
	CSRF string `json:"_csrf,omitempty"`
}

type PaginatedRequest struct {
	Page  int
	Limit int
}

func (p PaginatedRequest) Offset() int {
	return utils.CalculateOffset(p.Page, p.Limit)
}
