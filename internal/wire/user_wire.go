package wire

import (
	"net/http"

	"otp-auth/internal/adaptor"
	"otp-auth/internal/data/entity"
)

var userOnly = []string{string(entity.RoleUser)}

func userRoutes(h *adaptor.UserHandler) []route {
	return []route{
		{method: http.MethodGet, pattern: "/user/profile", handler: h.GetProfile, roles: userOnly},
		{method: http.MethodPut, pattern: "/user/profile", handler: h.UpdateProfile, roles: userOnly, csrf: true},
		{method: http.MethodPost, pattern: "/user/update-profile", handler: h.UpdateEmail, csrf: true},
	}
}
