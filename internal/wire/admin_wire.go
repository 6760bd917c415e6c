package wire

import (
	"net/http"

	"otp-auth/internal/adaptor"
	"otp-auth/internal/data/entity"
)

var adminOnly = []string{string(entity.RoleAdmin)}

func adminRoutes(h *adaptor.AdminHandler) []route {
	return []route{
		{method: http.MethodGet, pattern: "/admin/dashboard", handler: h.Dashboard, roles: adminOnly},
		{method: http.MethodGet, pattern: "/admin/users", handler: h.ListUsers, roles: adminOnly},
		{method: http.MethodPut, pattern: "/admin/users/{id}/role", handler: h.UpdateRole, roles: adminOnly, csrf: true},
		{method: http.MethodDelete, pattern: "/admin/users/{id}", handler: h.DeleteUser, roles: adminOnly, csrf: true},
	}
}
