package wire

import (
	"net/http"

	"otp-auth/internal/adaptor"
)

func authRoutes(h *adaptor.AuthHandler) []route {
	return []route{
		{method: http.MethodPost, pattern: "/auth/send-otp", handler: h.SendOTP, access: accessPublic},
		{method: http.MethodPost, pattern: "/auth/verify-otp", handler: h.VerifyOTP, access: accessPublic},
		// Logout only clears cookies and the caller's CSRF entry, so it
		// needs neither a session nor a CSRF token.
		{method: http.MethodPost, pattern: "/auth/logout", handler: h.Logout, access: accessOptional},
	}
}
