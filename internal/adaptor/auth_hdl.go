package adaptor

import (
	"net/http"

	"otp-auth/internal/dto/request"
	"otp-auth/internal/usecase"
	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	cookies CookieSettings
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, cookies CookieSettings, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookies: cookies,
		log:     log.With(zap.String("handler", "auth")),
	}
}

// SendOTP handles POST /api/auth/send-otp
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req request.SendOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return
	}

	resp, err := h.service.SendOTP(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err, "send OTP")
		return
	}

	utils.ResponseOK(w, resp)
}

// VerifyOTP handles POST /api/auth/verify-otp and sets the session and CSRF cookies.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		writeValidationError(w, r, h.log, "Email and OTP are required", validationErrors)
		return
	}

	resp, err := h.service.VerifyOTP(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err, "verify OTP")
		return
	}

	utils.SetAuthCookie(w, resp.Token, h.cookies.SessionTTL, h.cookies.Secure)
	utils.SetCSRFCookie(w, resp.CSRFToken, h.cookies.CSRFTTL, h.cookies.Secure)

	utils.ResponseOK(w, resp)
}

// Logout handles POST /api/auth/logout. It works with or without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if identity, ok := utils.GetIdentityFromContext(r.Context()); ok {
		h.service.Logout(r.Context(), &identity)
	}

	utils.ClearAuthCookies(w, h.cookies.Secure)
	utils.ResponseSuccess(w, "Logged out successfully")
}

func (h *AuthHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	writeServiceError(w, r, h.log, err, operation)
}
