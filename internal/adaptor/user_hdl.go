package adaptor

import (
	"net/http"

	"otp-auth/internal/dto/request"
	"otp-auth/internal/usecase"
	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

type UserHandler struct {
	service usecase.UserService
	cookies CookieSettings
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, cookies CookieSettings, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		cookies: cookies,
		log:     log.With(zap.String("handler", "user")),
	}
}

// GetProfile handles GET /api/user/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := utils.GetIdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "No token provided")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), identity.Email)
	if err != nil {
		h.handleServiceError(w, r, err, "get profile")
		return
	}

	utils.ResponseOK(w, profile)
}

// UpdateProfile handles PUT /api/user/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := utils.GetIdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "No token provided")
		return
	}

	var req request.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		writeValidationError(w, r, h.log, "Validation failed", validationErrors)
		return
	}

	resp, err := h.service.UpdateProfile(r.Context(), identity.Email, &req)
	if err != nil {
		h.handleServiceError(w, r, err, "update profile")
		return
	}

	resp.CSRFToken = utils.GetCSRFTokenFromContext(r.Context())
	utils.ResponseOK(w, resp)
}

// UpdateEmail handles POST /api/user/update-profile. The session cookie is
// re-issued because the old credential names the previous email. The new
// credential only travels in the HttpOnly cookie.
func (h *UserHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	identity, ok := utils.GetIdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "No token provided")
		return
	}

	var req request.UpdateEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		writeValidationError(w, r, h.log, "Validation failed", validationErrors)
		return
	}

	change, err := h.service.UpdateEmail(r.Context(), identity.Email, &req)
	if err != nil {
		h.handleServiceError(w, r, err, "update email")
		return
	}

	utils.SetAuthCookie(w, change.Token, h.cookies.SessionTTL, h.cookies.Secure)

	resp := change.Response
	resp.CSRFToken = utils.GetCSRFTokenFromContext(r.Context())
	utils.ResponseOK(w, resp)
}

func (h *UserHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	writeServiceError(w, r, h.log, err, operation)
}
