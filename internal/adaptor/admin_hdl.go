package adaptor

import (
	"net/http"

	"otp-auth/internal/dto/request"
	"otp-auth/internal/usecase"
	"otp-auth/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AdminHandler struct {
	service usecase.AdminService
	log     *zap.Logger
}

func NewAdminHandler(service usecase.AdminService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		log:     log.With(zap.String("handler", "admin")),
	}
}

// Dashboard handles GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "get dashboard")
		return
	}

	utils.ResponseOK(w, resp)
}

// ListUsers handles GET /api/admin/users?page=1&limit=10
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:  utils.ParseInt(query.Get("page"), 1),
		Limit: utils.ParseInt(query.Get("limit"), utils.DefaultPageLimit),
	}

	resp, err := h.service.ListUsers(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err, "list users")
		return
	}

	utils.ResponseOK(w, resp)
}

// UpdateRole handles PUT /api/admin/users/{id}/role
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.ParseID(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, r, "Invalid user ID")
		return
	}

	var req request.UpdateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return
	}

	resp, err := h.service.UpdateRole(r.Context(), userID, req.Role)
	if err != nil {
		h.handleServiceError(w, r, err, "update role")
		return
	}

	resp.CSRFToken = utils.GetCSRFTokenFromContext(r.Context())
	utils.ResponseOK(w, resp)
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.ParseID(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, r, "Invalid user ID")
		return
	}

	resp, err := h.service.DeleteUser(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err, "delete user")
		return
	}

	resp.CSRFToken = utils.GetCSRFTokenFromContext(r.Context())
	utils.ResponseOK(w, resp)
}

func (h *AdminHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	writeServiceError(w, r, h.log, err, operation)
}
