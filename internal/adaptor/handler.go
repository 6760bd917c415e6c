package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"otp-auth/internal/usecase"
	"otp-auth/pkg/apperror"
	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

// CookieSettings controls the lifetime and transport of the auth cookies.
type CookieSettings struct {
	SessionTTL time.Duration
	CSRFTTL    time.Duration
	Secure     bool
}

type Handler struct {
	Auth  *AuthHandler
	User  *UserHandler
	Admin *AdminHandler
}

func NewHandler(service *usecase.Service, cookies CookieSettings, log *zap.Logger) *Handler {
	return &Handler{
		Auth:  NewAuthHandler(service.Auth, cookies, log),
		User:  NewUserHandler(service.User, cookies, log),
		Admin: NewAdminHandler(service.Admin, log),
	}
}

// decodeJSON decodes the request body into dst. An empty body leaves dst
// untouched.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeServiceError maps the apperror taxonomy onto HTTP responses. A CSRF
// token rotated earlier in the chain is echoed so the client can retry.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, operation string) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	message := apperror.MessageOf(err)
	if kind == apperror.KindInternal {
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		message = "Internal server error"
	} else {
		log.Warn(operation+" failed", zap.Error(err), zap.Int("status", status))
	}

	utils.ResponseJSON(w, status, utils.Response{
		Success:   false,
		Message:   message,
		CSRFToken: utils.GetCSRFTokenFromContext(r.Context()),
	})
}

// writeBadRequest answers a 400 raised by the handler itself.
func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	utils.ResponseJSON(w, http.StatusBadRequest, utils.Response{
		Success:   false,
		Message:   message,
		CSRFToken: utils.GetCSRFTokenFromContext(r.Context()),
	})
}

// writeValidationError answers a 400 for a request that failed DTO validation.
func writeValidationError(w http.ResponseWriter, r *http.Request, log *zap.Logger, message string, errs map[string]string) {
	log.Debug("Validation failed", zap.String("errors", utils.FormatValidationErrors(errs)))

	utils.ResponseJSON(w, http.StatusBadRequest, utils.Response{
		Success:   false,
		Message:   message,
		Errors:    errs,
		CSRFToken: utils.GetCSRFTokenFromContext(r.Context()),
	})
}
