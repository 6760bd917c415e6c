package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"

	"otp-auth/pkg/csrf"
	"otp-auth/pkg/metrics"
	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

// maxCSRFFormBody bounds how much of a urlencoded body is buffered while
// looking for the _csrf field, matching net/http's ParseForm limit.
const maxCSRFFormBody = 10 << 20

// replayBody hands the handler the bytes already read followed by the rest of
// the original body.
type replayBody struct {
	io.Reader
	io.Closer
}

// CSRF validates and rotates the caller's CSRF token on state-changing
// methods. It must run after Authenticate. On success the replacement token
// is put in the request context, the csrfToken cookie and the X-CSRF-Token
// response header.
func CSRF(store *csrf.Store, secureCookie bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			identity, ok := utils.GetIdentityFromContext(r.Context())
			if !ok || identity.ID == 0 {
				utils.ResponseForbidden(w, "User not authenticated for CSRF validation")
				return
			}

			token := extractCSRFToken(r)
			if token == "" {
				metrics.CSRFValidations.WithLabelValues("missing").Inc()
				utils.ResponseForbidden(w, "CSRF token is missing")
				return
			}

			rotated, valid, err := store.Consume(identity.ID, token)
			if err != nil {
				logger.Error("Failed to rotate CSRF token", zap.Error(err), zap.Int64("user_id", identity.ID))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if !valid {
				metrics.CSRFValidations.WithLabelValues("invalid").Inc()
				logger.Warn("Invalid CSRF token",
					zap.Int64("user_id", identity.ID),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseForbidden(w, "Invalid or expired CSRF token")
				return
			}
			metrics.CSRFValidations.WithLabelValues("valid").Inc()

			utils.SetCSRFCookie(w, rotated, store.TTL(), secureCookie)
			w.Header().Set(utils.CSRFHeaderName, rotated)

			next.ServeHTTP(w, r.WithContext(utils.SetCSRFTokenContext(r.Context(), rotated)))
		})
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// extractCSRFToken looks at the header, then the body field, then the query.
func extractCSRFToken(r *http.Request) string {
	if token := r.Header.Get(utils.CSRFHeaderName); token != "" {
		return token
	}
	if token := csrfFromBody(r); token != "" {
		return token
	}
	return r.URL.Query().Get(utils.CSRFFieldName)
}

// csrfFromBody reads _csrf from a JSON or urlencoded body. Whatever was read
// is replayed in front of the unread remainder so the handler sees the full
// body.
func csrfFromBody(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" && mediaType != "application/x-www-form-urlencoded" {
		return ""
	}

	var consumed bytes.Buffer
	original := r.Body
	defer func() {
		r.Body = replayBody{Reader: io.MultiReader(&consumed, original), Closer: original}
	}()

	if mediaType == "application/json" {
		var payload struct {
			CSRF string `json:"_csrf"`
		}
		if json.NewDecoder(io.TeeReader(original, &consumed)).Decode(&payload) != nil {
			return ""
		}
		return payload.CSRF
	}

	body, err := io.ReadAll(io.TeeReader(io.LimitReader(original, maxCSRFFormBody), &consumed))
	if err != nil || len(body) == 0 {
		return ""
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return ""
	}
	return values.Get(utils.CSRFFieldName)
}
