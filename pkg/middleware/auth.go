package middleware

import (
	"net/http"
	"slices"
	"strings"

	"otp-auth/pkg/session"
	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

// Authenticate verifies the session credential and attaches the caller's
// identity to the request context. The bearer header wins over the cookie.
func Authenticate(sessions *session.Manager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				utils.ResponseUnauthorized(w, "No token provided")
				return
			}

			claims, err := sessions.Verify(token)
			if err != nil {
				logger.Warn("Rejected session credential",
					zap.Error(err),
					zap.String("path", r.URL.Path),
					zap.String("request_id", utils.GetRequestIDFromContext(r.Context())),
				)
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := utils.SetIdentityContext(r.Context(), utils.Identity{
				ID:    claims.ID,
				Email: claims.Email,
				Role:  claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthenticate attaches the identity when a valid credential is
// present and otherwise lets the request through untouched.
func OptionalAuthenticate(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractToken(r); token != "" {
				if claims, err := sessions.Verify(token); err == nil {
					r = r.WithContext(utils.SetIdentityContext(r.Context(), utils.Identity{
						ID:    claims.ID,
						Email: claims.Email,
						Role:  claims.Role,
					}))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}

	if cookie, err := r.Cookie(utils.AuthCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// RequireRole admits callers whose role is one of roles. It must run after
// Authenticate.
func RequireRole(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := utils.GetIdentityFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "No token provided")
				return
			}

			if !slices.Contains(roles, identity.Role) {
				logger.Warn("Role check failed",
					zap.Int64("user_id", identity.ID),
					zap.String("role", identity.Role),
					zap.Strings("required", roles),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseForbidden(w, "Insufficient role for this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
