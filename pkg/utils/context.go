package utils

import (
	"context"
)

type contextKey string

const (
	ClaimsKey    contextKey = "claims"
	CSRFTokenKey contextKey = "csrf_token"
	RequestIDKey contextKey = "request_id"
)

// Identity is what the auth middleware attaches for downstream handlers.
type Identity struct {
	ID    int64
	Email string
	Role  string
}

func SetIdentityContext(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, ClaimsKey, identity)
}

func GetIdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(ClaimsKey).(Identity)
	return identity, ok
}

// SetCSRFTokenContext stores the token minted by the CSRF middleware for this request
func SetCSRFTokenContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, CSRFTokenKey, token)
}

// GetCSRFTokenFromContext returns "" when the request did not rotate a token
func GetCSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(CSRFTokenKey).(string)
	return token
}

func SetRequestIDContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
