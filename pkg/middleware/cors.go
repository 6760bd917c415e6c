package middleware

import (
	"net/http"

	"otp-auth/pkg/utils"

	"github.com/go-chi/cors"
)

// CORS lets the SPA origins call the API with cookies and read the rotated
// CSRF token header.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", utils.CSRFHeaderName, RequestIDHeader},
		ExposedHeaders:   []string{utils.CSRFHeaderName, RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
