package middleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecureHeaders sets the usual hardening headers. CSP is left to the frontend
// host.
func SecureHeaders(production bool) func(http.Handler) http.Handler {
	options := secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "no-referrer",
		IsDevelopment:      !production,
	}
	if production {
		options.STSSeconds = 15552000
		options.STSIncludeSubdomains = true
	}
	return secure.New(options).Handler
}
