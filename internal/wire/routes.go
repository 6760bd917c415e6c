package wire

import (
	"net/http"

	"otp-auth/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type access int

const (
	// accessAuthenticated requires a valid session credential.
	accessAuthenticated access = iota
	// accessPublic skips the auth guard entirely.
	accessPublic
	// accessOptional attaches the identity when a valid credential is sent.
	accessOptional
)

// route is one entry of a route table. Guards run in a fixed order:
// auth, role, CSRF.
type route struct {
	method  string
	pattern string
	handler http.HandlerFunc
	access  access
	roles   []string
	csrf    bool
}

type guards struct {
	authenticate func(http.Handler) http.Handler
	optional     func(http.Handler) http.Handler
	csrf         func(http.Handler) http.Handler
	log          *zap.Logger
}

func (g *guards) chain(rt route) []func(http.Handler) http.Handler {
	var chain []func(http.Handler) http.Handler

	switch rt.access {
	case accessAuthenticated:
		chain = append(chain, g.authenticate)
	case accessOptional:
		chain = append(chain, g.optional)
	}
	if len(rt.roles) > 0 {
		chain = append(chain, middleware.RequireRole(g.log, rt.roles...))
	}
	if rt.csrf {
		chain = append(chain, g.csrf)
	}
	return chain
}

func mount(r chi.Router, g *guards, routes []route) {
	for _, rt := range routes {
		r.With(g.chain(rt)...).Method(rt.method, rt.pattern, rt.handler)
	}
}
