// internal/wire/wire.go
package wire

import (
	"net/http"

	"otp-auth/internal/adaptor"
	"otp-auth/internal/data/repository"
	"otp-auth/internal/usecase"
	"otp-auth/pkg/csrf"
	"otp-auth/pkg/mailer"
	"otp-auth/pkg/metrics"
	"otp-auth/pkg/middleware"
	"otp-auth/pkg/session"
	"otp-auth/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the router and the process-wide state it was built around.
type App struct {
	Router   *chi.Mux
	Sessions *session.Manager
	CSRF     *csrf.Store
}

// Wiring builds services, handlers and the router.
func Wiring(
	repo *repository.Repository,
	mail mailer.Mailer,
	csrfStore *csrf.Store,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	sessions := session.NewManager(config.JWT.Secret, config.JWT.Expiry())

	service := usecase.NewService(repo, sessions, csrfStore, mail, config, logger)
	handler := adaptor.NewHandler(service, adaptor.CookieSettings{
		SessionTTL: sessions.TTL(),
		CSRFTTL:    csrfStore.TTL(),
		Secure:     config.App.Production,
	}, logger)

	guards := &guards{
		authenticate: middleware.Authenticate(sessions, logger),
		optional:     middleware.OptionalAuthenticate(sessions),
		csrf:         middleware.CSRF(csrfStore, config.App.Production, logger),
		log:          logger,
	}

	router := setupRouter(handler, guards, config, logger)

	return &App{
		Router:   router,
		Sessions: sessions,
		CSRF:     csrfStore,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	guards *guards,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.SecureHeaders(config.App.Production))
	r.Use(middleware.CORS(config.App.CORSOrigins))

	r.Route("/api", func(api chi.Router) {
		mount(api, guards, authRoutes(handler.Auth))
		mount(api, guards, userRoutes(handler.User))
		mount(api, guards, adminRoutes(handler.Admin))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}
