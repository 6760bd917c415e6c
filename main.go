// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"otp-auth/cmd"
	"otp-auth/internal/data/repository"
	"otp-auth/internal/wire"
	"otp-auth/pkg/csrf"
	"otp-auth/pkg/database"
	"otp-auth/pkg/mailer"
	"otp-auth/pkg/telemetry"
	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.Name, config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.Bool("production", config.App.Production),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(config.App.Name, config.Telemetry, logger)

	repos, closeDB := openRepository(ctx, config, logger)
	defer closeDB()

	csrfStore := csrf.NewStore(config.CSRF.TTL(), logger)
	sweeper, err := csrf.StartSweeper(csrfStore, config.CSRF.SweepSpec, logger)
	if err != nil {
		logger.Fatal("Invalid CSRF sweep schedule", zap.Error(err), zap.String("spec", config.CSRF.SweepSpec))
	}

	// Wire all dependencies
	app := wire.Wiring(repos, mailer.New(config.Email, logger), csrfStore, config, logger)

	if err := cmd.APIServer(ctx, app.Router, config.App.Name, config.App.Port, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sweeper.Stop(stopCtx)
	if err := shutdownTracing(stopCtx); err != nil {
		logger.Warn("Tracing shutdown failed", zap.Error(err))
	}
	logger.Info("Application stopped")
}

// openRepository connects to Postgres when DB_HOST is set and falls back to
// the in-memory store otherwise.
func openRepository(ctx context.Context, config *utils.Config, logger *zap.Logger) (*repository.Repository, func()) {
	if config.Database.Host == "" {
		logger.Warn("DB_HOST not set, using in-memory user store; data is lost on restart")
		return repository.NewMemoryRepository(logger), func() {}
	}

	if config.Database.Migrate {
		if err := database.Migrate(ctx, config.Database); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		logger.Info("Database migrations applied")
	}

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	return repository.NewRepository(db, logger), db.Close
}
