package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/auth"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/config"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/database"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/logging"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/repository"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/routes"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/services"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/views"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Database log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout),
		pgLogHandler,
	)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cfg.LogRetentionDays, cleanupDone)

	// Services
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	accountService := services.NewAccountService(db, hasher)
	patientService := services.NewPatientService(repository.NewPatientRepository(db))

	lookup, err := auth.NewCredentialLookup(cfg.AuthStrategy, accountService, cfg.AuthMemoryUsers, hasher)
	if err != nil {
		slog.Error("authentication setup failed", "strategy", cfg.AuthStrategy, "error", err)
		os.Exit(1)
	}
	authenticator := auth.NewAuthenticator(lookup, hasher)
	sessions := auth.NewSessionIssuer(cfg.SessionSecret, cfg.SessionTTL, cfg.SessionCookie, cfg.CookieSecure)
	m := metrics.New()

	// Handlers
	authHandler := handlers.NewAuthHandler(authenticator, sessions, m)
	patientHandler := handlers.NewPatientHandler(patientService, m, cfg.DefaultPageSize)
	accountHandler := handlers.NewAccountHandler(accountService)
	healthHandler := handlers.NewHealthHandler(db, patientService)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		Views:        views.NewEngine(),
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(m.Middleware())
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, sessions, m, authHandler, patientHandler, accountHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "auth_strategy", cfg.AuthStrategy)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
