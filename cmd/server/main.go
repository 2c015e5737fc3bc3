package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/joho/godotenv"

	"nhbrcforms/database"
	"nhbrcforms/infrastructure/config"
	"nhbrcforms/interfaces/web/handlers"
	"nhbrcforms/interfaces/web/presenters"
	"nhbrcforms/logging"
	"nhbrcforms/platform/factories"
)

func main() {
	// Initialize configuration
	loadEnvironment()
	cfg := config.LoadAppConfigFromEnv()

	// Initialize logging
	logger := initializeLogging(cfg)

	if err := cfg.Graph.Validate(); err != nil {
		logger.Warn("Graph credentials incomplete, submissions will fail until configured", "error", err.Error())
	}
	if missing := cfg.Provinces.Missing(); len(missing) > 0 {
		logger.Warn("Provinces without SharePoint configuration", "provinces", missing)
	}

	// Initialize database
	db := initializeDatabase(cfg, logger)
	defer db.Close()

	services, err := factories.NewServiceFactory(cfg, db).Build()
	if err != nil {
		logger.Error("Failed to build services", "error", err)
		os.Exit(1)
	}

	deps := buildPresentationLayer(cfg, services)

	// Setup routes and start server
	router := setupRoutes(deps, cfg, logger)
	startServer(router, cfg.HTTPAddr, logger)
}

// PresentationLayer groups all presentation components
type PresentationLayer struct {
	Services *factories.Services

	SubmissionPresenter *presenters.SubmissionPresenter

	SubmissionHandlers *handlers.SubmissionHandlers
	SystemHandlers     *handlers.SystemHandlers
}

func loadEnvironment() {
	if err := godotenv.Load(); err != nil {
		println("No .env file found, using environment variables")
	} else {
		println("Loaded configuration from .env file")
	}
}

func initializeLogging(cfg *config.AppConfig) *logging.Logger {
	logger := logging.NewLogger(cfg.Logging)
	logging.SetDefault(logger)

	logger.Info("Application starting",
		"version", "1.0.0",
		"log_level", cfg.Logging.Level,
		"log_format", cfg.Logging.Format,
		"db_path", cfg.Database.Path,
		"counter_backend", cfg.Counter.Backend,
	)

	return logger
}

func initializeDatabase(cfg *config.AppConfig, logger *logging.Logger) *database.Database {
	db, err := database.New(*cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	return db
}

// buildPresentationLayer creates all presenters and handlers
func buildPresentationLayer(cfg *config.AppConfig, services *factories.Services) *PresentationLayer {
	submissionPresenter := presenters.NewSubmissionPresenter()

	return &PresentationLayer{
		Services:            services,
		SubmissionPresenter: submissionPresenter,
		SubmissionHandlers: handlers.NewSubmissionHandlers(
			services.Submissions,
			submissionPresenter,
			cfg.Uploads.MaxBodyBytes,
		),
		SystemHandlers: handlers.NewSystemHandlers(services.Health, cfg.HealthProvince),
	}
}

func setupRoutes(deps *PresentationLayer, cfg *config.AppConfig, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	setupHTTPLogging(r, cfg, logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/submit-form", deps.SubmissionHandlers.SubmitForm)
		r.Get("/generate-reference", deps.SubmissionHandlers.GenerateReference)
		r.Get("/submissions/{referenceNumber}", deps.SubmissionHandlers.GetSubmission)
		r.Get("/health", deps.SystemHandlers.Health)
	})

	r.Handle("/metrics", deps.Services.Metrics.Handler())

	return r
}

func setupHTTPLogging(r *chi.Mux, cfg *config.AppConfig, logger *logging.Logger) {
	if cfg.HTTPLogPath == "" {
		return
	}

	logFile, err := os.OpenFile(cfg.HTTPLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logger.Error("Failed to open HTTP log file", "error", err, "path", cfg.HTTPLogPath)
		return
	}
	// logFile stays open for the server lifetime

	httpLogger := httplog.NewLogger("nhbrcforms", httplog.Options{
		Writer: logFile,
		JSON:   true,
	})
	r.Use(httplog.RequestLogger(httpLogger))

	logger.Info("HTTP request logging enabled", "path", cfg.HTTPLogPath)
}

func startServer(router *chi.Mux, addr string, logger *logging.Logger) {
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sig
		logger.Info("Shutdown signal received")

		// In-flight submissions get the full window to finish their uploads.
		shutdownCtx, cancel := context.WithTimeout(serverCtx, 30*time.Second)
		defer cancel()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				logger.Error("Graceful shutdown timed out, forcing exit")
				os.Exit(1)
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			os.Exit(1)
		}
		serverStopCtx()
	}()

	logger.Info("Server starting", "address", addr)
	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}

	<-serverCtx.Done()
	logger.Info("Server stopped")
}
