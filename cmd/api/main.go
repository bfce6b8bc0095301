package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acegraph/graphrag-portal/internal/auth"
	"github.com/acegraph/graphrag-portal/internal/config"
	"github.com/acegraph/graphrag-portal/internal/database"
	"github.com/acegraph/graphrag-portal/internal/graphrag"
	"github.com/acegraph/graphrag-portal/internal/handlers"
	middlewareCustom "github.com/acegraph/graphrag-portal/internal/middleware"
	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/acegraph/graphrag-portal/internal/repositories"
	"github.com/acegraph/graphrag-portal/internal/routes"
	"github.com/acegraph/graphrag-portal/internal/services"
	"github.com/acegraph/graphrag-portal/internal/storage/blob"
	pkglogger "github.com/acegraph/graphrag-portal/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Apply migrations, then open the pool
	if err := database.Migrate(cfg.Database.DSN()); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Object store for query histories and prompt artifacts
	blobClient, err := blob.NewClient(cfg.Blob.Endpoint, cfg.Blob.AccessKey, cfg.Blob.SecretKey, cfg.Blob.UseSSL)
	if err != nil {
		logger.Error("failed to create blob client", slog.Any("error", err))
		os.Exit(1)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	for _, bucket := range []string{cfg.Blob.HistoryBucket, cfg.Blob.PromptsBucket} {
		if err := blobClient.EnsureBucket(startupCtx, bucket); err != nil {
			logger.Error("failed to ensure bucket", slog.String("bucket", bucket), slog.Any("error", err))
			startupCancel()
			os.Exit(1)
		}
	}

	// Remote GraphRAG deployment
	graphragClient := graphrag.NewClient(cfg.GraphRAG.APIURL, cfg.GraphRAG.APIKey, cfg.GraphRAG.Timeout)

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	containerRepo := repositories.NewContainerRepository(db)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Lockout notifications are optional; without an operator address the
	// throttle still deactivates accounts, it just tells no one.
	var notifier services.LockoutNotifier
	if cfg.Email.OperatorAddress != "" {
		emailService, err := services.NewAWSSESEmailService(
			cfg.Email.AWSRegion,
			cfg.Email.FromAddress,
			cfg.Email.OperatorAddress,
			logger,
		)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = emailService
	}

	// Login throttle backed by the persisted account status
	throttle := auth.NewLoginThrottle(
		cfg.Auth.LockoutThreshold,
		cfg.Auth.LockoutWindow,
		&accountDeactivator{repo: userRepo},
		logger,
	)
	sessions := auth.NewSessionManager(cfg.Auth.JWTSecret, cfg.Auth.SessionExpiry)

	// Services
	authService := services.NewAuthService(userRepo, throttle, sessions, notifier, logger, auditLogger)
	historyService := services.NewHistoryService(blobClient, cfg.Blob.HistoryBucket, logger)
	userService := services.NewUserService(userRepo, historyService, cfg.Auth.BcryptCost, logger, auditLogger)
	queryService := services.NewQueryService(graphragClient, historyService, logger)
	promptService := services.NewPromptService(graphragClient, blobClient, cfg.Blob.PromptsBucket, logger)
	indexService := services.NewIndexService(graphragClient, containerRepo, logger)

	// Bootstrap first admin user if configured
	if err := userService.EnsureAdminUser(startupCtx, os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	startupCancel()

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	queryHandler := handlers.NewQueryHandler(queryService)
	historyHandler := handlers.NewHistoryHandler(historyService)
	promptHandler := handlers.NewPromptHandler(promptService)
	indexHandler := handlers.NewIndexHandler(indexService)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders())
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.GraphRAG.Timeout + 10*time.Second))

	routes.RegisterRoutes(router, sessions, authHandler, userHandler, queryHandler, historyHandler, promptHandler, indexHandler)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GraphRAG.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// accountDeactivator adapts the user repository to the throttle's contract.
type accountDeactivator struct {
	repo *repositories.UserRepository
}

func (d *accountDeactivator) Deactivate(ctx context.Context, username string) error {
	return d.repo.SetAccountStatus(ctx, username, models.StatusInactive)
}
