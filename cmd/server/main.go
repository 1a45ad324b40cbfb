package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/certportal/certportal/internal/api"
	"github.com/certportal/certportal/internal/api/handlers"
	"github.com/certportal/certportal/internal/backend"
	"github.com/certportal/certportal/internal/bulk"
	"github.com/certportal/certportal/internal/catalog"
	"github.com/certportal/certportal/internal/config"
	"github.com/certportal/certportal/internal/issuance"
	"github.com/certportal/certportal/internal/logging"
	"github.com/certportal/certportal/internal/otp"
	"github.com/certportal/certportal/internal/repository"
	"github.com/certportal/certportal/internal/service"
	"github.com/certportal/certportal/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize storage
	store, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer store.Close()

	db, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.EnsureSchema(context.Background(), db); err != nil {
		logger.Fatal("Failed to prepare schema", zap.Error(err))
	}

	profileRepo := repository.NewProfileRepository(db)
	issuanceRepo := repository.NewIssuanceRepository(db)

	// Backend client reads the caller's token from the session store per request
	client := backend.NewClient(cfg.BackendURL,
		backend.WithTokenSource(session.TokenSource{Store: store}),
		backend.WithLogger(logger.Named("backend")),
	)

	cat := catalog.Default()
	limiter := service.NewOTPLimiter(store.Client(), otp.DefaultCooldown, cfg.OTPDailyLimit)
	sender := service.LimitedSender{Sender: client, Limiter: limiter}

	// Initialize services
	authService := service.NewAuthService(client, store, cfg.JWTSecret, logger.Named("auth"))
	profileService := service.NewProfileService(client, profileRepo, logger.Named("profile"))
	journalService := service.NewJournalService(issuanceRepo, cfg.HMACKey, cat, logger.Named("journal"))

	if cfg.OTPDevBypass {
		logger.Warn("OTP dev bypass is enabled; codes are accepted without verification")
	}

	artifacts := issuance.NewMemoryStore()
	executor := issuance.NewExecutor(cat, client)
	wfLogger := logger.Named("workflow")
	registry := issuance.NewRegistry(func() *issuance.Workflow {
		gate := otp.NewGate(sender, otp.WithDevBypass(cfg.OTPDevBypass))
		return issuance.NewWorkflow(cat, executor, gate, artifacts, issuance.Options{
			AllowResubmit:  cfg.AllowResubmit,
			ResetOnSuccess: cfg.ResetOnSuccess,
			OnSubmitted:    journalService.Hook(),
			Logger:         wfLogger,
		})
	}, cfg.WorkflowTTL, logger.Named("registry"))

	authService.OnLogout(func(sid string) {
		if n := registry.CloseOwner(sid); n > 0 {
			logger.Debug("closed workflows on logout", zap.Int("count", n))
		}
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go registry.Run(ctx, time.Minute)

	// Set up router
	router := api.NewRouter(api.Deps{
		Logger:   logger,
		Catalog:  cat,
		Backend:  client,
		Auth:     authService,
		Profiles: profileService,
		Journal:  journalService,
		Registry: registry,
		Creator:  bulk.NewCreator(client, logger.Named("bulk")),
		Checks: map[string]handlers.Check{
			"redis":    store.Ping,
			"postgres": db.PingContext,
		},
		StaticDir: cfg.StaticDir,
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting certportal server",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.AppEnv),
			zap.String("backend", cfg.BackendURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}
