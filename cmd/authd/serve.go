package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	grpcServer "github.com/st-angelo/webarena-auth/internal/api/grpc/server"
	"github.com/st-angelo/webarena-auth/internal/api/http/handler"
	"github.com/st-angelo/webarena-auth/internal/api/http/router"
	httpServer "github.com/st-angelo/webarena-auth/internal/api/http/server"
	"github.com/st-angelo/webarena-auth/internal/config"
	"github.com/st-angelo/webarena-auth/internal/logger"
	"github.com/st-angelo/webarena-auth/internal/metrics"
	"github.com/st-angelo/webarena-auth/internal/model"
	"github.com/st-angelo/webarena-auth/internal/notifier/smtp"
	"github.com/st-angelo/webarena-auth/internal/password"
	"github.com/st-angelo/webarena-auth/internal/ratelimit"
	"github.com/st-angelo/webarena-auth/internal/repository/postgres"
	"github.com/st-angelo/webarena-auth/internal/reset"
	"github.com/st-angelo/webarena-auth/internal/server"
	"github.com/st-angelo/webarena-auth/internal/service"
	storage "github.com/st-angelo/webarena-auth/internal/storage/minio"
	"github.com/st-angelo/webarena-auth/internal/token"
)

const (
	healthInterval  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	logger := logger.NewWithFormat(os.Stdout, cfg.LogLevel, cfg.LogFormat).With("service", "authd")
	logAppVersion(logger)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer db.Close()

	notifier, err := smtp.New(cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}

	m := metrics.New()
	users := postgres.NewUserRepository(db)
	hasher := password.NewHasher(
		password.WithCost(cfg.Password.Cost),
		password.WithConcurrency(cfg.Password.Concurrency),
	)
	tokens := token.NewJWT(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	authService := service.NewAuth(users, hasher, tokens, reset.NewManager(), notifier, cfg.HTTP.PublicURL, logger,
		service.WithMetrics(m))
	userService := service.NewUsers(users, connectPhotoStore(ctx, cfg.Storage, logger), logger)

	limiter, closeLimiter := connectLimiter(cfg, logger)
	defer closeLimiter()

	r := router.New(authService, userService, db, limiter, m, handler.CookieOptions{
		Lifetime: cfg.CookieLifetime(),
		Secure:   cfg.IsProduction(),
	}, logger)
	api := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	health := grpcServer.NewGRPCServer(fmt.Sprintf(":%s", cfg.GRPC.Port), logger)

	var wg sync.WaitGroup
	start := func(s model.Server, sl model.SecurityLayer) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}()
	}

	start(api, server.NewSecurityLayer(cfg.HTTP))
	start(health, server.NewPlainListener())

	wg.Add(1)
	go func() {
		defer wg.Done()
		health.Monitor(ctx, db, healthInterval)
	}()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	for _, s := range []model.Server{api, health} {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
	return nil
}

// connectPhotoStore returns nil when object storage is unreachable so the
// rest of the service still starts.
func connectPhotoStore(ctx context.Context, cfg config.Storage, logger *logger.Logger) model.Storage {
	photos, err := storage.Connect(ctx, cfg)
	if err != nil {
		logger.Warn("photo storage disabled", "error", err, "endpoint", cfg.Endpoint)
		return nil
	}
	return photos
}

func connectLimiter(cfg *config.Config, logger *logger.Logger) (model.Limiter, func()) {
	if cfg.Redis.Addr == "" {
		logger.Warn("rate limiting disabled, REDIS_ADDR is not set")
		return nil, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	limiter := ratelimit.NewRedis(client, "authd:ratelimit", cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window)

	return limiter, func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", "error", err)
		}
	}
}

func logAppVersion(logger *logger.Logger) {
	logger.Info("build info",
		"version", buildVersion,
		"date", buildDate,
		"commit", buildCommit)
}
