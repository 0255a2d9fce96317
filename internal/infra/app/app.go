// Package app wires configuration, infrastructure, services, and transport
// into a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	red "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sweetworks/sweetshop-api/internal/core/port"
	"github.com/sweetworks/sweetshop-api/internal/infra/config"
	"github.com/sweetworks/sweetshop-api/internal/infra/database"
	kafkainfra "github.com/sweetworks/sweetshop-api/internal/infra/kafka"
	"github.com/sweetworks/sweetshop-api/internal/infra/logger"
	redisinfra "github.com/sweetworks/sweetshop-api/internal/infra/redis"
	"github.com/sweetworks/sweetshop-api/internal/infra/security"
	postgresrepo "github.com/sweetworks/sweetshop-api/internal/repository/postgres"
	redisrepo "github.com/sweetworks/sweetshop-api/internal/repository/redis"
	"github.com/sweetworks/sweetshop-api/internal/transport/http/middleware"
	"github.com/sweetworks/sweetshop-api/internal/transport/http/routes"
	"github.com/sweetworks/sweetshop-api/internal/usecase"
)

// Application owns the process-level resources and the HTTP engine.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *red.Client
	producer *kafkainfra.Producer
	cleanup  *usecase.CleanupService
}

type redisChecker struct {
	client *red.Client
}

func (r redisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// New builds the application graph.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := redisinfra.NewClient(ctx, cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	codec, err := security.NewTokenCodec(cfg.JWT.Secret, cfg.App.Name, cfg.JWT.AccessTokenTTL)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	hasher := security.NewArgon2Hasher(cfg.Argon2)

	repos := postgresrepo.NewRepositories(pool)
	revocationCache := redisrepo.NewRevocationCache(redisClient, cfg.Redis.RevocationPrefix)
	rateLimitStore := redisrepo.NewRateLimitStore(redisClient, "sweetshop:ratelimit")

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	refreshService := usecase.NewRefreshTokenService(repos.Tokens, cfg.JWT.RefreshTokenTTL, cfg.Sessions.MaxActive, log)
	blacklistService := usecase.NewBlacklistService(repos.Tokens, revocationCache, eventPublisher, log)
	authService := usecase.NewAuthService(repos.Users, hasher, codec, refreshService, blacklistService, eventPublisher, log)
	sweetService := usecase.NewSweetService(repos.Sweets, repos.Purchases, eventPublisher, log)
	cleanupService := usecase.NewCleanupService(refreshService, blacklistService, cfg.Cleanup.Interval, cfg.Cleanup.BatchSize, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	rateLimiter := middleware.NewRateLimiter(
		rateLimitStore,
		cfg.RateLimit.LoginMaxAttempts,
		cfg.RateLimit.WindowDuration,
		log,
	)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Metrics:     metrics,
		RateLimiter: rateLimiter,
		Database:    pool,
		Cache:       redisChecker{client: redisClient},
		Services: routes.ServiceSet{
			Auth:   authService,
			Sweets: sweetService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		cleanup:  cleanupService,
	}, nil
}

// Run starts the cleanup loop and the HTTP server, blocking until the
// context is canceled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.pool.Close()
	defer func() {
		_ = a.redis.Close()
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	go a.cleanup.Run(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting sweetshop API",
			zap.String("address", srv.Addr),
			zap.String("env", a.cfg.App.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("run http server: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}
