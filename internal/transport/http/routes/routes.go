// Package routes assembles the Gin engine from middleware and handlers.
package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sweetworks/sweetshop-api/internal/infra/config"
	"github.com/sweetworks/sweetshop-api/internal/transport/http/handlers"
	"github.com/sweetworks/sweetshop-api/internal/transport/http/middleware"
	"github.com/sweetworks/sweetshop-api/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth   *usecase.AuthService
	Sweets *usecase.SweetService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Metrics     *middleware.HTTPMetrics
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	Ping(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))

	if deps.Metrics != nil {
		r.Use(deps.Metrics.Instrument())
	}

	authMiddleware := middleware.RequireAuth(deps.Services.Auth)
	adminMiddleware := middleware.RequireAdmin()

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.Ping))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(
			deps.Services.Auth,
			deps.Config.Cookies,
			deps.Config.JWT.AccessTokenTTL,
			deps.Config.JWT.RefreshTokenTTL,
		)

		var loginMiddlewares []gin.HandlerFunc
		if deps.RateLimiter != nil {
			loginMiddlewares = append(loginMiddlewares, deps.RateLimiter.Limit("login"))
		}

		authHandler.RegisterRoutes(api.Group("/auth"), authMiddleware, loginMiddlewares...)

		sweetHandler := handlers.NewSweetHandler(deps.Services.Sweets)

		// Catalog browsing is open; the handler gates purchase and
		// inventory mutations itself.
		sweetHandler.RegisterRoutes(api.Group("/sweets"), authMiddleware, adminMiddleware)

		purchasesGroup := api.Group("/purchases")
		purchasesGroup.Use(authMiddleware)
		sweetHandler.RegisterPurchaseRoutes(purchasesGroup)
	}

	return r
}
