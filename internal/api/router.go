package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"

	"github.com/userhub/accounts-service/internal/api/handler"
	"github.com/userhub/accounts-service/internal/api/middleware"
	"github.com/userhub/accounts-service/internal/core/service"
	"github.com/userhub/accounts-service/internal/infrastructure/config"
	mongodb "github.com/userhub/accounts-service/internal/infrastructure/db/mongo"
	redisdb "github.com/userhub/accounts-service/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("accounts"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	denylist := redisdb.NewTokenDenylist(rdb)
	tokenService := service.NewTokenService(service.TokenConfig{
		Secrets:        cfg.JWT.SigningKeys(),
		CurrentVersion: cfg.JWT.KeyVersion,
		TTL:            cfg.JWT.TokenTTL,
	}, denylist)
	userService := service.NewUserService(userRepo, tokenService, log)
	userHandler := handler.NewUserHandler(userService, tokenService)
	requireAuth := middleware.Auth(tokenService, userRepo)

	// Credential endpoints are unauthenticated, so they get a per-IP limiter.
	credentialLimiter := echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.RateLimit.RPS),
			Burst:     cfg.RateLimit.Burst,
			ExpiresIn: 3 * time.Minute,
		}),
	})

	// --- User routes ---
	users := e.Group("/v1/users")
	users.POST("", userHandler.Register, credentialLimiter)
	users.POST("/login", userHandler.Login, credentialLimiter)
	users.POST("/logout", userHandler.Logout, requireAuth)
	users.GET("/me", userHandler.Me, requireAuth)
	users.PUT("/:id", userHandler.Update, requireAuth)
	users.DELETE("/:id", userHandler.Delete, requireAuth)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
