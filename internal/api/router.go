package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/retailops/account-system/internal/api/handler"
	"github.com/retailops/account-system/internal/api/middleware"
	"github.com/retailops/account-system/internal/core/domain"
	"github.com/retailops/account-system/internal/core/ports"
	"github.com/retailops/account-system/internal/core/service"
	"github.com/retailops/account-system/internal/infrastructure/config"
	"github.com/retailops/account-system/internal/infrastructure/credentials"
	mongodb "github.com/retailops/account-system/internal/infrastructure/db/mongo"
	redisdb "github.com/retailops/account-system/internal/infrastructure/db/redis"
	"github.com/retailops/account-system/internal/infrastructure/token"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, audit ports.AuditRecorder, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("account"))

	// --- Dependencies ---
	accountRepo := mongodb.NewAccountRepository(db)
	grantRepo := mongodb.NewRoleGrantRepository(db)
	credStore := mongodb.NewCredentialStore(db)
	lockout := redisdb.NewLockoutStore(rdb, cfg.Lockout.Window)
	verifier := credentials.NewBcryptVerifier(credStore, lockout, cfg.Lockout.MaxAttempts, log)
	issuer := token.NewJWTIssuer(cfg.JWTSecret, "account-system")
	authService := service.NewAuthService(accountRepo, grantRepo, verifier, issuer, audit, cfg.AccessTokenTTL, log)

	authHandler := handler.NewAuthHandler(authService)
	accountHandler := handler.NewAccountHandler(authService)
	authMW := middleware.Auth(cfg.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin, domain.RoleSuperAdmin)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.POST("/auth/logout", authHandler.Logout, authMW)
	e.PUT("/auth/password", authHandler.ChangePassword, authMW)

	// --- Account lifecycle (admin only) ---
	e.GET("/accounts/availability", accountHandler.Availability)
	e.DELETE("/accounts/:id", accountHandler.Delete, authMW, adminOnly)
	e.POST("/accounts/:id/restore", accountHandler.Restore, authMW, adminOnly)
	e.PUT("/accounts/:id/role", accountHandler.ChangeRole, authMW, adminOnly)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
