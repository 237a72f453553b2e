// Package main runs the HTTP API server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sitebooks/backend/config"
	"github.com/sitebooks/backend/internal/auth"
	"github.com/sitebooks/backend/internal/clients"
	"github.com/sitebooks/backend/internal/middleware"
	"github.com/sitebooks/backend/internal/sessions"
	"github.com/sitebooks/backend/internal/tenants"
	"github.com/sitebooks/backend/pkg/database"
	"github.com/sitebooks/backend/pkg/redis"
	"github.com/sitebooks/backend/pkg/response"
	"github.com/sitebooks/backend/pkg/utils"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	accessTTL := time.Duration(cfg.JWT.AccessTTLMinutes) * time.Minute
	refreshTTL := time.Duration(cfg.JWT.RefreshTTLHours) * time.Hour
	tokenService := auth.NewJWTService(cfg.JWT.Secret, accessTTL, refreshTTL)

	// Auth and tenancy
	authRepo := auth.NewRepository(pool)
	sessionRegistry := sessions.NewRegistry(pool, rdb, refreshTTL, logger)
	tenantRepo := tenants.NewRepository(pool)
	resolver := tenants.NewResolver(tenantRepo)
	providers := auth.NewVerifiers(cfg.OAuth.EnabledProviders)

	authService := auth.NewService(authRepo, sessionRegistry, resolver, tokenService, providers, logger)
	authHandler := auth.NewHandler(authService, logger)
	tenantHandler := tenants.NewHandler(tenantRepo)

	// Business records
	clientRepo := clients.NewRepository(pool)
	clientHandler := clients.NewHandler(clientRepo, logger)

	// Reserved platform tenant and its principal admin
	if cfg.Platform.AdminEmail != "" {
		hash, err := utils.HashPassword(cfg.Platform.AdminPassword)
		if err != nil {
			logger.Fatal("hash platform admin password", zap.Error(err))
		}
		if err := authRepo.EnsurePlatform(ctx, cfg.Platform.CompanyName, cfg.Platform.AdminEmail,
			hash, cfg.Platform.AdminFirstName, cfg.Platform.AdminLastName); err != nil {
			logger.Fatal("platform bootstrap", zap.Error(err))
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public). Logout verifies its own token so a replayed logout for
	// an already-revoked session still answers 204.
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/social", authHandler.SocialLogin)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Protected API (bearer access token with a live session)
	api := router.Group("")
	api.Use(middleware.Auth(authHandler.Authenticate))
	{
		api.GET("/auth/me", authHandler.Me)
		api.POST("/auth/switch-company", authHandler.SwitchCompany)

		// Tenant catalog (platform staff only)
		api.GET("/tenants", middleware.RequirePlatformAdmin(), tenantHandler.List)

		// Business records, scoped to the session's active company
		api.GET("/clients", clientHandler.List)
		api.POST("/clients", clientHandler.Create)
		api.GET("/clients/:id", clientHandler.Get)
		api.PATCH("/clients/:id", clientHandler.Update)
		api.DELETE("/clients/:id", clientHandler.Delete)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
