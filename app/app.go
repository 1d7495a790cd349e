// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"go-session-api/config"
	"go-session-api/db"
	"go-session-api/handler"
	"go-session-api/logger"
	"go-session-api/repository"
	"go-session-api/router"
	"go-session-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

// build wires repositories, services and handlers into a router.
// rdb may be nil, in which case the device list is not cached.
func build(database *sql.DB, rdb *redis.Client, cfg *config.Config) http.Handler {
	var cache service.ICacheClient
	if rdb != nil {
		cache = rdb
	}

	userRepo := repository.NewUserRepository(database)
	deviceRepo := repository.NewDeviceRepository(database)

	passwords := service.NewAuthService(cfg.Auth.BcryptCost)
	tokens := service.NewTokenService(cfg.JWT)
	sessions := service.NewSessionService(userRepo, deviceRepo, tokens, passwords, cache, cfg.Redis.DevicesTTL)
	users := service.NewUserService(userRepo, deviceRepo, passwords, cache)

	return router.NewRouter(router.Handlers{
		Health: handler.NewHealthHandler(database),
		Auth:   handler.NewAuthHandler(sessions, users, cfg.JWT.RefreshTTL, cfg.Auth.SecureCookie, cfg.Server.TrustProxy),
		Device: handler.NewDeviceHandler(sessions),
		User:   handler.NewUserHandler(users),
	}, tokens, cfg.Admin)
}

func Run() {
	logger.Init()
	logger.Log.Info("Logger initialized")

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Error loading configuration: %v", err)
	}
	logger.SetLevel(cfg.Log.Level)
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if cfg.Database.AutoMigrate {
		if err := db.RunMigrations(cfg.Database.MigrationsPath, cfg.Database.URL()); err != nil {
			logger.Log.Fatalf("Error running migrations: %v", err)
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = db.ConnectRedis(cfg.Redis)
		if err != nil {
			logger.Log.WithError(err).Warn("Redis unavailable, device list caching disabled")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	r := build(database, rdb, cfg)

	port := cfg.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
