package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"music_charts_api/internal/api"
	"music_charts_api/internal/api/middleware"
	"music_charts_api/internal/app/service"
	"music_charts_api/internal/common/security"
	"music_charts_api/internal/domain/repository"
	"music_charts_api/internal/platform/cache"
	"music_charts_api/internal/platform/config"
	"music_charts_api/internal/platform/database"
	"music_charts_api/internal/ws"

	"github.com/charmbracelet/log"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	// 1. Load configuration
	cfg := config.Load()
	logger.Info("configuration loaded")

	// 2. Token codec
	codec := security.NewTokenCodec(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// 3. Credential store (PostgreSQL)
	db, err := database.NewPostgres(cfg)
	if err != nil {
		logger.Fatal("postgres", "error", err)
	}
	defer db.Close()
	logger.Info("credential store connected")

	// 4. Chart store (MongoDB)
	mongoClient, mongoDB, err := database.NewMongo(context.Background(), cfg)
	if err != nil {
		logger.Fatal("mongodb", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	logger.Info("chart store connected")

	// 5. Cache (Redis, backs the rate limiter)
	rdb, err := cache.NewRedis(cfg)
	if err != nil {
		logger.Fatal("redis", "error", err)
	}
	defer rdb.Close()
	logger.Info("cache connected")

	// 6. Repositories
	userRepo := repository.NewPgUserRepository(db)
	chartRepo := repository.NewMongoChartRepository(mongoDB, logger)

	// 7. Services
	authService := service.NewAuthService(userRepo, codec, logger)
	chartService := service.NewChartService(chartRepo, logger)
	feedService := service.NewFeedService(cfg.ITunesBaseURL, logger)

	// 8. WebSocket hub
	hub := ws.NewHub(logger)
	defer hub.Close()

	// 9. Router & HTTP server
	counter := middleware.NewRedisCounter(rdb)
	router := api.NewRouter(cfg, codec, authService, chartService, feedService, hub, counter, logger)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", "error", err)
		}
	}()

	<-stop
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server shutdown failed", "error", err)
	}
	logger.Info("server stopped gracefully")
}
