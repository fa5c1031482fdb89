// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/api"
	"github.com/andresuchdata/walletroast/backend-go/internal/boot"
	"github.com/andresuchdata/walletroast/backend-go/internal/cache"
	"github.com/andresuchdata/walletroast/backend-go/internal/cleanup"
	"github.com/andresuchdata/walletroast/backend-go/internal/config"
	"github.com/andresuchdata/walletroast/backend-go/internal/repository"
	"github.com/andresuchdata/walletroast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/walletroast/backend-go/internal/service"
	"github.com/andresuchdata/walletroast/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.LogFormat == "json" {
		logger.UseJSON()
	}
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Share records live in postgres when enabled, otherwise in memory
	var shareRepo repository.ShareRepository
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		shareRepo = postgres.NewShareRepository(db)
	} else {
		logger.Log.Warn().Msg("Database disabled, share records are kept in memory")
		shareRepo = repository.NewMemoryShareRepository()
	}

	shareCache, err := cache.NewShareCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Share cache unavailable, continuing without it")
		shareCache = cache.NewNoopShareCache()
	}

	objects, err := boot.ProvideObjectStorage(cfg.Storage)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}

	pipeline, err := boot.ProvidePipeline(cfg, objects)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize media pipeline")
	}

	clients, err := boot.ProvideClientFactory(cfg.Twitter)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize twitter client")
	}

	// Initialize services
	shareService := service.NewShareService(pipeline, clients, shareRepo, shareCache, cfg.Share.MaxConcurrent)

	var scheduler *cleanup.Scheduler
	if cfg.Cleanup.Enabled {
		job := cleanup.NewJob(shareService, objects, cfg.Storage.Prefix, cfg.Cleanup.Retention(), logger.With("cleanup"))
		scheduler, err = cleanup.NewScheduler(cfg.Cleanup.Schedule, job, logger.With("cleanup"))
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to schedule cleanup")
		}
		scheduler.Start()
		logger.Log.Info().Str("schedule", cfg.Cleanup.Schedule).Msg("Cleanup scheduled")
	}

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{ShareService: shareService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// Uploads may sit in the processing poller, so give them longer than a plain request
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
