package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/meta-shift/internal/app"
	"github.com/phambaophuc/meta-shift/internal/config"
	"github.com/phambaophuc/meta-shift/internal/http/handlers"
	"github.com/phambaophuc/meta-shift/internal/http/routes"
	"github.com/phambaophuc/meta-shift/internal/services/queue"
	"github.com/phambaophuc/meta-shift/internal/services/storage"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize services
	services := app.NewServices(cfg, logger)

	store, err := storage.NewStorageService(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}

	jobs, err := queue.NewQueueService(cfg.Storage.QueueSize, services.NewOrchestrator, store, logger)
	if err != nil {
		logger.Fatal("Failed to initialize queue service", zap.Error(err))
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if err := jobs.StartWorker(workerCtx, 1); err != nil {
		logger.Fatal("Failed to start queue worker", zap.Error(err))
	}

	// Expired batch results are dropped on a schedule
	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc(cfg.Storage.CleanupSchedule, func() {
		if n := store.CleanupCache(context.Background()); n > 0 {
			logger.Info("Expired batch results removed", zap.Int("count", n))
		}
	}); err != nil {
		logger.Fatal("Invalid cleanup schedule", zap.String("schedule", cfg.Storage.CleanupSchedule), zap.Error(err))
	}
	scheduler.Start()

	// Initialize handlers
	shiftHandler := handlers.NewShiftHandler(services.Templates, services.NewOrchestrator, jobs, store, services.Toolkit, logger, cfg)

	router := routes.NewRouter(shiftHandler, cfg.Server.MaxUploadSize, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			zap.String("addr", server.Addr),
			zap.Int("templates", services.Templates.Len()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	<-scheduler.Stop().Done()
	if err := jobs.Close(); err != nil {
		logger.Error("Failed to close queue", zap.Error(err))
	}

	logger.Info("Server exited")
}
