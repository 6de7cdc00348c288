package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mymoney/internal/amqp"
	"mymoney/internal/config"
	"mymoney/internal/drive"
	"mymoney/internal/storage"
	"mymoney/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting mymoney-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driveClient, err := drive.NewFromEnv(ctx, cfg.DriveFolderID)
	if err != nil {
		logger.Error("Failed to initialize Drive client", "error", err)
		os.Exit(1)
	}
	logger.Info("Drive client initialized", "folder_id", cfg.DriveFolderID)

	// The broker may still be starting when the worker comes up, so retry
	// the connection instead of failing immediately.
	amqpClient, err := amqp.NewClientWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 10)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, driveClient, cfg.SyncBatchSize)

	// On startup, upload any backups that might have been missed while
	// the worker was down.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
		// Don't exit - continue with normal operation
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := amqpClient.ConsumeBackupCreated(runCtx, syncWorker.HandleBackupCreated); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	// Periodic catch-up pass for any backups the event stream missed.
	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if err := syncWorker.ProcessPendingBackups(runCtx); err != nil {
					logger.Error("Periodic sync failed", "error", err)
				}
			}
		}
	}()

	<-runCtx.Done()
	logger.Info("Shutting down worker...")

	// Give in-flight uploads a moment to finish.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
