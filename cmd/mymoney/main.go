package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"mymoney/internal/amqp"
	"mymoney/internal/backup"
	"mymoney/internal/config"
	"mymoney/internal/drive"
	apphttp "mymoney/internal/http"
	"mymoney/internal/services"
	"mymoney/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

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

	docsDir, err := backup.ResolveDocumentsDir(cfg.DocumentsDir)
	if err != nil {
		logger.Error("Failed to prepare documents directory", "error", err, "dir", cfg.DocumentsDir)
		os.Exit(1)
	}
	codec := backup.New(backup.DiskStore{}, docsDir)

	// AMQP is optional: without it backups still land on disk, they just
	// aren't pushed to the sync worker.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	// Sharing is optional too; when Drive credentials are present shared
	// backups are uploaded there.
	var sharer backup.Sharer
	if cfg.DriveFolderID != "" {
		driveClient, err := drive.NewFromEnv(context.Background(), cfg.DriveFolderID)
		if err != nil {
			logger.Error("Failed to initialize Drive client", "error", err)
			os.Exit(1)
		}
		sharer = driveClient
		logger.Info("Drive share target initialized", "folder_id", cfg.DriveFolderID)
	} else {
		logger.Info("Drive sharing disabled - no DRIVE_FOLDER_ID provided")
	}

	svc := services.NewFinanceService(repo, codec, amqpClient, sharer, docsDir)
	defer svc.Close()

	srv := apphttp.NewServer(":"+cfg.Port, svc)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting mymoney server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		logger.Info("Shutdown signal received")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
