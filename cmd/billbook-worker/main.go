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
	"golang.org/x/sync/errgroup"

	"billbook/internal/amqp"
	"billbook/internal/backup/google"
	"billbook/internal/config"
	"billbook/internal/storage"
	"billbook/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting billbook-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("Backup worker needs GOOGLE_SPREADSHEET_ID to run")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sheets, err := google.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	backupWorker := worker.NewBackupWorker(repo, repo, sheets)

	if cfg.BackupOnStartup {
		logger.Info("Running startup backup of all records")
		if err := backupWorker.BackupAll(ctx); err != nil {
			logger.Error("Startup backup incomplete", "error", err)
			// Keep going: the queue will retry individual records.
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	// Consume until shutdown, reconnecting when the broker drops us.
	g.Go(func() error {
		for {
			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				logger.Error("AMQP connect failed, retrying", "error", err, "delay", cfg.ReconnectDelay)
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-time.After(cfg.ReconnectDelay):
					continue
				}
			}

			err = client.ConsumeBackup(gctx, func(msg *amqp.BackupMessage) error {
				return backupWorker.HandleMessage(gctx, msg)
			})
			client.Close()
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Error("Consumption stopped, reconnecting", "error", err, "delay", cfg.ReconnectDelay)
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-time.After(cfg.ReconnectDelay):
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
