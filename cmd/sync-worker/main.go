package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/HeadAech/ExpenseTracker/internal/amqp"
	"github.com/HeadAech/ExpenseTracker/internal/config"
	"github.com/HeadAech/ExpenseTracker/internal/log"
	gsheet "github.com/HeadAech/ExpenseTracker/internal/sheets/google"
	"github.com/HeadAech/ExpenseTracker/internal/storage"
	"github.com/HeadAech/ExpenseTracker/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{Level: cfg.LogLevel, Component: log.ComponentWorker})

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if !cfg.SyncEnabled() {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	logger.Info("Starting sync worker", "queue", cfg.AMQPQueue)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := storage.New(cfg.SQLiteDBPath, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sheetsClient, err := gsheet.NewFromEnv(ctx, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, sheetsClient, sheetsClient, logger)

	// Push the full local state once at startup so messages missed during
	// downtime do not leave the sheet behind.
	if err := syncWorker.Resync(ctx, repo); err != nil {
		logger.Error("Startup resync failed", log.FieldError, err)
	}

	err = amqpClient.ConsumeExpenseChanges(ctx, func(msg *amqp.ExpenseChangedMessage) error {
		return syncWorker.HandleChangeMessage(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Sync worker stopped gracefully")
}
