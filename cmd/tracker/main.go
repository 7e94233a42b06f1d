package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/HeadAech/ExpenseTracker/internal/amqp"
	"github.com/HeadAech/ExpenseTracker/internal/charts"
	"github.com/HeadAech/ExpenseTracker/internal/config"
	"github.com/HeadAech/ExpenseTracker/internal/events"
	apphttp "github.com/HeadAech/ExpenseTracker/internal/http"
	"github.com/HeadAech/ExpenseTracker/internal/log"
	"github.com/HeadAech/ExpenseTracker/internal/services"
	"github.com/HeadAech/ExpenseTracker/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{Level: cfg.LogLevel, Component: log.ComponentApp})

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting tracker", "port", cfg.Port, "db_path", cfg.SQLiteDBPath)

	repo, err := storage.New(cfg.SQLiteDBPath, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	hub := events.NewHub()

	// The AMQP broker is optional. Expense writes succeed locally either way;
	// the worker catches up from replayed messages when the broker returns.
	var publisher services.Publisher
	if cfg.SyncEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without sheet sync", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	} else {
		logger.Info("Sheet sync disabled - no AMQP_URL provided")
	}

	expenses := services.NewExpenseService(repo, publisher, hub, logger)
	tags := services.NewTagService(repo, hub, logger)
	stats := services.NewStatsService(repo, logger)
	history := services.NewHistory(repo, logger, cfg.HistoryPageSize)

	srv := apphttp.NewServer(":"+cfg.Port, expenses, tags, stats, history,
		charts.NewGenerator(cfg.Currency), logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		history.Watch(ctx, hub)
		return nil
	})
	g.Go(func() error {
		stats.Watch(ctx, hub)
		return nil
	})

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
