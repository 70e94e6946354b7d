package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"subtrack/internal/amqp"
	"subtrack/internal/config"
	applog "subtrack/internal/log"
	"subtrack/internal/services"
	"subtrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting reminder-worker", applog.FieldOperation, applog.OpStartup)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Reminders flow through AMQP and are delivered by the notifier.
	// Without a broker the worker still rolls periods and expires
	// subscriptions, it just skips reminders.
	var publisher services.ReminderPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, reminders disabled", applog.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized, reminders will be published")
		}
	} else {
		logger.Info("AMQP disabled, reminders will not be published")
	}

	processor := services.NewExpiryProcessor(repo, publisher, cfg.ReminderBatchSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runOnce := func(now time.Time) {
		stats, err := processor.ProcessDue(ctx, now)
		if err != nil {
			logger.Error("Processing failed", applog.FieldError, err)
			return
		}
		logger.Info("Processing complete",
			"checked", stats.Checked,
			"rolled_over", stats.RolledOver,
			"expired", stats.Expired,
			"reminded", stats.Reminded)
	}

	// Run once on startup so a restart never misses the daily slot.
	logger.Info("Running initial subscription processing...")
	runOnce(time.Now())

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReminderCron, func() { runOnce(time.Now()) }); err != nil {
		logger.Error("Invalid reminder schedule", applog.FieldError, err, "cron", cfg.ReminderCron)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Reminder schedule active",
		"cron", cfg.ReminderCron,
		"batch_size", cfg.ReminderBatchSize,
		"sqlite_db", cfg.SQLiteDBPath)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String(), applog.FieldOperation, applog.OpShutdown)
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
		logger.Info("Reminder-worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
