package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"subtrack/internal/amqp"
	"subtrack/internal/config"
	applog "subtrack/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentNotifier})
	applog.SetDefault(logger)

	logger.Info("Starting notifier", applog.FieldOperation, applog.OpStartup)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notifier")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeReminders(gctx, func(msg *amqp.ReminderMessage) error {
			return deliver(gctx, logger, msg)
		})
	})

	logger.Info("Consuming reminder messages", "queue", cfg.AMQPQueue)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Notifier stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Notifier stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}

// deliver hands a reminder to the notification channel. Today that is
// the structured log stream, which downstream tooling tails.
func deliver(ctx context.Context, logger *applog.Logger, msg *amqp.ReminderMessage) error {
	logger.InfoContext(ctx, "Renewal reminder",
		applog.FieldUserID, msg.UserID,
		applog.FieldSubscriptionID, msg.SubscriptionID,
		applog.FieldSubscription, msg.Name,
		applog.FieldPeriodEnd, msg.PeriodEnd,
		applog.FieldDaysLeft, msg.DaysLeft,
		applog.FieldCostCents, msg.CostCents,
		applog.FieldBillingCycle, msg.BillingCycle)
	return nil
}
