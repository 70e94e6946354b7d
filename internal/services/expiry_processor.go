package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
)

// WorkerStore is the slice of the repository the expiry pass needs.
type WorkerStore interface {
	ListActiveSubscriptions(ctx context.Context, limit int) ([]core.Subscription, error)
	UpdatePeriod(ctx context.Context, id string, period core.Period) error
	MarkExpired(ctx context.Context, id string) error
	MarkReminded(ctx context.Context, id string, on core.Date) error
}

// ReminderPublisher sends reminder messages to the notification queue.
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, msg *amqp.ReminderMessage) error
}

// ProcessStats summarizes one expiry pass.
type ProcessStats struct {
	Checked    int
	RolledOver int
	Expired    int
	Reminded   int
}

// ExpiryProcessor walks active subscriptions, rolls recurring ones into
// their next billing period once the current one ends, expires one-time
// ones, and publishes reminders for periods ending inside the reminder
// window.
type ExpiryProcessor struct {
	store     WorkerStore
	publisher ReminderPublisher
	batchSize int
}

func NewExpiryProcessor(store WorkerStore, publisher ReminderPublisher, batchSize int) *ExpiryProcessor {
	return &ExpiryProcessor{
		store:     store,
		publisher: publisher,
		batchSize: batchSize,
	}
}

// ProcessDue runs one pass over active subscriptions.
func (p *ExpiryProcessor) ProcessDue(ctx context.Context, now time.Time) (ProcessStats, error) {
	if p.store == nil {
		return ProcessStats{}, fmt.Errorf("processor not properly initialized")
	}

	today := core.DateOf(now)

	subs, err := p.store.ListActiveSubscriptions(ctx, p.batchSize)
	if err != nil {
		return ProcessStats{}, fmt.Errorf("list active subscriptions: %w", err)
	}

	slog.InfoContext(ctx, "Processing subscription periods",
		"total_active", len(subs),
		"processing_date", today.String())

	stats := ProcessStats{Checked: len(subs)}

	for _, sub := range subs {
		end := sub.EndDateOrStart()
		if end.IsEmpty() {
			continue
		}
		left := sub.DaysLeft(today)

		if left == 0 {
			if sub.Recurring {
				if p.rollover(ctx, sub, today) {
					stats.RolledOver++
				}
			} else {
				if err := p.store.MarkExpired(ctx, sub.ID); err != nil {
					slog.ErrorContext(ctx, "Failed to mark subscription expired",
						"subscription_id", sub.ID,
						"error", err)
					continue
				}
				stats.Expired++
				slog.InfoContext(ctx, "Subscription expired",
					"subscription_id", sub.ID,
					"name", sub.Name)
			}
			continue
		}

		if left > 0 && left <= sub.ReminderDays {
			if p.remind(ctx, sub, today, left) {
				stats.Reminded++
			}
		}
	}

	slog.InfoContext(ctx, "Subscription period processing complete",
		"checked", stats.Checked,
		"rolled_over", stats.RolledOver,
		"expired", stats.Expired,
		"reminded", stats.Reminded)

	return stats, nil
}

// rollover recomputes the current billing period from the anchor and
// persists it when it actually advances. A period that resolves to the
// same end date would loop forever, so it is skipped.
func (p *ExpiryProcessor) rollover(ctx context.Context, sub core.Subscription, today core.Date) bool {
	period, ok := core.ComputeCurrentPeriod(sub.FirstPayment, sub.BillingCycle, today)
	if !ok {
		slog.WarnContext(ctx, "Cannot recompute period for recurring subscription",
			"subscription_id", sub.ID,
			"billing_cycle", string(sub.BillingCycle))
		return false
	}
	if !period.End.After(sub.EndDateOrStart().Time) {
		return false
	}
	if err := p.store.UpdatePeriod(ctx, sub.ID, period); err != nil {
		slog.ErrorContext(ctx, "Failed to roll subscription into next period",
			"subscription_id", sub.ID,
			"error", err)
		return false
	}
	slog.InfoContext(ctx, "Subscription rolled into next period",
		"subscription_id", sub.ID,
		"name", sub.Name,
		"period_start", period.Start.String(),
		"period_end", period.End.String())
	return true
}

// remind publishes one reminder per billing period. The last-reminded
// date is compared against the period start so a new period re-arms the
// reminder.
func (p *ExpiryProcessor) remind(ctx context.Context, sub core.Subscription, today core.Date, daysLeft int) bool {
	if p.publisher == nil {
		slog.WarnContext(ctx, "No reminder publisher configured, skipping reminder",
			"subscription_id", sub.ID)
		return false
	}
	if !sub.LastReminded.IsEmpty() && !sub.LastReminded.Before(sub.StartDate.Time) {
		return false
	}

	msg := amqp.NewReminderMessage(sub.ID, sub.UserID, sub.Name,
		sub.EndDateOrStart().String(), daysLeft, sub.Cost.Cents, string(sub.BillingCycle))
	if err := p.publisher.PublishReminder(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish reminder",
			"subscription_id", sub.ID,
			"error", err)
		return false
	}
	if err := p.store.MarkReminded(ctx, sub.ID, today); err != nil {
		slog.ErrorContext(ctx, "Failed to record reminder date",
			"subscription_id", sub.ID,
			"error", err)
		// Reminder went out, so still count it.
	}
	slog.InfoContext(ctx, "Reminder published",
		"subscription_id", sub.ID,
		"name", sub.Name,
		"days_left", daysLeft)
	return true
}
