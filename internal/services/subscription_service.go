package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subtrack/internal/core"

	"github.com/google/uuid"
)

// DefaultReminderDays is applied when a subscription request leaves the
// reminder window unset.
const DefaultReminderDays = 7

// SubscriptionStore is the data-access port the service depends on.
// Keeping it an interface means the calculations never touch an ambient
// database client and stay independently testable.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, s core.Subscription) error
	GetSubscription(ctx context.Context, userID, id string) (core.Subscription, error)
	ListSubscriptions(ctx context.Context, userID string) ([]core.Subscription, error)
	UpdateSubscription(ctx context.Context, s core.Subscription) error
	CancelSubscription(ctx context.Context, userID, id string, on core.Date) error
	DeleteSubscription(ctx context.Context, userID, id string) error
	ListCategories(ctx context.Context) ([]core.Category, error)
}

// SubscriptionService orchestrates validation, period computation and
// persistence for subscriptions.
type SubscriptionService struct {
	store SubscriptionStore
	now   func() time.Time
}

func NewSubscriptionService(store SubscriptionStore) *SubscriptionService {
	return &SubscriptionService{
		store: store,
		now:   time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *SubscriptionService) WithClock(now func() time.Time) *SubscriptionService {
	s.now = now
	return s
}

// Create validates a new subscription, computes its current period and
// saves it. Defaults: status active, reminder window of 7 days, and the
// recurring flag derived from the billing cycle.
func (s *SubscriptionService) Create(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	now := s.now()
	today := core.DateOf(now)

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.Status == "" {
		sub.Status = core.StatusActive
	}
	if sub.ReminderDays == 0 {
		sub.ReminderDays = DefaultReminderDays
	}
	sub.Recurring = sub.BillingCycle != "" && sub.BillingCycle != core.OneTime
	sub.CreatedAt = now
	sub.UpdatedAt = now

	if err := s.applyPeriod(&sub, today); err != nil {
		return core.Subscription{}, err
	}
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, fmt.Errorf("validate subscription: %w", err)
	}

	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription created",
		"subscription_id", sub.ID,
		"user_id", sub.UserID,
		"name", sub.Name,
		"period_start", sub.StartDate.String(),
		"period_end", sub.EndDate.String())

	return sub, nil
}

// Get returns one of the user's subscriptions.
func (s *SubscriptionService) Get(ctx context.Context, userID, id string) (core.Subscription, error) {
	return s.store.GetSubscription(ctx, userID, id)
}

// List returns the user's subscriptions, soonest period end first.
func (s *SubscriptionService) List(ctx context.Context, userID string) ([]core.Subscription, error) {
	return s.store.ListSubscriptions(ctx, userID)
}

// Update revalidates an edited subscription, recomputes its period from
// the possibly-changed anchor or policy, and saves it.
func (s *SubscriptionService) Update(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	now := s.now()
	today := core.DateOf(now)

	existing, err := s.store.GetSubscription(ctx, sub.UserID, sub.ID)
	if err != nil {
		return core.Subscription{}, err
	}

	sub.CreatedAt = existing.CreatedAt
	sub.Status = existing.Status
	sub.DateCanceled = existing.DateCanceled
	if sub.ReminderDays == 0 {
		sub.ReminderDays = existing.ReminderDays
	}
	sub.Recurring = sub.BillingCycle != "" && sub.BillingCycle != core.OneTime
	sub.UpdatedAt = now

	if err := s.applyPeriod(&sub, today); err != nil {
		return core.Subscription{}, err
	}
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, fmt.Errorf("validate subscription: %w", err)
	}

	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		return core.Subscription{}, fmt.Errorf("update subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription updated",
		"subscription_id", sub.ID,
		"user_id", sub.UserID,
		"period_start", sub.StartDate.String(),
		"period_end", sub.EndDate.String())

	return sub, nil
}

// Cancel marks a subscription canceled as of today; the row stays for
// history and stops contributing to totals immediately.
func (s *SubscriptionService) Cancel(ctx context.Context, userID, id string) error {
	if err := s.store.CancelSubscription(ctx, userID, id, core.DateOf(s.now())); err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	slog.InfoContext(ctx, "Subscription canceled", "subscription_id", id, "user_id", userID)
	return nil
}

// Delete removes a subscription entirely.
func (s *SubscriptionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteSubscription(ctx, userID, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	slog.InfoContext(ctx, "Subscription deleted", "subscription_id", id, "user_id", userID)
	return nil
}

// Categories returns the category lookup table.
func (s *SubscriptionService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

// Dashboard computes the aggregate view over the user's current
// subscription snapshot.
func (s *SubscriptionService) Dashboard(ctx context.Context, userID string, expiringWithinDays int) (core.AggregateStats, error) {
	subs, err := s.store.ListSubscriptions(ctx, userID)
	if err != nil {
		return core.AggregateStats{}, fmt.Errorf("list subscriptions: %w", err)
	}
	return core.Summarize(subs, core.DateOf(s.now()), expiringWithinDays), nil
}

func (s *SubscriptionService) applyPeriod(sub *core.Subscription, today core.Date) error {
	resolver, err := ResolverFor(*sub)
	if err != nil {
		return err
	}
	period, err := resolver.Resolve(*sub, today)
	if err != nil {
		return fmt.Errorf("resolve period: %w", err)
	}
	sub.StartDate = period.Start
	sub.EndDate = period.End
	return nil
}
