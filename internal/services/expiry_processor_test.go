package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
)

type fakeWorkerStore struct {
	subs        []core.Subscription
	listErr     error
	periods     map[string]core.Period
	expired     []string
	reminded    map[string]core.Date
	updateErr   error
	expireErr   error
	remindedErr error
}

func newFakeWorkerStore(subs ...core.Subscription) *fakeWorkerStore {
	return &fakeWorkerStore{
		subs:     subs,
		periods:  make(map[string]core.Period),
		reminded: make(map[string]core.Date),
	}
}

func (f *fakeWorkerStore) ListActiveSubscriptions(_ context.Context, _ int) ([]core.Subscription, error) {
	return f.subs, f.listErr
}

func (f *fakeWorkerStore) UpdatePeriod(_ context.Context, id string, period core.Period) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.periods[id] = period
	return nil
}

func (f *fakeWorkerStore) MarkExpired(_ context.Context, id string) error {
	if f.expireErr != nil {
		return f.expireErr
	}
	f.expired = append(f.expired, id)
	return nil
}

func (f *fakeWorkerStore) MarkReminded(_ context.Context, id string, on core.Date) error {
	if f.remindedErr != nil {
		return f.remindedErr
	}
	f.reminded[id] = on
	return nil
}

type fakePublisher struct {
	published []*amqp.ReminderMessage
	err       error
}

func (f *fakePublisher) PublishReminder(_ context.Context, msg *amqp.ReminderMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

func TestExpiryProcessor_RollsRecurringSubscription(t *testing.T) {
	now := time.Date(2024, 4, 16, 8, 0, 0, 0, time.UTC)
	sub := core.Subscription{
		ID:           "sub-1",
		UserID:       "user-1",
		Name:         "Netflix",
		FirstPayment: core.NewDate(2024, 1, 15),
		StartDate:    core.NewDate(2024, 3, 15),
		EndDate:      core.NewDate(2024, 4, 15),
		BillingCycle: core.Monthly,
		Recurring:    true,
		Status:       core.StatusActive,
		ReminderDays: 7,
	}

	store := newFakeWorkerStore(sub)
	processor := NewExpiryProcessor(store, &fakePublisher{}, 100)

	stats, err := processor.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDue() unexpected error: %v", err)
	}

	if stats.RolledOver != 1 {
		t.Errorf("RolledOver = %d, want 1", stats.RolledOver)
	}
	period, ok := store.periods["sub-1"]
	if !ok {
		t.Fatal("expected period update for sub-1")
	}
	wantStart := core.NewDate(2024, 4, 15)
	wantEnd := core.NewDate(2024, 5, 15)
	if !period.Start.Equal(wantStart.Time) || !period.End.Equal(wantEnd.Time) {
		t.Errorf("rolled period = [%s, %s], want [%s, %s]",
			period.Start, period.End, wantStart, wantEnd)
	}
}

func TestExpiryProcessor_SkipsRolloverOnPeriodEndDay(t *testing.T) {
	// On the end day itself the recomputed period still ends today, so
	// nothing should be written.
	now := time.Date(2024, 4, 15, 8, 0, 0, 0, time.UTC)
	sub := core.Subscription{
		ID:           "sub-1",
		Name:         "Netflix",
		FirstPayment: core.NewDate(2024, 1, 15),
		StartDate:    core.NewDate(2024, 3, 15),
		EndDate:      core.NewDate(2024, 4, 15),
		BillingCycle: core.Monthly,
		Recurring:    true,
		Status:       core.StatusActive,
	}

	store := newFakeWorkerStore(sub)
	processor := NewExpiryProcessor(store, &fakePublisher{}, 100)

	stats, err := processor.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDue() unexpected error: %v", err)
	}
	if stats.RolledOver != 0 {
		t.Errorf("RolledOver = %d, want 0", stats.RolledOver)
	}
	if len(store.periods) != 0 {
		t.Errorf("expected no period updates, got %d", len(store.periods))
	}
}

func TestExpiryProcessor_ExpiresOneTimeSubscription(t *testing.T) {
	now := time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)
	sub := core.Subscription{
		ID:           "sub-2",
		Name:         "Annual Pass",
		FirstPayment: core.NewDate(2023, 4, 1),
		StartDate:    core.NewDate(2023, 4, 1),
		EndDate:      core.NewDate(2024, 4, 1),
		Duration:     core.Years1,
		Recurring:    false,
		Status:       core.StatusActive,
	}

	store := newFakeWorkerStore(sub)
	processor := NewExpiryProcessor(store, &fakePublisher{}, 100)

	stats, err := processor.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDue() unexpected error: %v", err)
	}
	if stats.Expired != 1 {
		t.Errorf("Expired = %d, want 1", stats.Expired)
	}
	if len(store.expired) != 1 || store.expired[0] != "sub-2" {
		t.Errorf("expired IDs = %v, want [sub-2]", store.expired)
	}
}

func TestExpiryProcessor_PublishesReminderInsideWindow(t *testing.T) {
	now := time.Date(2024, 4, 10, 8, 0, 0, 0, time.UTC)
	sub := core.Subscription{
		ID:           "sub-3",
		UserID:       "user-1",
		Name:         "Spotify",
		FirstPayment: core.NewDate(2024, 1, 15),
		StartDate:    core.NewDate(2024, 3, 15),
		EndDate:      core.NewDate(2024, 4, 15),
		BillingCycle: core.Monthly,
		Cost:         core.Money{Cents: 999},
		Recurring:    true,
		Status:       core.StatusActive,
		ReminderDays: 7,
	}

	store := newFakeWorkerStore(sub)
	publisher := &fakePublisher{}
	processor := NewExpiryProcessor(store, publisher, 100)

	stats, err := processor.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDue() unexpected error: %v", err)
	}
	if stats.Reminded != 1 {
		t.Fatalf("Reminded = %d, want 1", stats.Reminded)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("published = %d messages, want 1", len(publisher.published))
	}
	msg := publisher.published[0]
	if msg.SubscriptionID != "sub-3" {
		t.Errorf("SubscriptionID = %q, want %q", msg.SubscriptionID, "sub-3")
	}
	if msg.DaysLeft != 5 {
		t.Errorf("DaysLeft = %d, want 5", msg.DaysLeft)
	}
	if msg.CostCents != 999 {
		t.Errorf("CostCents = %d, want 999", msg.CostCents)
	}
	if _, ok := store.reminded["sub-3"]; !ok {
		t.Error("expected reminder date to be recorded")
	}
}

func TestExpiryProcessor_SkipsAlreadyRemindedPeriod(t *testing.T) {
	now := time.Date(2024, 4, 12, 8, 0, 0, 0, time.UTC)
	sub := core.Subscription{
		ID:           "sub-4",
		Name:         "Spotify",
		FirstPayment: core.NewDate(2024, 1, 15),
		StartDate:    core.NewDate(2024, 3, 15),
		EndDate:      core.NewDate(2024, 4, 15),
		BillingCycle: core.Monthly,
		Recurring:    true,
		Status:       core.StatusActive,
		ReminderDays: 7,
		LastReminded: core.NewDate(2024, 4, 10),
	}

	store := newFakeWorkerStore(sub)
	publisher := &fakePublisher{}
	processor := NewExpiryProcessor(store, publisher, 100)

	stats, err := processor.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDue() unexpected error: %v", err)
	}
	if stats.Reminded != 0 {
		t.Errorf("Reminded = %d, want 0", stats.Reminded)
	}
	if len(publisher.published) != 0 {
		t.Errorf("published = %d messages, want 0", len(publisher.published))
	}
}

func TestExpiryProcessor_RemindsAgainInNewPeriod(t *testing.T) {
	// A reminder from the previous period predates the current period
	// start, so it no longer suppresses the next one.
	now := time.Date(2024, 4, 12, 8, 0, 0, 0, time.UTC)
	sub := core.Subscription{
		ID:           "sub-5",
		Name:         "Spotify",
		FirstPayment: core.NewDate(2024, 1, 15),
		StartDate:    core.NewDate(2024, 3, 15),
		EndDate:      core.NewDate(2024, 4, 15),
		BillingCycle: core.Monthly,
		Recurring:    true,
		Status:       core.StatusActive,
		ReminderDays: 7,
		LastReminded: core.NewDate(2024, 3, 10),
	}

	store := newFakeWorkerStore(sub)
	publisher := &fakePublisher{}
	processor := NewExpiryProcessor(store, publisher, 100)

	stats, err := processor.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDue() unexpected error: %v", err)
	}
	if stats.Reminded != 1 {
		t.Errorf("Reminded = %d, want 1", stats.Reminded)
	}
}

func TestExpiryProcessor_ListError(t *testing.T) {
	store := newFakeWorkerStore()
	store.listErr = errors.New("db is down")
	processor := NewExpiryProcessor(store, &fakePublisher{}, 100)

	_, err := processor.ProcessDue(context.Background(), time.Now())
	if err == nil {
		t.Fatal("expected error when listing fails")
	}
}

func TestExpiryProcessor_NilPublisherSkipsReminders(t *testing.T) {
	now := time.Date(2024, 4, 10, 8, 0, 0, 0, time.UTC)
	sub := core.Subscription{
		ID:           "sub-6",
		Name:         "Spotify",
		FirstPayment: core.NewDate(2024, 1, 15),
		StartDate:    core.NewDate(2024, 3, 15),
		EndDate:      core.NewDate(2024, 4, 15),
		BillingCycle: core.Monthly,
		Recurring:    true,
		Status:       core.StatusActive,
		ReminderDays: 7,
	}

	store := newFakeWorkerStore(sub)
	processor := NewExpiryProcessor(store, nil, 100)

	stats, err := processor.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDue() unexpected error: %v", err)
	}
	if stats.Reminded != 0 {
		t.Errorf("Reminded = %d, want 0", stats.Reminded)
	}
}
