package core

import (
	"errors"
	"testing"
)

func validSubscription() Subscription {
	return Subscription{
		Name:         "Netflix",
		CategoryID:   "streaming",
		FirstPayment: NewDate(2024, 1, 15),
		Cost:         Money{Cents: 1299},
		BillingCycle: Monthly,
		Recurring:    true,
		Status:       StatusActive,
		ReminderDays: 7,
	}
}

func TestSubscriptionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Subscription)
		wantErr error
	}{
		{"valid subscription", func(s *Subscription) {}, nil},
		{"empty name", func(s *Subscription) { s.Name = "  " }, ErrEmptyName},
		{"empty category", func(s *Subscription) { s.CategoryID = "" }, ErrEmptyCategory},
		{"zero cost", func(s *Subscription) { s.Cost = Money{} }, ErrInvalidAmount},
		{"reminder days too low", func(s *Subscription) { s.ReminderDays = 0 }, ErrInvalidReminder},
		{"reminder days too high", func(s *Subscription) { s.ReminderDays = 31 }, ErrInvalidReminder},
		{"unknown billing cycle", func(s *Subscription) { s.BillingCycle = "weekly" }, ErrInvalidCycle},
		{"unknown status", func(s *Subscription) { s.Status = "paused" }, ErrInvalidStatus},
		{
			"neither cycle nor duration",
			func(s *Subscription) { s.BillingCycle = ""; s.Duration = "" },
			ErrNoPeriodPolicy,
		},
		{
			"fixed duration instead of cycle is fine",
			func(s *Subscription) { s.BillingCycle = ""; s.Duration = Years1; s.Recurring = false },
			nil,
		},
		{
			"unknown duration",
			func(s *Subscription) { s.BillingCycle = ""; s.Duration = "10y" },
			ErrInvalidDuration,
		},
		{
			"missing first payment date",
			func(s *Subscription) { s.FirstPayment = Date{} },
			nil, // wrapped, checked below
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubscription()
			tt.mutate(&s)
			err := s.Validate()
			if tt.name == "missing first payment date" {
				if err == nil {
					t.Fatal("expected error for missing first payment date")
				}
				return
			}
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{"valid date", "2024-03-15", NewDate(2024, 3, 15), false},
		{"empty string is absent", "", Date{}, false},
		{"garbage", "not-a-date", Date{}, true},
		{"wrong layout", "15/03/2024", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && !got.Equal(tt.want.Time) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDateString(t *testing.T) {
	if got := NewDate(2024, 3, 5).String(); got != "2024-03-05" {
		t.Errorf("String() = %q, want 2024-03-05", got)
	}
	if got := (Date{}).String(); got != "" {
		t.Errorf("zero date String() = %q, want empty", got)
	}
}
