package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Monthly   BillingCycle = "monthly"
	Quarterly BillingCycle = "quarterly"
	Annual    BillingCycle = "annual"
	Biennial  BillingCycle = "biennial"
	Triennial BillingCycle = "triennial"
	OneTime   BillingCycle = "one-time"
)

const (
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
	StatusExpired  Status = "expired"
)

const (
	Days7   FixedDuration = "7d"
	Days30  FixedDuration = "30d"
	Days45  FixedDuration = "45d"
	Days60  FixedDuration = "60d"
	Days90  FixedDuration = "90d"
	Months6 FixedDuration = "6m"
	Years1  FixedDuration = "1y"
	Years2  FixedDuration = "2y"
	Years3  FixedDuration = "3y"
	Years4  FixedDuration = "4y"
	Years5  FixedDuration = "5y"
)

type (
	// BillingCycle is the recurrence period of a charge.
	BillingCycle string

	// FixedDuration is a fixed subscription term, used instead of a
	// billing cycle when the subscription does not recur on a cycle.
	FixedDuration string

	// Status is the lifecycle state of a subscription. Only active
	// subscriptions contribute to cost totals and expiry classification.
	Status string

	// Date is a calendar date at UTC midnight. The zero value means
	// "absent" for optional dates such as EndDate.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Subscription is a snapshot of a stored subscription row. The core
	// only reads it; all mutation happens in the storage layer.
	Subscription struct {
		ID           string
		UserID       string
		Name         string
		Description  string
		CategoryID   string
		FirstPayment Date // anchor for period computation
		StartDate    Date // current period start
		EndDate      Date // current period end; zero when open-ended
		Duration     FixedDuration
		BillingCycle BillingCycle
		Cost         Money
		Recurring    bool
		Status       Status
		DateCanceled Date
		ReminderDays int
		LastReminded Date
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	Category struct {
		ID          string
		Name        string
		Description string
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidCycle    = errors.New("invalid billing cycle")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrInvalidReminder = errors.New("reminder days must be between 1 and 30")
	ErrNoPeriodPolicy  = errors.New("subscription needs a billing cycle or a fixed duration")
	ErrInvalidStatus   = errors.New("invalid status")
)

// NewDate creates a calendar date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to calendar-date granularity.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero
// (absent) date without an error, matching optional form fields.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty returns true if the date is absent
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String formats the date as YYYY-MM-DD, or "" when absent.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusCanceled, StatusExpired:
		return true
	}
	return false
}

// ValidCycle reports whether c is a known billing cycle.
func ValidCycle(c BillingCycle) bool {
	switch c {
	case Monthly, Quarterly, Annual, Biennial, Triennial, OneTime:
		return true
	}
	return false
}

// ValidDuration reports whether d is a known fixed duration.
func ValidDuration(d FixedDuration) bool {
	switch d {
	case Days7, Days30, Days45, Days60, Days90, Months6, Years1, Years2, Years3, Years4, Years5:
		return true
	}
	return false
}

func (s Subscription) Validate() error {
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyName
	}
	if len(s.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if strings.TrimSpace(s.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if err := s.FirstPayment.Validate(); err != nil {
		return fmt.Errorf("first payment date: %w", err)
	}
	if err := s.Cost.Validate(); err != nil {
		return err
	}
	if s.ReminderDays < 1 || s.ReminderDays > 30 {
		return ErrInvalidReminder
	}
	if s.Status != "" && !ValidStatus(s.Status) {
		return ErrInvalidStatus
	}

	// A subscription follows exactly one period policy: a billing cycle
	// when it recurs, or a fixed duration for fixed-term subscriptions.
	hasCycle := s.BillingCycle != ""
	hasDuration := s.Duration != ""
	switch {
	case !hasCycle && !hasDuration:
		return ErrNoPeriodPolicy
	case hasCycle && !ValidCycle(s.BillingCycle):
		return ErrInvalidCycle
	case hasDuration && !ValidDuration(s.Duration):
		return ErrInvalidDuration
	}

	if !s.EndDate.IsZero() && s.EndDate.Before(s.StartDate.Time) {
		return errors.New("end date must not be before start date")
	}
	return nil
}

// IsActive reports whether the subscription contributes to cost totals
// and expiry classification.
func (s Subscription) IsActive() bool {
	return s.Status == StatusActive
}
