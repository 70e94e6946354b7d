// Package services provides business logic and orchestration on top of
// the pure core: period resolution, subscription CRUD workflows and the
// expiry/reminder pass.
//
// This file implements the Strategy Pattern for period resolution. The
// data model historically supports two kinds of subscriptions: recurring
// ones driven by a billing cycle, and fixed-term ones driven by a
// duration. Each policy has its own resolver.
package services

import (
	"errors"

	"subtrack/internal/core"
)

// ErrIndeterminatePeriod is returned when a period cannot be computed
// from the subscription's dates, e.g. a missing anchor date from a
// partially-filled form.
var ErrIndeterminatePeriod = errors.New("billing period cannot be determined")

// PeriodResolver is the strategy interface for computing the current
// billing period of a subscription.
type PeriodResolver interface {
	// Resolve returns the date range the subscription's next charge
	// covers, given an injected reference date.
	Resolve(s core.Subscription, today core.Date) (core.Period, error)
}

// BillingCycleResolver resolves periods for recurring subscriptions
// anchored on the first payment's day-of-month.
type BillingCycleResolver struct{}

func (BillingCycleResolver) Resolve(s core.Subscription, today core.Date) (core.Period, error) {
	p, ok := core.ComputeCurrentPeriod(s.FirstPayment, s.BillingCycle, today)
	if !ok {
		return core.Period{}, ErrIndeterminatePeriod
	}
	return p, nil
}

// FixedDurationResolver resolves periods for fixed-term subscriptions:
// the term starts at the first payment and ends one duration later,
// with no rollover.
type FixedDurationResolver struct{}

func (FixedDurationResolver) Resolve(s core.Subscription, _ core.Date) (core.Period, error) {
	if s.FirstPayment.IsZero() {
		return core.Period{}, ErrIndeterminatePeriod
	}
	end, err := core.ComputeEndDate(s.FirstPayment, s.Duration)
	if err != nil {
		return core.Period{}, err
	}
	return core.Period{Start: core.DateOf(s.FirstPayment.Time), End: end}, nil
}

// ResolverFor selects the period policy for a subscription by which
// fields are populated. A billing cycle wins over a duration when both
// are present, matching how records were written historically.
func ResolverFor(s core.Subscription) (PeriodResolver, error) {
	switch {
	case s.BillingCycle != "":
		return BillingCycleResolver{}, nil
	case s.Duration != "":
		return FixedDurationResolver{}, nil
	}
	return nil, core.ErrNoPeriodPolicy
}
