// Billing-cycle normalization and period date arithmetic.
//
// All functions here are pure: the reference date ("today") is always an
// argument, never read from the system clock, so results are reproducible.
package core

import "time"

// Period is the current active date range a recurring subscription's
// next charge covers, [Start, End).
type Period struct {
	Start Date
	End   Date
}

// NormalizeToMonthly maps an amount charged per billing cycle to its
// monthly-equivalent rate. One-time charges contribute nothing to the
// recurring burn rate, and unrecognized cycles are treated the same way
// so aggregation stays resilient against upstream schema drift.
// No rounding happens here; callers round at presentation time only.
func NormalizeToMonthly(amount float64, cycle BillingCycle) float64 {
	switch cycle {
	case Monthly:
		return amount
	case Quarterly:
		return amount / 3
	case Annual:
		return amount / 12
	case Biennial:
		return amount / 24
	case Triennial:
		return amount / 36
	default:
		// one-time and unknown cycles
		return 0
	}
}

// cycleMonths returns the length of one billing cycle in calendar months.
func cycleMonths(cycle BillingCycle) (int, bool) {
	switch cycle {
	case Monthly:
		return 1, true
	case Quarterly:
		return 3, true
	case Annual:
		return 12, true
	case Biennial:
		return 24, true
	case Triennial:
		return 36, true
	}
	return 0, false
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year, month int) int {
	// day 0 of the next month is the last day of this month
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampedDate builds a date whose day is clamped to the month's length,
// e.g. (2024, 2, 31) becomes February 29th.
func clampedDate(year, month, day int) Date {
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day)
}

// addMonthsClamped shifts a date by n calendar months (n may be
// negative), clamping the day to the target month's length instead of
// overflowing into the next month.
func addMonthsClamped(d Date, n int) Date {
	months := (d.Year()*12 + d.Month() - 1) + n
	year := months / 12
	month := months%12 + 1
	return clampedDate(year, month, d.Day())
}

// ComputeCurrentPeriod computes the billing period covering today for a
// subscription anchored on anchor's day-of-month. The second return
// value is false when the period is indeterminate (absent anchor or
// unknown cycle); callers must surface that state instead of failing,
// since malformed dates can come from partially-filled forms.
//
// The candidate next billing date is today's month with the anchor's
// day-of-month; when today is strictly past it, billing for this month
// already happened and the date advances by one cycle.
func ComputeCurrentPeriod(anchor Date, cycle BillingCycle, today Date) (Period, bool) {
	if anchor.IsZero() || today.IsZero() {
		return Period{}, false
	}

	if cycle == OneTime {
		d := DateOf(anchor.Time)
		return Period{Start: d, End: d}, true
	}

	months, ok := cycleMonths(cycle)
	if !ok {
		return Period{}, false
	}

	today = DateOf(today.Time)
	next := clampedDate(today.Year(), today.Month(), anchor.Day())
	if today.After(next.Time) {
		next = addMonthsClamped(next, months)
	}

	return Period{Start: addMonthsClamped(next, -months), End: next}, true
}

// ComputeEndDate adds a fixed duration to a start date: straight
// calendar addition with no rollover logic, used for fixed-term
// subscriptions that carry a duration instead of a billing cycle.
func ComputeEndDate(start Date, d FixedDuration) (Date, error) {
	if start.IsZero() {
		return Date{}, ErrInvalidDate
	}
	start = DateOf(start.Time)
	switch d {
	case Days7:
		return DateOf(start.AddDate(0, 0, 7)), nil
	case Days30:
		return DateOf(start.AddDate(0, 0, 30)), nil
	case Days45:
		return DateOf(start.AddDate(0, 0, 45)), nil
	case Days60:
		return DateOf(start.AddDate(0, 0, 60)), nil
	case Days90:
		return DateOf(start.AddDate(0, 0, 90)), nil
	case Months6:
		return addMonthsClamped(start, 6), nil
	case Years1:
		return addMonthsClamped(start, 12), nil
	case Years2:
		return addMonthsClamped(start, 24), nil
	case Years3:
		return addMonthsClamped(start, 36), nil
	case Years4:
		return addMonthsClamped(start, 48), nil
	case Years5:
		return addMonthsClamped(start, 60), nil
	}
	return Date{}, ErrInvalidDuration
}

// DaysBetween returns the number of whole calendar days from one date
// to another. Negative when to is before from.
func DaysBetween(from, to Date) int {
	f := DateOf(from.Time)
	t := DateOf(to.Time)
	return int(t.Sub(f.Time) / (24 * time.Hour))
}
