package core

// UnknownCategory is the reserved bucket for subscriptions whose
// category id is missing or unmapped.
const UnknownCategory = "unknown"

// CategoryTotal is the per-category slice of a breakdown.
type CategoryTotal struct {
	Count       int
	MonthlyCost float64
}

// AggregateStats is the dashboard summary computed over a list of
// subscriptions. It is a derived value object, recomputed on every call
// and never persisted.
type AggregateStats struct {
	ActiveCount  int
	MonthlyCost  float64
	YearlyCost   float64
	ExpiringSoon []Subscription
	ByCategory   map[string]CategoryTotal
}

// EndDateOrStart returns the date a subscription's current period ends,
// falling back to the period start when no end date is set. The
// fallback makes an open-ended subscription look like it expires
// immediately; it is kept as a deliberate, named policy so dashboards
// never show an indefinite "days left" (see DESIGN.md).
func (s Subscription) EndDateOrStart() Date {
	if !s.EndDate.IsZero() {
		return s.EndDate
	}
	return s.StartDate
}

// DaysLeft returns the whole days until the subscription's period ends,
// clamped to zero so a past end date never displays as negative.
func (s Subscription) DaysLeft(today Date) int {
	left := DaysBetween(today, s.EndDateOrStart())
	if left < 0 {
		return 0
	}
	return left
}

// MonthlyCost returns this subscription's monthly-equivalent cost.
// Fixed-duration subscriptions have no cycle and normalize to zero.
func (s Subscription) MonthlyCost() float64 {
	return NormalizeToMonthly(s.Cost.Amount(), s.BillingCycle)
}

// MonthlyCost sums the monthly-equivalent cost of all active
// subscriptions. Amounts are assumed to share one currency unit.
func MonthlyCost(subs []Subscription) float64 {
	var total float64
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		total += NormalizeToMonthly(s.Cost.Amount(), s.BillingCycle)
	}
	return total
}

// ExpiringSoon returns the active subscriptions whose period ends within
// thresholdDays of today. Subscriptions whose period already ended are
// excluded: they are either expired or due for rollover, not "soon".
func ExpiringSoon(subs []Subscription, today Date, thresholdDays int) []Subscription {
	var out []Subscription
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		left := DaysBetween(today, s.EndDateOrStart())
		if left > 0 && left <= thresholdDays {
			out = append(out, s)
		}
	}
	return out
}

// CategoryBreakdown groups active subscriptions by category id with a
// count and summed monthly-equivalent cost per category. Missing
// category ids land in the UnknownCategory bucket.
func CategoryBreakdown(subs []Subscription) map[string]CategoryTotal {
	breakdown := make(map[string]CategoryTotal)
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		key := s.CategoryID
		if key == "" {
			key = UnknownCategory
		}
		t := breakdown[key]
		t.Count++
		t.MonthlyCost += NormalizeToMonthly(s.Cost.Amount(), s.BillingCycle)
		breakdown[key] = t
	}
	return breakdown
}

// Summarize computes the full dashboard summary in one pass over a
// snapshot. Yearly cost is a projection (monthly * 12), not a sum of
// actual annual billings.
func Summarize(subs []Subscription, today Date, expiringWithinDays int) AggregateStats {
	stats := AggregateStats{
		ByCategory: make(map[string]CategoryTotal),
	}
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		stats.ActiveCount++

		monthly := NormalizeToMonthly(s.Cost.Amount(), s.BillingCycle)
		stats.MonthlyCost += monthly

		key := s.CategoryID
		if key == "" {
			key = UnknownCategory
		}
		t := stats.ByCategory[key]
		t.Count++
		t.MonthlyCost += monthly
		stats.ByCategory[key] = t

		if left := DaysBetween(today, s.EndDateOrStart()); left > 0 && left <= expiringWithinDays {
			stats.ExpiringSoon = append(stats.ExpiringSoon, s)
		}
	}
	stats.YearlyCost = stats.MonthlyCost * 12
	return stats
}
