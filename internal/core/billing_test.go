package core

import "testing"

func TestNormalizeToMonthly(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		cycle  BillingCycle
		want   float64
	}{
		{"monthly unchanged", 12, Monthly, 12},
		{"quarterly divided by 3", 30, Quarterly, 10},
		{"annual divided by 12", 120, Annual, 10},
		{"biennial divided by 24", 240, Biennial, 10},
		{"triennial divided by 36", 360, Triennial, 10},
		{"one-time contributes nothing", 50, OneTime, 0},
		{"unrecognized cycle is zero, not an error", 99, BillingCycle("weekly"), 0},
		{"zero amount stays zero", 0, Monthly, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeToMonthly(tt.amount, tt.cycle)
			if got != tt.want {
				t.Errorf("NormalizeToMonthly(%v, %q) = %v, want %v", tt.amount, tt.cycle, got, tt.want)
			}
			if got < 0 {
				t.Errorf("NormalizeToMonthly must never be negative, got %v", got)
			}
		})
	}
}

func TestComputeCurrentPeriod(t *testing.T) {
	tests := []struct {
		name      string
		anchor    Date
		cycle     BillingCycle
		today     Date
		wantStart Date
		wantEnd   Date
		wantOK    bool
	}{
		{
			name:      "monthly, today past billing day - rolls forward",
			anchor:    NewDate(2024, 1, 15),
			cycle:     Monthly,
			today:     NewDate(2024, 3, 20),
			wantStart: NewDate(2024, 3, 15),
			wantEnd:   NewDate(2024, 4, 15),
			wantOK:    true,
		},
		{
			name:      "monthly, today before billing day - current period",
			anchor:    NewDate(2024, 1, 15),
			cycle:     Monthly,
			today:     NewDate(2024, 3, 10),
			wantStart: NewDate(2024, 2, 15),
			wantEnd:   NewDate(2024, 3, 15),
			wantOK:    true,
		},
		{
			name:      "monthly, today exactly on billing day - no roll",
			anchor:    NewDate(2024, 1, 15),
			cycle:     Monthly,
			today:     NewDate(2024, 3, 15),
			wantStart: NewDate(2024, 2, 15),
			wantEnd:   NewDate(2024, 3, 15),
			wantOK:    true,
		},
		{
			name:      "anchor day 31 clamps in February",
			anchor:    NewDate(2024, 1, 31),
			cycle:     Monthly,
			today:     NewDate(2024, 2, 10),
			wantStart: NewDate(2024, 1, 29),
			wantEnd:   NewDate(2024, 2, 29),
			wantOK:    true,
		},
		{
			name:      "anchor day 31 clamps period start in leap February",
			anchor:    NewDate(2024, 1, 31),
			cycle:     Monthly,
			today:     NewDate(2024, 3, 30),
			wantStart: NewDate(2024, 2, 29),
			wantEnd:   NewDate(2024, 3, 31),
			wantOK:    true,
		},
		{
			name:      "quarterly spans three months",
			anchor:    NewDate(2024, 1, 5),
			cycle:     Quarterly,
			today:     NewDate(2024, 6, 20),
			wantStart: NewDate(2024, 6, 5),
			wantEnd:   NewDate(2024, 9, 5),
			wantOK:    true,
		},
		{
			name:      "annual before billing day",
			anchor:    NewDate(2020, 7, 20),
			cycle:     Annual,
			today:     NewDate(2024, 6, 15),
			wantStart: NewDate(2023, 6, 20),
			wantEnd:   NewDate(2024, 6, 20),
			wantOK:    true,
		},
		{
			name:      "annual candidate uses today's month, only the day comes from the anchor",
			anchor:    NewDate(2020, 7, 1),
			cycle:     Annual,
			today:     NewDate(2024, 6, 15),
			wantStart: NewDate(2024, 6, 1),
			wantEnd:   NewDate(2025, 6, 1),
			wantOK:    true,
		},
		{
			name:      "biennial rolls two years forward",
			anchor:    NewDate(2022, 3, 10),
			cycle:     Biennial,
			today:     NewDate(2024, 3, 20),
			wantStart: NewDate(2024, 3, 10),
			wantEnd:   NewDate(2026, 3, 10),
			wantOK:    true,
		},
		{
			name:      "one-time collapses to the anchor day",
			anchor:    NewDate(2024, 5, 2),
			cycle:     OneTime,
			today:     NewDate(2024, 8, 9),
			wantStart: NewDate(2024, 5, 2),
			wantEnd:   NewDate(2024, 5, 2),
			wantOK:    true,
		},
		{
			name:   "zero anchor - indeterminate, not a panic",
			anchor: Date{},
			cycle:  Monthly,
			today:  NewDate(2024, 3, 10),
			wantOK: false,
		},
		{
			name:   "unknown cycle - indeterminate",
			anchor: NewDate(2024, 1, 15),
			cycle:  BillingCycle("fortnightly"),
			today:  NewDate(2024, 3, 10),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ComputeCurrentPeriod(tt.anchor, tt.cycle, tt.today)
			if ok != tt.wantOK {
				t.Fatalf("ComputeCurrentPeriod() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !got.Start.Equal(tt.wantStart.Time) {
				t.Errorf("period start = %s, want %s", got.Start, tt.wantStart)
			}
			if !got.End.Equal(tt.wantEnd.Time) {
				t.Errorf("period end = %s, want %s", got.End, tt.wantEnd)
			}
		})
	}
}

func TestComputeEndDate(t *testing.T) {
	start := NewDate(2024, 1, 31)

	tests := []struct {
		name     string
		start    Date
		duration FixedDuration
		want     Date
		wantErr  bool
	}{
		{"7 days", start, Days7, NewDate(2024, 2, 7), false},
		{"30 days", start, Days30, NewDate(2024, 3, 1), false},
		{"45 days", start, Days45, NewDate(2024, 3, 16), false},
		{"60 days", start, Days60, NewDate(2024, 3, 31), false},
		{"90 days", start, Days90, NewDate(2024, 4, 30), false},
		{"6 months clamps to end of July", start, Months6, NewDate(2024, 7, 31), false},
		{"1 year", start, Years1, NewDate(2025, 1, 31), false},
		{"2 years", start, Years2, NewDate(2026, 1, 31), false},
		{"3 years", start, Years3, NewDate(2027, 1, 31), false},
		{"4 years", start, Years4, NewDate(2028, 1, 31), false},
		{"5 years", start, Years5, NewDate(2029, 1, 31), false},
		{"month-end clamp on shorter month", NewDate(2024, 8, 31), Months6, NewDate(2025, 2, 28), false},
		{"unknown duration errors", start, FixedDuration("10y"), Date{}, true},
		{"zero start errors", Date{}, Days7, Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeEndDate(tt.start, tt.duration)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ComputeEndDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !got.Equal(tt.want.Time) {
				t.Errorf("ComputeEndDate(%s, %q) = %s, want %s", tt.start, tt.duration, got, tt.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name     string
		from, to Date
		want     int
	}{
		{"same day", NewDate(2024, 3, 10), NewDate(2024, 3, 10), 0},
		{"ten days ahead", NewDate(2024, 3, 10), NewDate(2024, 3, 20), 10},
		{"negative when to is in the past", NewDate(2024, 3, 10), NewDate(2024, 3, 5), -5},
		{"across leap day", NewDate(2024, 2, 28), NewDate(2024, 3, 1), 2},
		{"across year boundary", NewDate(2023, 12, 30), NewDate(2024, 1, 2), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.from, tt.to); got != tt.want {
				t.Errorf("DaysBetween(%s, %s) = %d, want %d", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
