package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// DueDate is either an absolute date or a recurring day of the month.
// When both are set, the absolute date wins.
type DueDate struct {
	Date       *time.Time
	DayOfMonth int // 1-31, 0 when unset
}

// IsZero reports whether no due date is set.
func (d DueDate) IsZero() bool {
	return d.Date == nil && d.DayOfMonth == 0
}

// Resolve returns the date the due date refers to, seen from now.
//
// A day of the month resolves to its next occurrence on or after the day of now,
// rolling over to the next month if it has already passed. Days beyond the end
// of a month resolve to the last day of that month.
func (d DueDate) Resolve(now time.Time) (time.Time, error) {
	if d.Date != nil {
		return *d.Date, nil
	}

	if d.DayOfMonth < 1 || d.DayOfMonth > 31 {
		return time.Time{}, invalid("due date", "day of month must be between 1 and 31, got %d", d.DayOfMonth)
	}

	year, month, day := now.Date()
	if d.DayOfMonth < day {
		month++
	}

	return dayInMonth(year, month, d.DayOfMonth, now.Location()), nil
}

// dayInMonth returns the day of the month, clamped to the last day of that month.
func dayInMonth(year int, month time.Month, day int, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}

	return first.AddDate(0, 0, day-1)
}

// OpeningBalanceInput describes a target to be met by a due date.
type OpeningBalanceInput struct {
	TargetAmount       decimal.Decimal
	DueDate            DueDate
	PerCycleAllocation decimal.Decimal
	PayCycle           Frequency
	Now                time.Time
}

// OpeningBalanceResult is how much money an envelope needs up front to meet its target.
type OpeningBalanceResult struct {
	TargetDate            time.Time       `json:"targetDate"`
	DaysUntilDue          int64           `json:"daysUntilDue"`
	CyclesUntilDue        int64           `json:"cyclesUntilDue"`
	ProjectedAccumulation decimal.Decimal `json:"projectedAccumulation"`
	OpeningBalanceNeeded  decimal.Decimal `json:"openingBalanceNeeded"`
	IsFullyFunded         bool            `json:"isFullyFunded"`
}

// OpeningBalance computes the part of a target that future accrual will not
// cover before the due date.
//
// There is always at least one cycle until the due date. A pay cycle without a
// cycle length counts as exactly one cycle. Targets of zero or less are fully
// funded without further calculation.
func OpeningBalance(in OpeningBalanceInput) (OpeningBalanceResult, error) {
	if !in.TargetAmount.IsPositive() {
		return OpeningBalanceResult{
			ProjectedAccumulation: decimal.Zero,
			OpeningBalanceNeeded:  decimal.Zero,
			IsFullyFunded:         true,
		}, nil
	}

	if err := in.PayCycle.Validate(); err != nil {
		return OpeningBalanceResult{}, err
	}

	if err := nonNegative("per cycle allocation", in.PerCycleAllocation); err != nil {
		return OpeningBalanceResult{}, err
	}

	if in.DueDate.IsZero() {
		return OpeningBalanceResult{}, invalid("due date", "must be set for a positive target")
	}

	target, err := in.DueDate.Resolve(in.Now)
	if err != nil {
		return OpeningBalanceResult{}, err
	}

	days := DaysBetween(in.Now, target)
	if timeOfDay(target) > timeOfDay(in.Now) {
		// A partly elapsed day counts as a whole one
		days++
	}
	if days < 0 {
		days = 0
	}

	cycles := int64(1)
	if length := in.PayCycle.DaysPerCycle(); length.IsPositive() {
		c := decimal.NewFromInt(days).Div(length).Ceil().IntPart()
		if c > cycles {
			cycles = c
		}
	}

	projected := in.PerCycleAllocation.Mul(decimal.NewFromInt(cycles))
	needed := decimal.Max(decimal.Zero, in.TargetAmount.Sub(projected))

	return OpeningBalanceResult{
		TargetDate:            target,
		DaysUntilDue:          days,
		CyclesUntilDue:        cycles,
		ProjectedAccumulation: RoundCents(projected),
		OpeningBalanceNeeded:  RoundCents(needed),
		IsFullyFunded:         needed.IsZero(),
	}, nil
}

// timeOfDay returns the wall clock time elapsed since midnight of the day of t.
func timeOfDay(t time.Time) time.Duration {
	h, m, sec := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second + time.Duration(t.Nanosecond())
}
