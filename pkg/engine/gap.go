package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// GapStatus classifies an envelope balance against its expected accrual.
type GapStatus string

const (
	Ahead   GapStatus = "ahead"
	OnTrack GapStatus = "on_track"
	Behind  GapStatus = "behind"
)

// GapInput is a snapshot of one envelope.
type GapInput struct {
	CurrentBalance decimal.Decimal
	OpeningBalance decimal.Decimal
	IdealPerCycle  decimal.Decimal
	BillCycleStart *time.Time // nil when the envelope has no bill cycle
	Now            time.Time
	PayCycle       Frequency
}

// GapResult compares the actual balance of an envelope to the balance it should have.
type GapResult struct {
	ExpectedBalance  decimal.Decimal `json:"expectedBalance"`
	ActualBalance    decimal.Decimal `json:"actualBalance"`
	Gap              decimal.Decimal `json:"gap"`
	PayCyclesElapsed int64           `json:"payCyclesElapsed"`
	Status           GapStatus       `json:"status"`
}

// AnalyzeGap computes how far ahead of or behind its expected accrual an envelope is.
//
// Without a bill cycle start, the expected balance is reported as zero and the
// status as on track. This does not mean the envelope is actually on track.
func AnalyzeGap(in GapInput) (GapResult, error) {
	if err := in.PayCycle.Validate(); err != nil {
		return GapResult{}, err
	}

	if err := nonNegative("ideal per cycle amount", in.IdealPerCycle); err != nil {
		return GapResult{}, err
	}

	actual := in.CurrentBalance.Add(in.OpeningBalance)

	if in.BillCycleStart == nil {
		return GapResult{
			ExpectedBalance: decimal.Zero,
			ActualBalance:   actual,
			Gap:             actual,
			Status:          OnTrack,
		}, nil
	}

	elapsed := ElapsedCycles(*in.BillCycleStart, in.Now, in.PayCycle)
	expected := in.OpeningBalance.Add(in.IdealPerCycle.Mul(decimal.NewFromInt(elapsed)))
	gap := actual.Sub(expected)

	return GapResult{
		ExpectedBalance:  RoundCents(expected),
		ActualBalance:    actual,
		Gap:              RoundCents(gap),
		PayCyclesElapsed: elapsed,
		Status:           classify(gap),
	}, nil
}

// ElapsedCycles returns the number of whole pay cycles between start and now.
// It is never negative.
func ElapsedCycles(start, now time.Time, payCycle Frequency) int64 {
	length := payCycle.DaysPerCycle()
	if !length.IsPositive() {
		return 0
	}

	days := DaysBetween(start, now)
	if days <= 0 {
		return 0
	}

	return decimal.NewFromInt(days).Div(length).Floor().IntPart()
}

// DaysBetween returns the number of calendar days from the date of a to the date of b.
func DaysBetween(a, b time.Time) int64 {
	return int64(civil(b).Sub(civil(a)).Hours() / 24)
}

// civil returns midnight UTC of the calendar day of t in its own location.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func classify(gap decimal.Decimal) GapStatus {
	switch {
	case gap.GreaterThan(Epsilon):
		return Ahead
	case gap.LessThan(Epsilon.Neg()):
		return Behind
	default:
		return OnTrack
	}
}
