// Package engine implements the budget allocation engine.
//
// All calculators in this package are pure: they operate on caller-supplied
// snapshots, perform no I/O and return immutable results.
package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Frequency is the cadence of an income stream, an envelope target or the household pay cycle.
type Frequency string

const (
	Weekly       Frequency = "weekly"
	Fortnightly  Frequency = "fortnightly"
	TwiceMonthly Frequency = "twice_monthly"
	Monthly      Frequency = "monthly"
	Quarterly    Frequency = "quarterly"
	Annually     Frequency = "annually"
	None         Frequency = "none"
)

// Frequencies lists all known frequencies, most frequent first.
var Frequencies = []Frequency{Weekly, Fortnightly, TwiceMonthly, Monthly, Quarterly, Annually, None}

var daysPerYear = decimal.NewFromInt(365)

// ParseFrequency parses a frequency name. Matching is case insensitive and
// surrounding whitespace is ignored.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if err := f.Validate(); err != nil {
		return "", err
	}

	return f, nil
}

// Validate returns a ValidationError for unknown frequencies.
func (f Frequency) Validate() error {
	switch f {
	case Weekly, Fortnightly, TwiceMonthly, Monthly, Quarterly, Annually, None:
		return nil
	}

	return invalid("frequency", "%q is not a known frequency", string(f))
}

// CyclesPerYear returns how often the frequency occurs in a year. It is 0 for None
// and for unknown frequencies.
func (f Frequency) CyclesPerYear() int64 {
	switch f {
	case Weekly:
		return 52
	case Fortnightly:
		return 26
	case TwiceMonthly:
		return 24
	case Monthly:
		return 12
	case Quarterly:
		return 4
	case Annually:
		return 1
	}

	return 0
}

// DaysPerCycle returns the length of one cycle in days.
//
// Weekly and fortnightly cycles are exact. All other cycles are derived from
// a 365 day year. None has no cycle length and returns zero.
func (f Frequency) DaysPerCycle() decimal.Decimal {
	switch f {
	case Weekly:
		return decimal.NewFromInt(7)
	case Fortnightly:
		return decimal.NewFromInt(14)
	case None:
		return decimal.Zero
	}

	cycles := f.CyclesPerYear()
	if cycles == 0 {
		return decimal.Zero
	}

	return daysPerYear.Div(decimal.NewFromInt(cycles))
}

// Annualize converts a per-occurrence amount to its yearly equivalent.
func Annualize(amount decimal.Decimal, f Frequency) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(f.CyclesPerYear()))
}

// PerCycle converts a yearly amount to the amount for one cycle of the target
// frequency. Targets without cycles yield zero.
func PerCycle(annual decimal.Decimal, target Frequency) decimal.Decimal {
	cycles := target.CyclesPerYear()
	if cycles == 0 {
		return decimal.Zero
	}

	return annual.DivRound(decimal.NewFromInt(cycles), precision)
}

// Convert converts an amount occurring at frequency from to the equivalent amount per cycle of to.
func Convert(amount decimal.Decimal, from, to Frequency) decimal.Decimal {
	return PerCycle(Annualize(amount, from), to)
}
