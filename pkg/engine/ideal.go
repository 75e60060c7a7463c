package engine

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IncomeShare is the amount one income stream contributes to an envelope every
// time the income occurs.
type IncomeShare struct {
	IncomeStreamID uuid.UUID
	Amount         decimal.Decimal
	Frequency      Frequency
}

// IdealPerCycle returns how much should flow into an envelope per household pay
// cycle, given the contributions of all income streams to it.
//
// Every share is annualized, the annual amounts are summed and the sum is
// converted to the pay cycle. The result does not depend on the order of the shares.
// An empty list yields zero.
func IdealPerCycle(shares []IncomeShare, payCycle Frequency) (decimal.Decimal, error) {
	if err := payCycle.Validate(); err != nil {
		return decimal.Zero, err
	}

	annual := decimal.Zero
	for _, s := range shares {
		if err := s.Frequency.Validate(); err != nil {
			return decimal.Zero, err
		}

		if err := nonNegative("allocation amount", s.Amount); err != nil {
			return decimal.Zero, err
		}

		annual = annual.Add(Annualize(s.Amount, s.Frequency))
	}

	return PerCycle(annual, payCycle), nil
}
