package planner

import (
	"time"

	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/shopspring/decimal"
)

// RegularNeed returns what an envelope needs per pay cycle.
//
// Envelopes that income streams allocate to need what those streams provide per
// pay cycle. Otherwise the target is converted from the envelope's frequency to
// the pay cycle. Envelopes without a frequency but with a due date need the rest
// of their target spread evenly over the cycles until it is due.
func RegularNeed(envelope models.Envelope, streams []models.IncomeStream, payCycle engine.Frequency, now time.Time) (decimal.Decimal, error) {
	ideal, err := engine.IdealPerCycle(models.Shares(streams, envelope.ID), payCycle)
	if err != nil {
		return decimal.Zero, err
	}

	if ideal.IsPositive() {
		return ideal, nil
	}

	if envelope.Frequency != engine.None {
		return engine.Convert(envelope.TargetAmount, envelope.Frequency, payCycle), nil
	}

	outstanding := envelope.TargetAmount.Sub(envelope.CurrentBalance)
	if !outstanding.IsPositive() || envelope.Due().IsZero() {
		return decimal.Zero, nil
	}

	opening, err := engine.OpeningBalance(engine.OpeningBalanceInput{
		TargetAmount:       outstanding,
		DueDate:            envelope.Due(),
		PerCycleAllocation: decimal.Zero,
		PayCycle:           payCycle,
		Now:                now,
	})
	if err != nil {
		return decimal.Zero, err
	}

	return outstanding.DivRound(decimal.NewFromInt(opening.CyclesUntilDue), 8), nil
}
