package engine

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// WaterfallEnvelope is the part of an envelope the waterfall needs.
type WaterfallEnvelope struct {
	EnvelopeID          uuid.UUID
	Priority            Priority
	RegularAmountNeeded decimal.Decimal // What the envelope needs per pay cycle
	CreditCardHolding   bool            // Holds money for credit card payments
}

// WaterfallInput is a single income to distribute over envelopes.
type WaterfallInput struct {
	Income    decimal.Decimal
	Envelopes []WaterfallEnvelope // Caller order is kept within each tier
	CCFirst   bool                // Fund credit card holding envelopes before all tiers
}

// Allocation is the amount one envelope receives.
type Allocation struct {
	EnvelopeID uuid.UUID       `json:"envelopeId"`
	Amount     decimal.Decimal `json:"amount"`
	IsRegular  bool            `json:"isRegular"` // false for credit card holding payments funded ahead of the tiers
	Priority   Priority        `json:"priority"`
}

// AllocationResult is the outcome of a waterfall pass.
//
// The sum of all allocation amounts plus the surplus equals the income exactly.
type AllocationResult struct {
	Allocations  []Allocation    `json:"allocations"`
	TotalRegular decimal.Decimal `json:"totalRegular"`
	Surplus      decimal.Decimal `json:"surplus"`
}

// Total returns the sum of all allocations.
func (r AllocationResult) Total() decimal.Decimal {
	total := decimal.Zero
	for _, a := range r.Allocations {
		total = total.Add(a.Amount)
	}

	return total
}

// Waterfall distributes an income over envelopes in priority order.
//
// With CCFirst set, credit card holding envelopes are funded first. Then the
// essential, important and discretionary tiers are funded in that order, each
// envelope receiving the smaller of what remains and what it needs. What is
// left is surplus and is never assigned to an envelope.
//
// Amounts are computed at full precision and rounded to cents at the end. Any
// rounding drift is added to the largest rounded allocation, the first one on ties.
// No allocation is ever negative.
func Waterfall(in WaterfallInput) (AllocationResult, error) {
	if err := nonNegative("income amount", in.Income); err != nil {
		return AllocationResult{}, err
	}

	var holding []WaterfallEnvelope
	tiers := make(map[Priority][]WaterfallEnvelope, len(Tiers))

	for _, e := range in.Envelopes {
		if err := e.Priority.Validate(); err != nil {
			return AllocationResult{}, err
		}

		if err := nonNegative("regular amount needed", e.RegularAmountNeeded); err != nil {
			return AllocationResult{}, err
		}

		if in.CCFirst && e.CreditCardHolding {
			holding = append(holding, e)
			continue
		}

		tiers[e.Priority] = append(tiers[e.Priority], e)
	}

	remaining := in.Income
	var raw []Allocation

	fund := func(e WaterfallEnvelope, regular bool) {
		amount := decimal.Min(remaining, e.RegularAmountNeeded)
		if !amount.IsPositive() {
			return
		}

		remaining = remaining.Sub(amount)
		raw = append(raw, Allocation{
			EnvelopeID: e.EnvelopeID,
			Amount:     amount,
			IsRegular:  regular,
			Priority:   e.Priority,
		})
	}

	for _, e := range holding {
		fund(e, false)
	}

	for _, tier := range Tiers {
		for _, e := range tiers[tier] {
			fund(e, true)
		}
	}

	return roundResult(in.Income, remaining, raw), nil
}

// roundResult rounds all allocations and the surplus to cents and moves the
// rounding drift to the largest allocation.
//
// When many allocations were rounded up, the drift can exceed the largest
// allocation. It is then taken from the allocations in order of size and
// allocations reduced to zero are dropped. Drift that no allocation can
// absorb goes to the surplus.
func roundResult(income, remaining decimal.Decimal, raw []Allocation) AllocationResult {
	result := AllocationResult{
		Allocations:  make([]Allocation, 0, len(raw)),
		Surplus:      RoundCents(remaining),
		TotalRegular: decimal.Zero,
	}

	sum := decimal.Zero
	for _, a := range raw {
		a.Amount = RoundCents(a.Amount)
		if a.Amount.IsZero() {
			continue
		}

		sum = sum.Add(a.Amount)
		result.Allocations = append(result.Allocations, a)
	}

	drift := income.Sub(sum).Sub(result.Surplus)
	if drift.IsPositive() && len(result.Allocations) > 0 {
		largest := byAmount(result.Allocations)[0]
		result.Allocations[largest].Amount = result.Allocations[largest].Amount.Add(drift)
		drift = decimal.Zero
	}

	if drift.IsNegative() {
		// Allocations never go below zero, the next largest takes the rest
		for _, i := range byAmount(result.Allocations) {
			take := decimal.Min(result.Allocations[i].Amount, drift.Neg())
			result.Allocations[i].Amount = result.Allocations[i].Amount.Sub(take)
			drift = drift.Add(take)
			if drift.IsZero() {
				break
			}
		}

		result.Allocations = slices.DeleteFunc(result.Allocations, func(a Allocation) bool {
			return a.Amount.IsZero()
		})
	}

	result.Surplus = result.Surplus.Add(drift)

	for _, a := range result.Allocations {
		if a.IsRegular {
			result.TotalRegular = result.TotalRegular.Add(a.Amount)
		}
	}

	return result
}

// byAmount returns the indexes of allocations from the largest amount to the
// smallest. Equal amounts keep their order.
func byAmount(allocations []Allocation) []int {
	indexes := make([]int, len(allocations))
	for i := range indexes {
		indexes[i] = i
	}

	slices.SortStableFunc(indexes, func(a, b int) int {
		return allocations[b].Amount.Cmp(allocations[a].Amount)
	})

	return indexes
}
