package engine

import "github.com/shopspring/decimal"

const (
	// precision is the number of decimal places kept for intermediate results.
	// It matches the DECIMAL(20,8) storage of amounts.
	precision int32 = 8

	// cents is the number of decimal places of final money amounts.
	cents int32 = 2
)

// Epsilon is the tolerance used to classify balance gaps. A gap of exactly
// ±Epsilon is on track.
var Epsilon = decimal.New(1, -cents)

// RoundCents rounds an amount to whole cents, half away from zero.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(cents)
}

func nonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return invalid(field, "must not be negative, got %s", d)
	}

	return nil
}
