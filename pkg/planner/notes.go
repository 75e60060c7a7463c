package planner

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// childNote is the note of the child transaction that moves amount into an envelope.
func childNote(tag language.Tag, envelope string, amount decimal.Decimal) string {
	p := message.NewPrinter(tag)
	return p.Sprintf("Auto-allocation: %s to %s", formatAmount(p, amount), envelope)
}

// formatAmount formats amount with two decimal places in the printer's locale.
//
// The whole part is formatted as an integer so that large amounts keep every digit.
// Only the cents pass through a float.
func formatAmount(p *message.Printer, amount decimal.Decimal) string {
	fixed := amount.Abs().Round(2)
	whole := fixed.Truncate(0)
	cents := fixed.Sub(whole).Shift(2).IntPart()

	var s string
	if w := whole.BigInt(); w.IsInt64() {
		s = p.Sprintf("%v", number.Decimal(w.Int64()))
	} else {
		s = w.String()
	}

	zero := p.Sprintf("%v", number.Decimal(0))
	fraction := p.Sprintf("%v", number.Decimal(float64(cents)/100, number.Scale(2)))
	s += strings.TrimPrefix(fraction, zero)

	if amount.Round(2).IsNegative() {
		s = "-" + s
	}

	return s
}
