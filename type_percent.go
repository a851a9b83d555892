package papertrade

import "github.com/shopspring/decimal"

// Percent is a percentage rounded to two decimal places, e.g. 1.25 for 1.25%.
type Percent struct {
	value decimal.Decimal
}

// NewPercent rounds value to two decimal places.
func NewPercent(value decimal.Decimal) Percent { return Percent{value: value.Round(2)} }

func (p Percent) Decimal() decimal.Decimal { return p.value }
func (p Percent) Equal(q Percent) bool     { return p.value.Equal(q.value) }
func (p Percent) IsZero() bool             { return p.value.IsZero() }

func (p Percent) String() string {
	return p.value.StringFixed(2) + "%"
}

// SignedString returns the percentage with an explicit sign, or "-" when zero.
func (p Percent) SignedString() string {
	if p.value.IsZero() {
		return "-"
	}
	if p.value.IsPositive() {
		return "+" + p.String()
	}
	return p.String()
}
