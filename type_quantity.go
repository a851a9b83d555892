package papertrade

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// quantityPlaces is the number of decimal places a Quantity may carry.
const quantityPlaces = 4

// divisionPrecision is the number of digits kept by intermediate divisions
// (ratios and averages) before the result is rounded to its own precision.
const divisionPrecision = 28

// Quantity is a non-negative number of shares with at most four decimal places.
type Quantity struct {
	value decimal.Decimal
}

// NewQuantity returns value as a Quantity, or an error if it is negative or has
// more than four decimal places.
func NewQuantity(value decimal.Decimal) (Quantity, error) {
	if value.IsNegative() {
		return Quantity{}, fmt.Errorf("%w: %s is negative", ErrInvalidQuantity, value)
	}
	if !value.Equal(value.Truncate(quantityPlaces)) {
		return Quantity{}, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidQuantity, value, quantityPlaces)
	}
	return Quantity{value: value}, nil
}

// ParseQuantity parses a decimal string like "10.5" into a Quantity.
func ParseQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("%w: %q is not a finite decimal", ErrInvalidQuantity, s)
	}
	return NewQuantity(d)
}

// MustQuantity is like ParseQuantity but panics on invalid input.
func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func quantize(d decimal.Decimal) decimal.Decimal { return d.Round(quantityPlaces) }

func (q Quantity) Decimal() decimal.Decimal      { return q.value }
func (q Quantity) Equal(p Quantity) bool         { return q.value.Equal(p.value) }
func (q Quantity) Compare(p Quantity) int        { return q.value.Cmp(p.value) }
func (q Quantity) LessThan(p Quantity) bool      { return q.value.LessThan(p.value) }
func (q Quantity) GreaterThan(p Quantity) bool   { return q.value.GreaterThan(p.value) }
func (q Quantity) IsPositive() bool              { return q.value.IsPositive() }
func (q Quantity) IsZero() bool                  { return q.value.IsZero() }
func (q Quantity) String() string                { return q.value.String() }
func (q Quantity) Add(p Quantity) Quantity       { return Quantity{value: quantize(q.value.Add(p.value))} }

// Sub returns q-p. Shares cannot go negative: it fails when p is greater than q.
func (q Quantity) Sub(p Quantity) (Quantity, error) {
	if q.value.LessThan(p.value) {
		return Quantity{}, fmt.Errorf("%w: %s - %s is negative", ErrInvalidQuantity, q, p)
	}
	return Quantity{value: quantize(q.value.Sub(p.value))}, nil
}

// Mul returns q×factor quantized to four decimal places. It fails if factor is negative.
func (q Quantity) Mul(factor decimal.Decimal) (Quantity, error) {
	if factor.IsNegative() {
		return Quantity{}, fmt.Errorf("%w: cannot multiply %s by negative factor %s", ErrInvalidQuantity, q, factor)
	}
	return Quantity{value: quantize(q.value.Mul(factor))}, nil
}

// ratio returns q/p with divisionPrecision digits; p must not be zero.
func (q Quantity) ratio(p Quantity) decimal.Decimal {
	return q.value.DivRound(p.value, divisionPrecision)
}
