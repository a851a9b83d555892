package papertrade

import (
	"fmt"
	"regexp"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// moneyPlaces is the number of decimal places a Money amount may carry.
const moneyPlaces = 2

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Money represents a monetary amount in a single currency.
//
// Money values are only created by NewMoney, ParseMoney, MustMoney, Zero or as the
// result of arithmetic on valid values. The zero value of Money has no currency and
// is not a valid amount.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

// ValidateCurrency checks that code is a three letter ISO 4217 currency code.
func ValidateCurrency(code string) error {
	if !currencyPattern.MatchString(code) {
		return fmt.Errorf("%w: %q is not a three letter code", ErrInvalidCurrency, code)
	}
	if money.GetCurrency(code) == nil {
		return fmt.Errorf("%w: %q is not a known currency", ErrInvalidCurrency, code)
	}
	return nil
}

// NewMoney returns amount in currency, or an error if currency is unknown or amount
// has more than two decimal places.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if err := ValidateCurrency(currency); err != nil {
		return Money{}, err
	}
	if !amount.Equal(amount.Truncate(moneyPlaces)) {
		return Money{}, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidMoney, amount, moneyPlaces)
	}
	return Money{value: amount, cur: currency}, nil
}

// ParseMoney parses a decimal string like "150.25" into Money.
func ParseMoney(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q is not a finite decimal", ErrInvalidMoney, amount)
	}
	return NewMoney(d, currency)
}

// MustMoney is like ParseMoney but panics on invalid input.
func MustMoney(amount, currency string) Money {
	m, err := ParseMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount in currency.
func Zero(currency string) (Money, error) {
	return NewMoney(decimal.Zero, currency)
}

// roundMoney is the single rounding rule applied to every computed amount:
// two decimal places, half away from zero.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// String returns the amount formatted for its currency, e.g. "$1,500.00".
func (m Money) String() string {
	cur := money.GetCurrency(m.cur)
	if cur == nil {
		return m.value.StringFixed(moneyPlaces) + " " + m.cur
	}
	dec := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}

// Simple accessors and predicates.

func (m Money) Currency() string        { return m.cur }
func (m Money) Amount() decimal.Decimal { return m.value }
func (m Money) IsZero() bool            { return m.value.IsZero() }
func (m Money) IsPositive() bool        { return m.value.IsPositive() }
func (m Money) IsNegative() bool        { return m.value.IsNegative() }
func (m Money) Neg() Money              { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Abs() Money              { return Money{value: m.value.Abs(), cur: m.cur} }

// Equal reports whether m and n have the same amount and currency.
// Amounts in different currencies are never equal.
func (m Money) Equal(n Money) bool { return m.cur == n.cur && m.value.Equal(n.value) }

// Add returns m+n. It fails if the currencies differ.
func (m Money) Add(n Money) (Money, error) {
	if err := sameCurrency(m, n); err != nil {
		return Money{}, err
	}
	return Money{value: m.value.Add(n.value), cur: m.cur}, nil
}

// Sub returns m-n. It fails if the currencies differ.
func (m Money) Sub(n Money) (Money, error) {
	if err := sameCurrency(m, n); err != nil {
		return Money{}, err
	}
	return Money{value: m.value.Sub(n.value), cur: m.cur}, nil
}

// Mul returns m×factor rounded to two decimal places.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{value: roundMoney(m.value.Mul(factor)), cur: m.cur}
}

// MulQuantity returns m×q rounded to two decimal places, the value of q shares
// priced at m.
func (m Money) MulQuantity(q Quantity) Money { return m.Mul(q.value) }

// Div returns m/divisor rounded to two decimal places. It fails if divisor is zero.
func (m Money) Div(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, fmt.Errorf("%w: division of %s by zero", ErrInvalidMoney, m)
	}
	return Money{value: roundMoney(m.value.DivRound(divisor, divisionPrecision)), cur: m.cur}, nil
}

// Compare returns -1, 0 or +1 depending on whether m is less than, equal to or
// greater than n. It fails if the currencies differ.
func (m Money) Compare(n Money) (int, error) {
	if err := sameCurrency(m, n); err != nil {
		return 0, err
	}
	return m.value.Cmp(n.value), nil
}

// LessThan reports whether m < n. It fails if the currencies differ.
func (m Money) LessThan(n Money) (bool, error) {
	c, err := m.Compare(n)
	return c < 0, err
}

// GreaterThan reports whether m > n. It fails if the currencies differ.
func (m Money) GreaterThan(n Money) (bool, error) {
	c, err := m.Compare(n)
	return c > 0, err
}

func sameCurrency(m, n Money) error {
	if m.cur != n.cur {
		return &CurrencyMismatchError{Left: m.cur, Right: n.cur}
	}
	return nil
}
