package papertrade

import (
	"fmt"
	"regexp"
	"strings"
)

var tickerPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)

// Ticker is a stock symbol: one to five upper case letters.
type Ticker struct {
	symbol string
}

// NewTicker normalizes s to upper case and validates it.
func NewTicker(s string) (Ticker, error) {
	symbol := strings.ToUpper(strings.TrimSpace(s))
	if !tickerPattern.MatchString(symbol) {
		return Ticker{}, fmt.Errorf("%w: %q must be 1 to 5 letters", ErrInvalidTicker, s)
	}
	return Ticker{symbol: symbol}, nil
}

// MustTicker is like NewTicker but panics on invalid input.
func MustTicker(s string) Ticker {
	t, err := NewTicker(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Ticker) Symbol() string { return t.symbol }
func (t Ticker) String() string { return t.symbol }
func (t Ticker) IsZero() bool   { return t.symbol == "" }
