package papertrade

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency of an empty ledger's balance when the
// Calculator is not configured with one.
const DefaultCurrency = "USD"

// Calculator derives portfolio state from ledger entries.
//
// It is stateless: every method is a pure function of its arguments, and a
// Calculator can be shared by any number of goroutines. The zero value uses
// DefaultCurrency.
type Calculator struct {
	currency string
}

// NewCalculator returns a Calculator reporting empty ledgers in currency.
func NewCalculator(currency string) (Calculator, error) {
	if err := ValidateCurrency(currency); err != nil {
		return Calculator{}, err
	}
	return Calculator{currency: currency}, nil
}

// Currency returns the currency used for empty ledgers.
func (c Calculator) Currency() string {
	if c.currency == "" {
		return DefaultCurrency
	}
	return c.currency
}

func (c Calculator) zero() Money {
	return Money{value: decimal.Zero, cur: c.Currency()}
}

// Chronological returns a copy of txs sorted by timestamp. Entries with the same
// timestamp keep their ledger order (sequence, then id), so the result does not
// depend on the order of txs.
func Chronological(txs []Transaction) []Transaction {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b Transaction) int {
		return cmp.Or(
			a.Timestamp().Compare(b.Timestamp()),
			cmp.Compare(a.Sequence(), b.Sequence()),
			strings.Compare(a.ID().String(), b.ID().String()),
		)
	})
	return sorted
}

// CashBalance returns the sum of every cash change, in the currency of the first
// entry. An empty ledger has a zero balance in the calculator currency.
func (c Calculator) CashBalance(txs []Transaction) (Money, error) {
	if len(txs) == 0 {
		return c.zero(), nil
	}
	sorted := Chronological(txs)
	balance := sorted[0].CashChange()
	for _, tx := range sorted[1:] {
		var err error
		if balance, err = balance.Add(tx.CashChange()); err != nil {
			return Money{}, fmt.Errorf("cash balance at %s transaction %s: %w", tx.Type(), tx.ID(), err)
		}
	}
	return balance, nil
}

// position is the running state of one ticker while folding the ledger.
type position struct {
	quantity  Quantity
	costBasis Money
}

// Holdings folds the ledger into one Holding per ticker with shares still held.
//
// Cost basis follows the weighted average model: a buy adds quantity×price
// (rounded per trade), a sale removes the same fraction of the cost basis as the
// fraction of shares sold, whatever the sale price. Fully sold tickers are
// omitted. Holdings are listed in order of first purchase.
//
// A sale of more shares than held at that point cannot come from validated
// commands and is reported as a LedgerIntegrityError.
func (c Calculator) Holdings(txs []Transaction) ([]Holding, error) {
	positions := make(map[Ticker]*position)
	var tickers []Ticker

	get := func(t Trade) *position {
		p, ok := positions[t.Ticker()]
		if !ok {
			p = &position{costBasis: Money{value: decimal.Zero, cur: t.PricePerShare().Currency()}}
			positions[t.Ticker()] = p
			tickers = append(tickers, t.Ticker())
		}
		return p
	}

	for _, tx := range Chronological(txs) {
		switch v := tx.(type) {
		case Buy:
			p := get(v)
			basis, err := p.costBasis.Add(v.PricePerShare().MulQuantity(v.Quantity()))
			if err != nil {
				return nil, &LedgerIntegrityError{Transaction: v, Err: err}
			}
			p.quantity = p.quantity.Add(v.Quantity())
			p.costBasis = basis
		case Sell:
			p := get(v)
			remaining, err := p.quantity.Sub(v.Quantity())
			if err != nil {
				return nil, &LedgerIntegrityError{Transaction: v, Err: err}
			}
			// Selling from an empty position leaves the cost basis untouched.
			if !p.quantity.IsZero() {
				p.costBasis = p.costBasis.Mul(remaining.ratio(p.quantity))
			}
			p.quantity = remaining
		}
	}

	holdings := make([]Holding, 0, len(tickers))
	for _, t := range tickers {
		p := positions[t]
		if p.quantity.IsPositive() {
			holdings = append(holdings, NewHolding(t, p.quantity, p.costBasis))
		}
	}
	return holdings, nil
}

// HoldingFor returns the holding in ticker, or false if no share is held.
func (c Calculator) HoldingFor(txs []Transaction, ticker Ticker) (Holding, bool, error) {
	holdings, err := c.Holdings(txs)
	if err != nil {
		return Holding{}, false, err
	}
	for _, h := range holdings {
		if h.Ticker() == ticker {
			return h, true, nil
		}
	}
	return Holding{}, false, nil
}

// value sums price×quantity over priced holdings. It reports false when no
// holding has a price.
func value(holdings []Holding, prices map[Ticker]Money) (Money, bool, error) {
	var total Money
	found := false
	for _, h := range holdings {
		price, ok := prices[h.Ticker()]
		if !ok {
			continue
		}
		v := price.MulQuantity(h.Quantity())
		if !found {
			total, found = v, true
			continue
		}
		var err error
		if total, err = total.Add(v); err != nil {
			return Money{}, false, fmt.Errorf("value of %s: %w", h.Ticker(), err)
		}
	}
	return total, found, nil
}

// PortfolioValue returns the market value of holdings at prices. Holdings without
// a price are left out of the total; see UnpricedTickers.
func (c Calculator) PortfolioValue(holdings []Holding, prices map[Ticker]Money) (Money, error) {
	total, found, err := value(holdings, prices)
	if err != nil || !found {
		return c.zero(), err
	}
	return total, nil
}

// UnpricedTickers returns the tickers of holdings missing from prices.
func UnpricedTickers(holdings []Holding, prices map[Ticker]Money) []Ticker {
	var missing []Ticker
	for _, h := range holdings {
		if _, ok := prices[h.Ticker()]; !ok {
			missing = append(missing, h.Ticker())
		}
	}
	return missing
}

// TotalValue returns cash plus the value of holdings.
func (c Calculator) TotalValue(cash, holdingsValue Money) (Money, error) {
	return cash.Add(holdingsValue)
}

// DailyChange compares the value of holdings at current and previous prices. The
// percentage is relative to the previous value, rounded to two places, and is zero
// when the previous value is zero.
func (c Calculator) DailyChange(holdings []Holding, current, previous map[Ticker]Money) (Money, Percent, error) {
	cur, curFound, err := value(holdings, current)
	if err != nil {
		return Money{}, Percent{}, fmt.Errorf("current value: %w", err)
	}
	prev, prevFound, err := value(holdings, previous)
	if err != nil {
		return Money{}, Percent{}, fmt.Errorf("previous value: %w", err)
	}
	switch {
	case !curFound && !prevFound:
		cur, prev = c.zero(), c.zero()
	case !curFound:
		cur = Money{value: decimal.Zero, cur: prev.cur}
	case !prevFound:
		prev = Money{value: decimal.Zero, cur: cur.cur}
	}

	change, err := cur.Sub(prev)
	if err != nil {
		return Money{}, Percent{}, err
	}
	if prev.IsZero() {
		return change, Percent{}, nil
	}
	pct := change.value.DivRound(prev.value, divisionPrecision).Mul(decimal.NewFromInt(100))
	return change, NewPercent(pct), nil
}

// Summary gathers the state of a portfolio at a set of prices.
type Summary struct {
	Cash          Money
	Holdings      []Holding
	HoldingsValue Money
	TotalValue    Money
	Unpriced      []Ticker // holdings left out of HoldingsValue
}

// Summarize computes cash, holdings and their value at prices in one pass over the ledger.
func (c Calculator) Summarize(txs []Transaction, prices map[Ticker]Money) (Summary, error) {
	cash, err := c.CashBalance(txs)
	if err != nil {
		return Summary{}, err
	}
	holdings, err := c.Holdings(txs)
	if err != nil {
		return Summary{}, err
	}
	hv, found, err := value(holdings, prices)
	if err != nil {
		return Summary{}, err
	}
	if !found {
		hv = Money{value: decimal.Zero, cur: cash.cur}
	}
	total, err := c.TotalValue(cash, hv)
	if err != nil {
		return Summary{}, fmt.Errorf("total value: %w", err)
	}
	return Summary{
		Cash:          cash,
		Holdings:      holdings,
		HoldingsValue: hv,
		TotalValue:    total,
		Unpriced:      UnpricedTickers(holdings, prices),
	}, nil
}
