package papertrade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	testPortfolio = uuid.MustParse("6f1b2c4e-0000-4000-8000-000000000001")
	testEpoch     = time.Date(2024, time.January, 2, 9, 30, 0, 0, time.UTC)
)

// USD is a helper for test to create usd money from a string constant.
func USD(v string) Money { return MustMoney(v, "USD") }

// EUR is a helper for test to create euro money from a string constant.
func EUR(v string) Money { return MustMoney(v, "EUR") }

// Q is a helper for test to create a quantity from a string constant.
func Q(v string) Quantity { return MustQuantity(v) }

// D is a helper for test to create a decimal from a string constant.
func D(v string) decimal.Decimal { return decimal.RequireFromString(v) }

// ledgerBuilder appends valid entries with increasing sequence and timestamp.
type ledgerBuilder struct {
	t   *testing.T
	txs []Transaction
}

func newLedger(t *testing.T) *ledgerBuilder {
	t.Helper()
	return &ledgerBuilder{t: t}
}

func (b *ledgerBuilder) meta() Meta {
	n := len(b.txs) + 1
	return Meta{
		ID:          uuid.New(),
		PortfolioID: testPortfolio,
		Timestamp:   testEpoch.Add(time.Duration(n) * time.Minute),
		Sequence:    int64(n),
	}
}

func (b *ledgerBuilder) Deposit(amount Money) *ledgerBuilder {
	b.t.Helper()
	tx, err := NewDeposit(b.meta(), amount)
	if err != nil {
		b.t.Fatalf("NewDeposit(%s) failed: %v", amount, err)
	}
	b.txs = append(b.txs, tx)
	return b
}

func (b *ledgerBuilder) Withdraw(amount Money) *ledgerBuilder {
	b.t.Helper()
	tx, err := NewWithdrawal(b.meta(), amount.Neg())
	if err != nil {
		b.t.Fatalf("NewWithdrawal(%s) failed: %v", amount, err)
	}
	b.txs = append(b.txs, tx)
	return b
}

func (b *ledgerBuilder) Buy(ticker, quantity string, price Money) *ledgerBuilder {
	b.t.Helper()
	q := Q(quantity)
	tx, err := NewBuy(b.meta(), MustTicker(ticker), q, price, price.MulQuantity(q).Neg())
	if err != nil {
		b.t.Fatalf("NewBuy(%s, %s, %s) failed: %v", ticker, quantity, price, err)
	}
	b.txs = append(b.txs, tx)
	return b
}

func (b *ledgerBuilder) Sell(ticker, quantity string, price Money) *ledgerBuilder {
	b.t.Helper()
	q := Q(quantity)
	tx, err := NewSell(b.meta(), MustTicker(ticker), q, price, price.MulQuantity(q))
	if err != nil {
		b.t.Fatalf("NewSell(%s, %s, %s) failed: %v", ticker, quantity, price, err)
	}
	b.txs = append(b.txs, tx)
	return b
}

func (b *ledgerBuilder) Transactions() []Transaction { return b.txs }

// prices builds a price map from ticker, price pairs.
func prices(kv ...any) map[Ticker]Money {
	m := make(map[Ticker]Money)
	for i := 0; i < len(kv); i += 2 {
		m[MustTicker(kv[i].(string))] = kv[i+1].(Money)
	}
	return m
}
