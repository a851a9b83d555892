package papertrade

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TransactionType identifies the kind of a ledger entry.
type TransactionType string

// Ledger entry kinds.
const (
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
	TypeBuy        TransactionType = "BUY"
	TypeSell       TransactionType = "SELL"
)

// MaxNotesLength is the maximum number of characters in a transaction note.
const MaxNotesLength = 500

// ParseTransactionType parses one of DEPOSIT, WITHDRAWAL, BUY or SELL.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TypeDeposit, TypeWithdrawal, TypeBuy, TypeSell:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown transaction type %q", ErrInvalidTransaction, s)
	}
}

// Transaction is one immutable ledger entry. It is implemented by Deposit,
// Withdrawal, Buy and Sell only, and values are created through their constructors.
type Transaction interface {
	ID() uuid.UUID
	PortfolioID() uuid.UUID
	Type() TransactionType
	Timestamp() time.Time
	// Sequence is the position of the entry in its portfolio ledger, starting at 1.
	Sequence() int64
	// CashChange is positive when cash enters the portfolio, negative when it leaves.
	CashChange() Money
	Notes() string
	Equal(Transaction) bool

	sealed()
}

// Trade is a transaction exchanging shares of a ticker for cash: Buy or Sell.
type Trade interface {
	Transaction
	Ticker() Ticker
	Quantity() Quantity
	PricePerShare() Money
}

// Meta holds the fields shared by every ledger entry.
type Meta struct {
	ID          uuid.UUID
	PortfolioID uuid.UUID
	Timestamp   time.Time
	Sequence    int64
	Notes       string // optional, at most MaxNotesLength characters
}

type baseTx struct {
	meta Meta
	cash Money
}

func (t baseTx) ID() uuid.UUID          { return t.meta.ID }
func (t baseTx) PortfolioID() uuid.UUID { return t.meta.PortfolioID }
func (t baseTx) Timestamp() time.Time   { return t.meta.Timestamp }
func (t baseTx) Sequence() int64        { return t.meta.Sequence }
func (t baseTx) Notes() string          { return t.meta.Notes }
func (t baseTx) CashChange() Money      { return t.cash }
func (baseTx) sealed()                  {}

func (t baseTx) equal(o baseTx) bool {
	return t.meta.ID == o.meta.ID &&
		t.meta.PortfolioID == o.meta.PortfolioID &&
		t.meta.Timestamp.Equal(o.meta.Timestamp) &&
		t.meta.Sequence == o.meta.Sequence &&
		t.meta.Notes == o.meta.Notes &&
		t.cash.Equal(o.cash)
}

// newBase checks the rules common to every entry type.
func newBase(typ TransactionType, meta Meta, cash Money) (baseTx, error) {
	switch {
	case meta.ID == uuid.Nil:
		return baseTx{}, invariant(typ, "id is required")
	case meta.PortfolioID == uuid.Nil:
		return baseTx{}, invariant(typ, "portfolio id is required")
	case meta.Timestamp.IsZero():
		return baseTx{}, invariant(typ, "timestamp is required")
	case meta.Sequence < 1:
		return baseTx{}, invariant(typ, "sequence must be at least 1, got %d", meta.Sequence)
	case utf8.RuneCountInString(meta.Notes) > MaxNotesLength:
		return baseTx{}, invariant(typ, "notes exceed %d characters", MaxNotesLength)
	case cash.Currency() == "":
		return baseTx{}, invariant(typ, "cash change is required")
	}
	meta.Timestamp = meta.Timestamp.UTC()
	return baseTx{meta: meta, cash: cash}, nil
}

// Deposit is cash entering the portfolio.
type Deposit struct {
	baseTx
}

// NewDeposit creates a deposit. cashChange must be positive.
func NewDeposit(meta Meta, cashChange Money) (Deposit, error) {
	base, err := newBase(TypeDeposit, meta, cashChange)
	if err != nil {
		return Deposit{}, err
	}
	if !cashChange.IsPositive() {
		return Deposit{}, invariant(TypeDeposit, "cash change must be positive, got %s", cashChange)
	}
	return Deposit{baseTx: base}, nil
}

func (Deposit) Type() TransactionType { return TypeDeposit }

func (t Deposit) Equal(other Transaction) bool {
	o, ok := other.(Deposit)
	return ok && t.baseTx.equal(o.baseTx)
}

// Withdrawal is cash leaving the portfolio.
type Withdrawal struct {
	baseTx
}

// NewWithdrawal creates a withdrawal. cashChange must be negative.
func NewWithdrawal(meta Meta, cashChange Money) (Withdrawal, error) {
	base, err := newBase(TypeWithdrawal, meta, cashChange)
	if err != nil {
		return Withdrawal{}, err
	}
	if !cashChange.IsNegative() {
		return Withdrawal{}, invariant(TypeWithdrawal, "cash change must be negative, got %s", cashChange)
	}
	return Withdrawal{baseTx: base}, nil
}

func (Withdrawal) Type() TransactionType { return TypeWithdrawal }

func (t Withdrawal) Equal(other Transaction) bool {
	o, ok := other.(Withdrawal)
	return ok && t.baseTx.equal(o.baseTx)
}

// tradeTx is the part shared by Buy and Sell.
type tradeTx struct {
	baseTx
	ticker   Ticker
	quantity Quantity
	price    Money
}

func (t tradeTx) Ticker() Ticker       { return t.ticker }
func (t tradeTx) Quantity() Quantity   { return t.quantity }
func (t tradeTx) PricePerShare() Money { return t.price }

func (t tradeTx) equal(o tradeTx) bool {
	return t.baseTx.equal(o.baseTx) && t.ticker == o.ticker && t.quantity.Equal(o.quantity) && t.price.Equal(o.price)
}

// newTrade checks the trade fields and that cashChange is exactly sign×(quantity×price).
func newTrade(typ TransactionType, meta Meta, ticker Ticker, quantity Quantity, price, cashChange Money) (tradeTx, error) {
	base, err := newBase(typ, meta, cashChange)
	if err != nil {
		return tradeTx{}, err
	}
	switch {
	case ticker.IsZero():
		return tradeTx{}, invariant(typ, "ticker is required")
	case price.Currency() == "":
		return tradeTx{}, invariant(typ, "price per share is required")
	case !quantity.IsPositive():
		return tradeTx{}, invariant(typ, "quantity must be positive, got %s", quantity)
	case !price.IsPositive():
		return tradeTx{}, invariant(typ, "price per share must be positive, got %s", price)
	case price.Currency() != cashChange.Currency():
		return tradeTx{}, invariant(typ, "cash change currency %s differs from price currency %s", cashChange.Currency(), price.Currency())
	}

	value := price.MulQuantity(quantity)
	want, sign := value, "+"
	if typ == TypeBuy {
		want, sign = value.Neg(), "-"
		if !cashChange.IsNegative() {
			return tradeTx{}, invariant(typ, "cash change must be negative, got %s", cashChange)
		}
	} else if !cashChange.IsPositive() {
		return tradeTx{}, invariant(typ, "cash change must be positive, got %s", cashChange)
	}
	if !cashChange.Equal(want) {
		return tradeTx{}, invariant(typ, "cash change %s is not %s(%s × %s) = %s", cashChange, sign, quantity, price, want)
	}
	return tradeTx{baseTx: base, ticker: ticker, quantity: quantity, price: price}, nil
}

// Buy is the purchase of shares: cash change is -(quantity × price).
type Buy struct {
	tradeTx
}

// NewBuy creates a purchase of quantity shares of ticker at price.
func NewBuy(meta Meta, ticker Ticker, quantity Quantity, price, cashChange Money) (Buy, error) {
	t, err := newTrade(TypeBuy, meta, ticker, quantity, price, cashChange)
	if err != nil {
		return Buy{}, err
	}
	return Buy{tradeTx: t}, nil
}

func (Buy) Type() TransactionType { return TypeBuy }

func (t Buy) Equal(other Transaction) bool {
	o, ok := other.(Buy)
	return ok && t.tradeTx.equal(o.tradeTx)
}

// Sell is the sale of shares: cash change is +(quantity × price).
type Sell struct {
	tradeTx
}

// NewSell creates a sale of quantity shares of ticker at price.
func NewSell(meta Meta, ticker Ticker, quantity Quantity, price, cashChange Money) (Sell, error) {
	t, err := newTrade(TypeSell, meta, ticker, quantity, price, cashChange)
	if err != nil {
		return Sell{}, err
	}
	return Sell{tradeTx: t}, nil
}

func (Sell) Type() TransactionType { return TypeSell }

func (t Sell) Equal(other Transaction) bool {
	o, ok := other.(Sell)
	return ok && t.tradeTx.equal(o.tradeTx)
}
