package papertrade

import (
	"errors"
	"fmt"
)

// Value object validation errors.
var (
	ErrInvalidMoney    = errors.New("invalid money")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidTicker   = errors.New("invalid ticker")
)

// Error kinds matched with errors.Is against the typed errors below.
var (
	ErrCurrencyMismatch   = errors.New("currency mismatch")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrBusinessRule       = errors.New("business rule violation")
	ErrLedgerIntegrity    = errors.New("ledger integrity violation")
)

// Repository contract errors.
var (
	ErrDuplicateEntry     = errors.New("duplicate ledger entry")
	ErrVersionConflict    = errors.New("ledger version conflict")
	ErrPortfolioNotFound  = errors.New("portfolio not found")
	ErrInvalidPortfolio   = errors.New("invalid portfolio")
	ErrDuplicatePortfolio = errors.New("duplicate portfolio")
)

// CurrencyMismatchError is returned by binary operations on amounts in different currencies.
type CurrencyMismatchError struct {
	Left, Right string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("currency mismatch: %s != %s", e.Left, e.Right)
}

func (e *CurrencyMismatchError) Is(target error) bool { return target == ErrCurrencyMismatch }

// InvariantError reports a transaction that breaks a structural rule of its type.
type InvariantError struct {
	Type TransactionType
	Rule string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invalid %s transaction: %s", e.Type, e.Rule)
}

func (e *InvariantError) Is(target error) bool { return target == ErrInvalidTransaction }

func invariant(typ TransactionType, format string, args ...any) error {
	return &InvariantError{Type: typ, Rule: fmt.Sprintf(format, args...)}
}

// InsufficientFundsError is returned when a withdrawal or a purchase needs more
// cash than the ledger holds.
type InsufficientFundsError struct {
	Available Money
	Required  Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: %s required, %s available", e.Required, e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool { return target == ErrBusinessRule }

// InsufficientSharesError is returned when a sale needs more shares than the
// position holds.
type InsufficientSharesError struct {
	Ticker    Ticker
	Available Quantity
	Required  Quantity
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares of %s: %s required, %s available", e.Ticker, e.Required, e.Available)
}

func (e *InsufficientSharesError) Is(target error) bool { return target == ErrBusinessRule }

// LedgerIntegrityError reports a ledger that could not have been produced by
// validated commands, like a sale of more shares than held at that point.
type LedgerIntegrityError struct {
	Transaction Transaction
	Err         error
}

func (e *LedgerIntegrityError) Error() string {
	return fmt.Sprintf("ledger integrity: %s transaction %s on %s: %v",
		e.Transaction.Type(), e.Transaction.ID(), e.Transaction.Timestamp().Format("2006-01-02T15:04:05Z07:00"), e.Err)
}

func (e *LedgerIntegrityError) Is(target error) bool { return target == ErrLedgerIntegrity }
func (e *LedgerIntegrityError) Unwrap() error        { return e.Err }
