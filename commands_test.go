package papertrade

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// next returns the metadata of the entry following ledger.
func next(ledger []Transaction) Meta {
	n := len(ledger) + 1
	return Meta{ID: uuid.New(), PortfolioID: testPortfolio, Timestamp: testEpoch.Add(24 * time.Hour), Sequence: int64(n)}
}

func TestCalculator_ValidateWithdraw(t *testing.T) {
	var c Calculator
	ledger := newLedger(t).Deposit(USD("100")).Transactions()

	tx, err := c.ValidateWithdraw(ledger, WithdrawOrder{Meta: next(ledger), Amount: USD("100")})
	if err != nil {
		t.Fatalf("ValidateWithdraw(100) unexpected error: %v", err)
	}
	if !tx.CashChange().Equal(USD("-100")) {
		t.Errorf("CashChange() = %s, want -100", tx.CashChange())
	}

	_, err = c.ValidateWithdraw(ledger, WithdrawOrder{Meta: next(ledger), Amount: USD("100.01")})
	var funds *InsufficientFundsError
	if !errors.As(err, &funds) {
		t.Fatalf("ValidateWithdraw(100.01) error = %v, want InsufficientFundsError", err)
	}
	if !funds.Available.Equal(USD("100")) || !funds.Required.Equal(USD("100.01")) {
		t.Errorf("InsufficientFundsError = %s available, %s required, want 100, 100.01", funds.Available, funds.Required)
	}
	if !errors.Is(err, ErrBusinessRule) {
		t.Errorf("errors.Is(%v, ErrBusinessRule) = false", err)
	}

	if _, err := c.ValidateWithdraw(nil, WithdrawOrder{Meta: next(nil), Amount: USD("1")}); !errors.As(err, &funds) {
		t.Errorf("ValidateWithdraw() on empty ledger error = %v, want InsufficientFundsError", err)
	}
	if _, err := c.ValidateWithdraw(ledger, WithdrawOrder{Meta: next(ledger), Amount: USD("0")}); !errors.Is(err, ErrInvalidTransaction) {
		t.Errorf("ValidateWithdraw(0) error = %v, want ErrInvalidTransaction", err)
	}
}

func TestCalculator_ValidateBuy(t *testing.T) {
	var c Calculator
	ledger := newLedger(t).Deposit(USD("10000")).Transactions()
	aapl := MustTicker("AAPL")

	tx, err := c.ValidateBuy(ledger, BuyOrder{Meta: next(ledger), Ticker: aapl, Quantity: Q("10"), Price: USD("150.00")})
	if err != nil {
		t.Fatalf("ValidateBuy() unexpected error: %v", err)
	}
	if !tx.CashChange().Equal(USD("-1500")) {
		t.Errorf("CashChange() = %s, want -1500", tx.CashChange())
	}

	_, err = c.ValidateBuy(ledger, BuyOrder{Meta: next(ledger), Ticker: aapl, Quantity: Q("100"), Price: USD("100.01")})
	var funds *InsufficientFundsError
	if !errors.As(err, &funds) {
		t.Fatalf("ValidateBuy() error = %v, want InsufficientFundsError", err)
	}
	if !funds.Available.Equal(USD("10000")) || !funds.Required.Equal(USD("10001")) {
		t.Errorf("InsufficientFundsError = %s available, %s required", funds.Available, funds.Required)
	}

	// Spending the whole balance is allowed.
	if _, err := c.ValidateBuy(ledger, BuyOrder{Meta: next(ledger), Ticker: aapl, Quantity: Q("100"), Price: USD("100")}); err != nil {
		t.Errorf("ValidateBuy() of the full balance unexpected error: %v", err)
	}
}

func TestCalculator_ValidateSell(t *testing.T) {
	var c Calculator
	ledger := newLedger(t).Deposit(USD("10000")).Buy("AAPL", "10", USD("100")).Transactions()
	aapl, msft := MustTicker("AAPL"), MustTicker("MSFT")

	tx, err := c.ValidateSell(ledger, SellOrder{Meta: next(ledger), Ticker: aapl, Quantity: Q("10"), Price: USD("90")})
	if err != nil {
		t.Fatalf("ValidateSell() unexpected error: %v", err)
	}
	if !tx.CashChange().Equal(USD("900")) {
		t.Errorf("CashChange() = %s, want 900", tx.CashChange())
	}

	tests := []struct {
		name      string
		ticker    Ticker
		quantity  Quantity
		available Quantity
	}{
		{"more than held", aapl, Q("10.0001"), Q("10")},
		{"no holding", msft, Q("1"), Q("0")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ValidateSell(ledger, SellOrder{Meta: next(ledger), Ticker: tt.ticker, Quantity: tt.quantity, Price: USD("1")})
			var shares *InsufficientSharesError
			if !errors.As(err, &shares) {
				t.Fatalf("ValidateSell() error = %v, want InsufficientSharesError", err)
			}
			if shares.Ticker != tt.ticker || !shares.Available.Equal(tt.available) || !shares.Required.Equal(tt.quantity) {
				t.Errorf("InsufficientSharesError = %+v, want %s available %s required %s", shares, tt.ticker, tt.available, tt.quantity)
			}
		})
	}
}

func TestCalculator_ValidateDeposit(t *testing.T) {
	var c Calculator
	ledger := newLedger(t).Deposit(USD("100")).Transactions()

	if _, err := c.ValidateDeposit(ledger, DepositOrder{Meta: next(ledger), Amount: USD("0.01")}); err != nil {
		t.Errorf("ValidateDeposit() unexpected error: %v", err)
	}
	if _, err := c.ValidateDeposit(ledger, DepositOrder{Meta: next(ledger), Amount: USD("-1")}); !errors.Is(err, ErrInvalidTransaction) {
		t.Errorf("ValidateDeposit(-1) error = %v, want ErrInvalidTransaction", err)
	}
	// The first entry sets the ledger currency.
	if _, err := c.ValidateDeposit(nil, DepositOrder{Meta: next(nil), Amount: EUR("1")}); err != nil {
		t.Errorf("ValidateDeposit(EUR) on empty ledger unexpected error: %v", err)
	}
}

func TestCalculator_SingleCurrency(t *testing.T) {
	var c Calculator
	ledger := newLedger(t).Deposit(USD("10000")).Buy("AAPL", "1", USD("100")).Transactions()
	aapl := MustTicker("AAPL")

	orders := map[string]func() error{
		"deposit": func() error {
			_, err := c.ValidateDeposit(ledger, DepositOrder{Meta: next(ledger), Amount: EUR("1")})
			return err
		},
		"withdraw": func() error {
			_, err := c.ValidateWithdraw(ledger, WithdrawOrder{Meta: next(ledger), Amount: EUR("1")})
			return err
		},
		"buy": func() error {
			_, err := c.ValidateBuy(ledger, BuyOrder{Meta: next(ledger), Ticker: aapl, Quantity: Q("1"), Price: EUR("1")})
			return err
		},
		"sell": func() error {
			_, err := c.ValidateSell(ledger, SellOrder{Meta: next(ledger), Ticker: aapl, Quantity: Q("1"), Price: EUR("1")})
			return err
		},
	}
	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			err := order()
			var mismatch *CurrencyMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("error = %v, want CurrencyMismatchError", err)
			}
			if mismatch.Left != "USD" || mismatch.Right != "EUR" {
				t.Errorf("CurrencyMismatchError = %+v, want USD != EUR", mismatch)
			}
		})
	}
}
