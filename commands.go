package papertrade

import (
	"github.com/shopspring/decimal"
)

// DepositOrder asks to add Amount of cash to a portfolio.
type DepositOrder struct {
	Meta
	Amount Money
}

// WithdrawOrder asks to take Amount of cash out of a portfolio. Amount is positive.
type WithdrawOrder struct {
	Meta
	Amount Money
}

// BuyOrder asks to buy Quantity shares of Ticker at Price per share.
type BuyOrder struct {
	Meta
	Ticker   Ticker
	Quantity Quantity
	Price    Money
}

// SellOrder asks to sell Quantity shares of Ticker at Price per share.
type SellOrder struct {
	Meta
	Ticker   Ticker
	Quantity Quantity
	Price    Money
}

// ValidateDeposit returns the deposit entry for o, given the portfolio history.
func (c Calculator) ValidateDeposit(history []Transaction, o DepositOrder) (Deposit, error) {
	tx, err := NewDeposit(o.Meta, o.Amount)
	if err != nil {
		return Deposit{}, err
	}
	if err := c.Admit(history, tx); err != nil {
		return Deposit{}, err
	}
	return tx, nil
}

// ValidateWithdraw returns the withdrawal entry for o, or an InsufficientFundsError
// if the cash balance is lower than the amount.
func (c Calculator) ValidateWithdraw(history []Transaction, o WithdrawOrder) (Withdrawal, error) {
	tx, err := NewWithdrawal(o.Meta, o.Amount.Neg())
	if err != nil {
		return Withdrawal{}, err
	}
	if err := c.Admit(history, tx); err != nil {
		return Withdrawal{}, err
	}
	return tx, nil
}

// ValidateBuy returns the purchase entry for o, or an InsufficientFundsError if
// the cash balance cannot pay for quantity × price.
func (c Calculator) ValidateBuy(history []Transaction, o BuyOrder) (Buy, error) {
	cost := o.Price.MulQuantity(o.Quantity)
	tx, err := NewBuy(o.Meta, o.Ticker, o.Quantity, o.Price, cost.Neg())
	if err != nil {
		return Buy{}, err
	}
	if err := c.Admit(history, tx); err != nil {
		return Buy{}, err
	}
	return tx, nil
}

// ValidateSell returns the sale entry for o, or an InsufficientSharesError if the
// position in the ticker is smaller than the quantity.
func (c Calculator) ValidateSell(history []Transaction, o SellOrder) (Sell, error) {
	proceeds := o.Price.MulQuantity(o.Quantity)
	tx, err := NewSell(o.Meta, o.Ticker, o.Quantity, o.Price, proceeds)
	if err != nil {
		return Sell{}, err
	}
	if err := c.Admit(history, tx); err != nil {
		return Sell{}, err
	}
	return tx, nil
}

// Admit checks the business rules for appending tx to history:
//   - the ledger holds a single currency;
//   - withdrawals and purchases do not exceed the cash balance;
//   - sales do not exceed the shares held.
func (c Calculator) Admit(history []Transaction, tx Transaction) error {
	cur := tx.CashChange().Currency()
	balance := Money{value: decimal.Zero, cur: cur}
	if len(history) > 0 {
		var err error
		if balance, err = c.CashBalance(history); err != nil {
			return err
		}
	}
	if balance.Currency() != cur {
		return &CurrencyMismatchError{Left: balance.Currency(), Right: cur}
	}

	switch v := tx.(type) {
	case Withdrawal, Buy:
		required := tx.CashChange().Abs()
		if balance.value.LessThan(required.value) {
			return &InsufficientFundsError{Available: balance, Required: required}
		}
	case Sell:
		h, _, err := c.HoldingFor(history, v.Ticker())
		if err != nil {
			return err
		}
		if h.Quantity().LessThan(v.Quantity()) {
			return &InsufficientSharesError{Ticker: v.Ticker(), Available: h.Quantity(), Required: v.Quantity()}
		}
	}
	return nil
}
