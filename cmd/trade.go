package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/papertrade"
	"github.com/etnz/papertrade/renderer"
)

// cashFlags are the flags shared by deposit and withdraw.
type cashFlags struct {
	portfolio string
	amount    string
	currency  string
	memo      string
}

func (c *cashFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "l", "", "Portfolio id. Defaults to the only portfolio if one exists.")
	f.StringVar(&c.amount, "a", "", "Amount of cash, at most 2 decimal places")
	f.StringVar(&c.currency, "c", "", "Currency, defaults to PAPERTRADE_CURRENCY")
	f.StringVar(&c.memo, "m", "", "An optional note for the transaction")
}

// parse resolves the portfolio and the amount.
func (c *cashFlags) parse(ctx context.Context, a *app) (papertrade.Portfolio, papertrade.Money, error) {
	p, err := a.portfolio(ctx, c.portfolio)
	if err != nil {
		return papertrade.Portfolio{}, papertrade.Money{}, err
	}
	cur, err := a.currency(c.currency)
	if err != nil {
		return papertrade.Portfolio{}, papertrade.Money{}, err
	}
	amount, err := papertrade.ParseMoney(c.amount, cur)
	if err != nil {
		return papertrade.Portfolio{}, papertrade.Money{}, err
	}
	return p, amount, nil
}

// tradeFlags are the flags shared by buy and sell.
type tradeFlags struct {
	portfolio string
	ticker    string
	quantity  string
	price     string
	currency  string
	memo      string
}

func (c *tradeFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "l", "", "Portfolio id. Defaults to the only portfolio if one exists.")
	f.StringVar(&c.ticker, "s", "", "Ticker symbol, 1 to 5 capital letters")
	f.StringVar(&c.quantity, "q", "", "Number of shares, at most 4 decimal places")
	f.StringVar(&c.price, "p", "", "Price per share")
	f.StringVar(&c.currency, "c", "", "Currency, defaults to PAPERTRADE_CURRENCY")
	f.StringVar(&c.memo, "m", "", "An optional rationale or note for the transaction")
}

func (c *tradeFlags) parse(ctx context.Context, a *app) (papertrade.Portfolio, papertrade.Ticker, papertrade.Quantity, papertrade.Money, error) {
	var (
		t papertrade.Ticker
		q papertrade.Quantity
		m papertrade.Money
	)
	p, err := a.portfolio(ctx, c.portfolio)
	if err != nil {
		return p, t, q, m, err
	}
	if t, err = papertrade.NewTicker(c.ticker); err != nil {
		return p, t, q, m, err
	}
	if q, err = papertrade.ParseQuantity(c.quantity); err != nil {
		return p, t, q, m, err
	}
	cur, err := a.currency(c.currency)
	if err != nil {
		return p, t, q, m, err
	}
	m, err = papertrade.ParseMoney(c.price, cur)
	return p, t, q, m, err
}

// report prints the appended entry and the resulting cash balance.
func report(ctx context.Context, a *app, p papertrade.Portfolio, tx papertrade.Transaction) subcommands.ExitStatus {
	fmt.Fprintf(stdout, "%s (entry #%d)\n", renderer.Transaction(tx), tx.Sequence())
	txs, _, err := a.store.Transactions(ctx, p.ID())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	cash, err := a.calc.CashBalance(txs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing cash balance: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Cash balance: %s\n", cash)
	return subcommands.ExitSuccess
}

// --- Deposit Command ---

type depositCmd struct{ cashFlags }

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "add cash to a portfolio" }
func (*depositCmd) Usage() string {
	return `pt deposit -a <amount> [-c <currency>] [-l <portfolio>] [-m <memo>]

  Deposits cash into the portfolio. The amount must be positive.
`
}

func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.amount == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, status := openApp()
	if a == nil {
		return status
	}
	defer a.Close()

	p, amount, err := c.parse(ctx, a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	tx, err := a.trader.Deposit(ctx, p.ID(), amount, c.memo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error depositing: %v\n", err)
		return subcommands.ExitFailure
	}
	return report(ctx, a, p, tx)
}

// --- Withdraw Command ---

type withdrawCmd struct{ cashFlags }

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "take cash out of a portfolio" }
func (*withdrawCmd) Usage() string {
	return `pt withdraw -a <amount> [-c <currency>] [-l <portfolio>] [-m <memo>]

  Withdraws cash from the portfolio. The amount must be positive and at most the
  cash balance.
`
}

func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.amount == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, status := openApp()
	if a == nil {
		return status
	}
	defer a.Close()

	p, amount, err := c.parse(ctx, a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	tx, err := a.trader.Withdraw(ctx, p.ID(), amount, c.memo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error withdrawing: %v\n", err)
		return subcommands.ExitFailure
	}
	return report(ctx, a, p, tx)
}

// --- Buy Command ---

type buyCmd struct{ tradeFlags }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "purchase shares to open or add to a position" }
func (*buyCmd) Usage() string {
	return `pt buy -s <ticker> -q <quantity> -p <price> [-c <currency>] [-l <portfolio>] [-m <memo>]

  Purchases shares. The total cost is debited from the cash balance.
`
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.quantity == "" || c.price == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, status := openApp()
	if a == nil {
		return status
	}
	defer a.Close()

	p, ticker, q, price, err := c.parse(ctx, a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	tx, err := a.trader.Buy(ctx, p.ID(), ticker, q, price, c.memo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error buying %s: %v\n", ticker, err)
		return subcommands.ExitFailure
	}
	return report(ctx, a, p, tx)
}

// --- Sell Command ---

type sellCmd struct{ tradeFlags }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell shares to trim or close a position" }
func (*sellCmd) Usage() string {
	return `pt sell -s <ticker> -q <quantity> -p <price> [-c <currency>] [-l <portfolio>] [-m <memo>]

  Sells shares. The proceeds are credited to the cash balance.
`
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.quantity == "" || c.price == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, status := openApp()
	if a == nil {
		return status
	}
	defer a.Close()

	p, ticker, q, price, err := c.parse(ctx, a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	tx, err := a.trader.Sell(ctx, p.ID(), ticker, q, price, c.memo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error selling %s: %v\n", ticker, err)
		return subcommands.ExitFailure
	}
	return report(ctx, a, p, tx)
}
