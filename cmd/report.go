package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/papertrade"
	"github.com/etnz/papertrade/prices"
	"github.com/etnz/papertrade/renderer"
)

// ledger resolves the portfolio and reads its entries.
func (a *app) ledger(ctx context.Context, flagValue string) (papertrade.Portfolio, []papertrade.Transaction, error) {
	p, err := a.portfolio(ctx, flagValue)
	if err != nil {
		return p, nil, err
	}
	txs, _, err := a.store.Transactions(ctx, p.ID())
	return p, txs, err
}

// loadPrices reads a price file, or returns no prices for an empty name.
func (a *app) loadPrices(name, path, currency string) (map[papertrade.Ticker]papertrade.Money, error) {
	if name == "" {
		return nil, nil
	}
	cur, err := a.currency(currency)
	if err != nil {
		return nil, err
	}
	return prices.LoadFile(name, path, cur)
}

// --- Balance Command ---

type balanceCmd struct {
	portfolio string
}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "display the cash balance" }
func (*balanceCmd) Usage() string {
	return `pt balance [-l <portfolio>]

  Displays the cash balance of the portfolio.
`
}

func (c *balanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "l", "", "Portfolio id. Defaults to the only portfolio if one exists.")
}

func (c *balanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := openApp()
	if a == nil {
		return status
	}
	defer a.Close()

	p, txs, err := a.ledger(ctx, c.portfolio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	cash, err := a.calc.CashBalance(txs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing cash balance: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.BalanceMarkdown(p.Name(), cash))
	return subcommands.ExitSuccess
}

// priceFlags select a price file and where prices are in it.
type priceFlags struct {
	portfolio string
	prices    string
	path      string
	currency  string
}

func (c *priceFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "l", "", "Portfolio id. Defaults to the only portfolio if one exists.")
	f.StringVar(&c.prices, "prices", "", "JSON file of current prices")
	f.StringVar(&c.path, "path", "$", "JSONPath of the prices in the price file")
	f.StringVar(&c.currency, "c", "", "Currency of the prices, defaults to PAPERTRADE_CURRENCY")
}

// --- Holdings Command ---

type holdingsCmd struct{ priceFlags }

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display the shares held and their cost basis" }
func (*holdingsCmd) Usage() string {
	return `pt holdings [-l <portfolio>] [-prices <file> [-path <jsonpath>]]

  Displays every position with its quantity, cost basis and average cost.
  With a price file, also displays the market value of each position.
`
}

func (c *holdingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := openApp()
	if a == nil {
		return status
	}
	defer a.Close()

	p, txs, err := a.ledger(ctx, c.portfolio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	current, err := a.loadPrices(c.prices, c.path, c.currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading prices: %v\n", err)
		return subcommands.ExitFailure
	}
	s, err := a.calc.Summarize(txs, current)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing holdings: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderHoldings(renderer.NewReport(p.Name(), s, current)))
	return subcommands.ExitSuccess
}

// --- Value Command ---

type valueCmd struct{ priceFlags }

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "display cash, holdings and total value" }
func (*valueCmd) Usage() string {
	return `pt value -prices <file> [-path <jsonpath>] [-l <portfolio>]

  Values the portfolio at the given prices. Holdings missing from the price file
  are listed and left out of the total.
`
}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.prices == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, status := openApp()
	if a == nil {
		return status
	}
	defer a.Close()

	p, txs, err := a.ledger(ctx, c.portfolio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	current, err := a.loadPrices(c.prices, c.path, c.currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading prices: %v\n", err)
		return subcommands.ExitFailure
	}
	s, err := a.calc.Summarize(txs, current)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error valuing portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderSummary(renderer.NewReport(p.Name(), s, current)))
	return subcommands.ExitSuccess
}

// --- Change Command ---

type changeCmd struct {
	priceFlags
	previous string
}

func (*changeCmd) Name() string     { return "change" }
func (*changeCmd) Synopsis() string { return "display the daily change in value of the holdings" }
func (*changeCmd) Usage() string {
	return `pt change -prices <file> -previous <file> [-path <jsonpath>] [-l <portfolio>]

  Compares the value of the holdings at current prices with their value at the
  previous close.
`
}

func (c *changeCmd) SetFlags(f *flag.FlagSet) {
	c.priceFlags.SetFlags(f)
	f.StringVar(&c.previous, "previous", "", "JSON file of previous close prices")
}

func (c *changeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.prices == "" || c.previous == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, status := openApp()
	if a == nil {
		return status
	}
	defer a.Close()

	p, txs, err := a.ledger(ctx, c.portfolio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	current, err := a.loadPrices(c.prices, c.path, c.currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading current prices: %v\n", err)
		return subcommands.ExitFailure
	}
	previous, err := a.loadPrices(c.previous, c.path, c.currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading previous prices: %v\n", err)
		return subcommands.ExitFailure
	}

	d, err := dailyChange(a.calc, p.Name(), txs, current, previous)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing daily change: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.DailyMarkdown(d))
	return subcommands.ExitSuccess
}

func dailyChange(calc papertrade.Calculator, name string, txs []papertrade.Transaction, current, previous map[papertrade.Ticker]papertrade.Money) (*renderer.DailyChange, error) {
	holdings, err := calc.Holdings(txs)
	if err != nil {
		return nil, err
	}
	change, pct, err := calc.DailyChange(holdings, current, previous)
	if err != nil {
		return nil, err
	}
	cur, err := calc.PortfolioValue(holdings, current)
	if err != nil {
		return nil, err
	}
	prev, err := calc.PortfolioValue(holdings, previous)
	if err != nil {
		return nil, err
	}
	return &renderer.DailyChange{Name: name, Previous: prev, Current: cur, Change: change, Percent: pct}, nil
}

// --- Tx Command ---

type txCmd struct {
	portfolio string
	head      int
	tail      int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list the transactions of a portfolio" }
func (*txCmd) Usage() string {
	return `pt tx [-head <n>] [-tail <n>] [-l <portfolio>]

  Lists the ledger entries in chronological order.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "l", "", "Portfolio id. Defaults to the only portfolio if one exists.")
	f.IntVar(&c.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N transactions.")
}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.head > 0 && c.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	a, status := openApp()
	if a == nil {
		return status
	}
	defer a.Close()

	p, txs, err := a.ledger(ctx, c.portfolio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	txs = papertrade.Chronological(txs)
	if c.head > 0 && len(txs) > c.head {
		txs = txs[:c.head]
	}
	if c.tail > 0 && len(txs) > c.tail {
		txs = txs[len(txs)-c.tail:]
	}
	printMarkdown(renderer.RenderTransactions(renderer.NewLedger(p.Name(), txs)))
	return subcommands.ExitSuccess
}
