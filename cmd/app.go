// Package cmd implements the pt command line application to manage paper
// trading portfolios.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/etnz/papertrade"
	"github.com/etnz/papertrade/config"
	"github.com/etnz/papertrade/ledgerfile"
	"github.com/etnz/papertrade/logger"
	"github.com/etnz/papertrade/sqlite"
)

// Commands lists every subcommand, in help order.
var Commands = []subcommands.Command{
	&initCmd{},
	&portfoliosCmd{},
	&deleteCmd{},
	&depositCmd{},
	&withdrawCmd{},
	&buyCmd{},
	&sellCmd{},
	&balanceCmd{},
	&holdingsCmd{},
	&valueCmd{},
	&changeCmd{},
	&txCmd{},
	&exportCmd{},
	&importCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var raw = flag.Bool("raw", false, "print reports as plain markdown, without terminal styling")

// stdout receives the command output.
var stdout io.Writer = os.Stdout

// app is the state shared by the commands of one invocation.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	store  papertrade.Store
	calc   papertrade.Calculator
	trader *papertrade.Trader
	close  func() error
}

// newApp loads the configuration and opens the configured store.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	calc, err := papertrade.NewCalculator(cfg.Currency)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, calc: calc, close: func() error { return nil }}
	switch cfg.Store {
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.DB, log)
		if err != nil {
			return nil, err
		}
		a.store, a.close = s, s.Close
	default:
		s, err := ledgerfile.Open(cfg.Dir, log)
		if err != nil {
			return nil, err
		}
		a.store = s
	}
	a.trader = papertrade.NewTrader(a.store, calc, log, papertrade.TraderOptions{MaxAttempts: cfg.MaxAttempts})
	log.Debug().Str("store", cfg.Store).Msg("application ready")
	return a, nil
}

// openApp is newApp for commands: it reports errors on stderr.
func openApp() (*app, subcommands.ExitStatus) {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	return a, subcommands.ExitSuccess
}

func (a *app) Close() {
	if err := a.close(); err != nil {
		a.log.Error().Err(err).Msg("close store")
	}
}

// portfolio resolves the -l flag of a command. An empty flag selects the only
// portfolio of the configured user.
func (a *app) portfolio(ctx context.Context, flagValue string) (papertrade.Portfolio, error) {
	if flagValue != "" {
		id, err := uuid.Parse(flagValue)
		if err != nil {
			return papertrade.Portfolio{}, fmt.Errorf("invalid portfolio id %q: %w", flagValue, err)
		}
		return a.store.Portfolio(ctx, id)
	}
	ps, err := a.store.Portfolios(ctx, a.cfg.User)
	if err != nil {
		return papertrade.Portfolio{}, err
	}
	switch len(ps) {
	case 0:
		return papertrade.Portfolio{}, errors.New("no portfolio, create one with 'pt init'")
	case 1:
		return ps[0], nil
	default:
		return papertrade.Portfolio{}, fmt.Errorf("user %s has %d portfolios, select one with -l", a.cfg.User, len(ps))
	}
}

// currency returns the currency flag value, or the configured default.
func (a *app) currency(flagValue string) (string, error) {
	cur := strings.ToUpper(strings.TrimSpace(flagValue))
	if cur == "" {
		cur = a.cfg.Currency
	}
	if !a.cfg.Accepts(cur) {
		return "", fmt.Errorf("currency %s is not allowed, PAPERTRADE_CURRENCIES is %s", cur, strings.Join(a.cfg.Currencies, ","))
	}
	return cur, nil
}

// printMarkdown writes a markdown report to stdout, styled for the terminal
// unless -raw is set.
func printMarkdown(md string) {
	if *raw {
		fmt.Fprint(stdout, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	fmt.Fprint(stdout, out)
}
