package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/etnz/papertrade"
)

// --- Init Command ---

type initCmd struct {
	name string
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create a new portfolio" }
func (*initCmd) Usage() string {
	return `pt init -n <name>

  Creates an empty portfolio owned by PAPERTRADE_USER and prints its id.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "n", "", "Portfolio name")
}

func (c *initCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if strings.TrimSpace(c.name) == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, status := openApp()
	if a == nil {
		return status
	}
	defer a.Close()

	p, err := papertrade.NewPortfolio(a.cfg.User, c.name, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating portfolio: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err := a.store.CreatePortfolio(ctx, p); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Created portfolio %q with id %s\n", p.Name(), p.ID())
	return subcommands.ExitSuccess
}

// --- Portfolios Command ---

type portfoliosCmd struct {
	all bool
}

func (*portfoliosCmd) Name() string     { return "portfolios" }
func (*portfoliosCmd) Synopsis() string { return "list portfolios" }
func (*portfoliosCmd) Usage() string {
	return `pt portfolios [-a]

  Lists the portfolios of PAPERTRADE_USER, oldest first.
`
}

func (c *portfoliosCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "a", false, "List the portfolios of every user")
}

func (c *portfoliosCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := openApp()
	if a == nil {
		return status
	}
	defer a.Close()

	user := a.cfg.User
	if c.all {
		user = ""
	}
	ps, err := a.store.Portfolios(ctx, user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing portfolios: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(ps) == 0 {
		fmt.Fprintln(stdout, "No portfolios.")
		return subcommands.ExitSuccess
	}
	for _, p := range ps {
		fmt.Fprintf(stdout, "%s  %s  %-12s %s\n", p.ID(), p.CreatedAt().Format("2006-01-02"), p.UserID(), p.Name())
	}
	return subcommands.ExitSuccess
}

// --- Delete Command ---

type deleteCmd struct {
	portfolio string
	yes       bool
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a portfolio and its ledger" }
func (*deleteCmd) Usage() string {
	return `pt delete -l <portfolio> -y

  Deletes a portfolio and every entry of its ledger. This cannot be undone.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "l", "", "Portfolio id")
	f.BoolVar(&c.yes, "y", false, "Confirm the deletion")
}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" || !c.yes {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, status := openApp()
	if a == nil {
		return status
	}
	defer a.Close()

	p, err := a.portfolio(ctx, c.portfolio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := a.store.DeletePortfolio(ctx, p.ID()); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Deleted portfolio %q\n", p.Name())
	return subcommands.ExitSuccess
}
