package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/papertrade"
	"github.com/etnz/papertrade/renderer"
)

// Export formats.
const (
	formatJSONL    = "jsonl"
	formatMarkdown = "md"
	formatHTML     = "html"
)

// --- Export Command ---

type exportCmd struct {
	portfolio string
	output    string
	format    string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the ledger of a portfolio" }
func (*exportCmd) Usage() string {
	return `pt export [-f jsonl|md|html] [-o <file>] [-l <portfolio>]

  Writes the ledger entries. The jsonl format can be read back with 'pt import'.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "l", "", "Portfolio id. Defaults to the only portfolio if one exists.")
	f.StringVar(&c.output, "o", "", "Output file, defaults to stdout")
	f.StringVar(&c.format, "f", formatJSONL, "Output format: jsonl, md or html")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	switch c.format {
	case formatJSONL, formatMarkdown, formatHTML:
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", c.format)
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

	var w io.Writer = stdout
	if c.output != "" {
		file, err := os.Create(c.output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", c.output, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		w = file
	}

	if err := export(w, c.format, p.Name(), txs); err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func export(w io.Writer, format, name string, txs []papertrade.Transaction) error {
	switch format {
	case formatMarkdown:
		_, err := io.WriteString(w, renderer.RenderTransactions(renderer.NewLedger(name, txs)))
		return err
	case formatHTML:
		html, err := renderer.HTML(renderer.RenderTransactions(renderer.NewLedger(name, txs)))
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, html)
		return err
	default:
		return papertrade.EncodeLedger(w, papertrade.Chronological(txs))
	}
}

// --- Import Command ---

type importCmd struct {
	portfolio string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replay exported entries into a portfolio" }
func (*importCmd) Usage() string {
	return `pt import [-l <portfolio>] <file.jsonl>

  Appends the entries of a jsonl export to the portfolio. Entries keep their id,
  time and notes, and must be accepted by the same rules as new transactions.
  Import stops at the first rejected entry.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "l", "", "Portfolio id. Defaults to the only portfolio if one exists.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	name := f.Arg(0)

	file, err := os.Open(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %q: %v\n", name, err)
		return subcommands.ExitFailure
	}
	defer file.Close()
	txs, err := papertrade.DecodeLedger(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", name, err)
		return subcommands.ExitFailure
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
	n, err := a.trader.Import(ctx, p.ID(), txs)
	fmt.Fprintf(stdout, "Imported %d of %d entries into %q\n", n, len(txs), p.Name())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
