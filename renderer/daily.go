package renderer

import (
	"bytes"

	"github.com/etnz/papertrade"
	md "github.com/nao1215/markdown"
)

// DailyChange is the change in value of the holdings between two sets of prices.
type DailyChange struct {
	Name     string
	Previous papertrade.Money
	Current  papertrade.Money
	Change   papertrade.Money
	Percent  papertrade.Percent
}

// DailyMarkdown renders the daily change report.
func DailyMarkdown(d *DailyChange) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(escape(d.Name) + " Daily Change")
	doc.Table(md.TableSet{
		Header: []string{"Holdings", "Value"},
		Rows: [][]string{
			{"Previous Close", d.Previous.String()},
			{"Current", d.Current.String()},
			{md.Bold("Change"), md.Bold(signed(d.Change) + " (" + d.Percent.SignedString() + ")")},
		},
	})
	return doc.String()
}

// BalanceMarkdown renders the cash balance of a portfolio.
func BalanceMarkdown(name string, cash papertrade.Money) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(escape(name) + " Cash Balance")
	doc.PlainText(md.Bold(cash.String()))
	return doc.String()
}

func signed(m papertrade.Money) string {
	if m.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}
