package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/etnz/papertrade"
)

var epoch = time.Date(2024, time.January, 2, 9, 30, 0, 0, time.UTC)

func usd(v string) papertrade.Money { return papertrade.MustMoney(v, "USD") }

// testLedger is a deposit of 10000, 10 AAPL at 150 and 1 MSFT at 300.
func testLedger(t *testing.T) []papertrade.Transaction {
	t.Helper()
	pid := uuid.New()
	meta := func(seq int64, notes string) papertrade.Meta {
		return papertrade.Meta{ID: uuid.New(), PortfolioID: pid, Timestamp: epoch.Add(time.Duration(seq) * time.Hour), Sequence: seq, Notes: notes}
	}
	var c papertrade.Calculator
	var txs []papertrade.Transaction
	dep, err := c.ValidateDeposit(txs, papertrade.DepositOrder{Meta: meta(1, "initial funding"), Amount: usd("10000")})
	if err != nil {
		t.Fatal(err)
	}
	txs = append(txs, dep)
	buy, err := c.ValidateBuy(txs, papertrade.BuyOrder{Meta: meta(2, ""), Ticker: papertrade.MustTicker("AAPL"), Quantity: papertrade.MustQuantity("10"), Price: usd("150")})
	if err != nil {
		t.Fatal(err)
	}
	txs = append(txs, buy)
	buy, err = c.ValidateBuy(txs, papertrade.BuyOrder{Meta: meta(3, ""), Ticker: papertrade.MustTicker("MSFT"), Quantity: papertrade.MustQuantity("1"), Price: usd("300")})
	if err != nil {
		t.Fatal(err)
	}
	return append(txs, buy)
}

// tables parses markdown and returns the cell texts of every table, header row first.
func tables(t *testing.T, markdown string) [][][]string {
	t.Helper()
	src := []byte(markdown)
	root := goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser().Parse(text.NewReader(src))

	var result [][][]string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		table, ok := n.(*extast.Table)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		var rows [][]string
		for row := table.FirstChild(); row != nil; row = row.NextSibling() {
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, plainText(cell, src))
			}
			rows = append(rows, cells)
		}
		result = append(result, rows)
		return ast.WalkSkipChildren, nil
	})
	return result
}

func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(src))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func TestRenderSummary(t *testing.T) {
	prices := map[papertrade.Ticker]papertrade.Money{papertrade.MustTicker("AAPL"): usd("160")}
	s, err := papertrade.Calculator{}.Summarize(testLedger(t), prices)
	if err != nil {
		t.Fatal(err)
	}
	out := RenderSummary(NewReport("Paper", s, prices))

	if !strings.HasPrefix(out, "# Paper\n") {
		t.Errorf("RenderSummary() does not start with the title:\n%s", out)
	}
	got := tables(t, out)
	if len(got) != 2 {
		t.Fatalf("RenderSummary() has %d tables, want 2:\n%s", len(got), out)
	}

	totals := got[0]
	if want := []string{"$8,200.00", "$1,600.00", "$9,800.00"}; strings.Join(totals[1], ";") != strings.Join(want, ";") {
		t.Errorf("totals row = %v, want %v", totals[1], want)
	}

	holdings := got[1]
	want := [][]string{
		{"Ticker", "Quantity", "Cost Basis", "Avg. Cost", "Price", "Market Value"},
		{"AAPL", "10", "$1,500.00", "$150.00", "$160.00", "$1,600.00"},
		{"MSFT", "1", "$300.00", "$300.00", "-", "-"},
	}
	if len(holdings) != len(want) {
		t.Fatalf("holdings table has %d rows, want %d:\n%s", len(holdings), len(want), out)
	}
	for i := range want {
		if strings.Join(holdings[i], ";") != strings.Join(want[i], ";") {
			t.Errorf("holdings row %d = %v, want %v", i, holdings[i], want[i])
		}
	}
	if !strings.Contains(out, "Not valued, no price for: MSFT.") {
		t.Errorf("RenderSummary() does not report the unpriced ticker:\n%s", out)
	}
}

func TestRenderHoldings_Empty(t *testing.T) {
	out := RenderHoldings(NewReport("Empty", papertrade.Summary{}, nil))
	if !strings.Contains(out, "No holdings.") {
		t.Errorf("RenderHoldings() = %q, want a no holdings line", out)
	}
	if got := tables(t, out); len(got) != 0 {
		t.Errorf("RenderHoldings() has %d tables, want none", len(got))
	}
}

func TestRenderTransactions(t *testing.T) {
	out := RenderTransactions(NewLedger("Paper", testLedger(t)))
	got := tables(t, out)
	if len(got) != 1 || len(got[0]) != 4 {
		t.Fatalf("RenderTransactions() tables = %v, want 1 table of 4 rows:\n%s", got, out)
	}
	first := got[0][1]
	if first[0] != "1" || first[2] != "DEPOSIT" || first[3] != "Deposited $10,000.00" || first[5] != "initial funding" {
		t.Errorf("first row = %v", first)
	}
	if second := got[0][2]; second[3] != "Bought 10 AAPL at $150.00" || second[4] != "-$1,500.00" {
		t.Errorf("second row = %v", second)
	}
}

func TestDailyMarkdown(t *testing.T) {
	out := DailyMarkdown(&DailyChange{
		Name:     "Paper",
		Previous: usd("1000"),
		Current:  usd("1100"),
		Change:   usd("100"),
		Percent:  papertrade.NewPercent(decimal.NewFromInt(10)),
	})
	html, err := HTML(out)
	if err != nil {
		t.Fatalf("HTML() unexpected error: %v", err)
	}
	for _, want := range []string{"<table>", "<h1>Paper Daily Change</h1>", "+$100.00 (+10.00%)"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML() does not contain %q:\n%s", want, html)
		}
	}
}

func TestHTML(t *testing.T) {
	html, err := HTML("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("HTML() unexpected error: %v", err)
	}
	if !strings.Contains(html, "<h1>Title</h1>") || !strings.Contains(html, "<td>1</td>") {
		t.Errorf("HTML() = %s", html)
	}
}

func TestEscape(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"a | b", `a \| b`},
		{"  two\nlines  ", "two lines"},
	}
	for _, tt := range tests {
		if got := escape(tt.in); got != tt.want {
			t.Errorf("escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
