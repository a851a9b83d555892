package renderer

import (
	"strings"

	"github.com/etnz/papertrade"
)

// Report is the printable state of a portfolio at a set of prices.
type Report struct {
	Name          string
	Cash          string
	HoldingsValue string
	TotalValue    string
	Holdings      []HoldingRow
	Unpriced      []string
}

// HoldingRow is one line of the holdings table. Price and market value are
// "-" when the ticker has no price.
type HoldingRow struct {
	Ticker      string
	Quantity    string
	CostBasis   string
	AverageCost string
	Price       string
	MarketValue string
}

// NewReport formats s, the summary of the portfolio called name at prices.
func NewReport(name string, s papertrade.Summary, prices map[papertrade.Ticker]papertrade.Money) *Report {
	r := &Report{
		Name:          escape(name),
		Cash:          s.Cash.String(),
		HoldingsValue: s.HoldingsValue.String(),
		TotalValue:    s.TotalValue.String(),
	}
	for _, h := range s.Holdings {
		row := HoldingRow{
			Ticker:      h.Ticker().String(),
			Quantity:    h.Quantity().String(),
			CostBasis:   h.CostBasis().String(),
			AverageCost: "-",
			Price:       "-",
			MarketValue: "-",
		}
		if avg, ok := h.AverageCost(); ok {
			row.AverageCost = avg.String()
		}
		if price, ok := prices[h.Ticker()]; ok {
			row.Price = price.String()
			row.MarketValue = price.MulQuantity(h.Quantity()).String()
		}
		r.Holdings = append(r.Holdings, row)
	}
	for _, t := range s.Unpriced {
		r.Unpriced = append(r.Unpriced, t.String())
	}
	return r
}

// Ledger is the printable list of entries of a portfolio.
type Ledger struct {
	Name string
	Rows []TransactionRow
}

type TransactionRow struct {
	Sequence    int64
	Date        string
	Type        string
	Description string
	Cash        string
	Notes       string
}

// NewLedger formats txs in chronological order.
func NewLedger(name string, txs []papertrade.Transaction) *Ledger {
	l := &Ledger{Name: escape(name)}
	for _, tx := range papertrade.Chronological(txs) {
		l.Rows = append(l.Rows, TransactionRow{
			Sequence:    tx.Sequence(),
			Date:        tx.Timestamp().Format("2006-01-02 15:04"),
			Type:        string(tx.Type()),
			Description: Transaction(tx),
			Cash:        tx.CashChange().String(),
			Notes:       escape(tx.Notes()),
		})
	}
	return l
}

// Transaction renders a transaction to a string.
func Transaction(tx papertrade.Transaction) string {
	switch v := tx.(type) {
	case papertrade.Buy:
		return "Bought " + v.Quantity().String() + " " + v.Ticker().String() + " at " + v.PricePerShare().String()
	case papertrade.Sell:
		return "Sold " + v.Quantity().String() + " " + v.Ticker().String() + " at " + v.PricePerShare().String()
	case papertrade.Deposit:
		return "Deposited " + v.CashChange().String()
	case papertrade.Withdrawal:
		return "Withdrew " + v.CashChange().Abs().String()
	default:
		return string(tx.Type())
	}
}

// escape keeps free text from breaking a markdown table row.
func escape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
