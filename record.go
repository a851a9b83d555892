package papertrade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is the flat, storage friendly form of a Transaction. Trade fields are
// nil for cash entries.
type Record struct {
	ID            uuid.UUID
	PortfolioID   uuid.UUID
	Type          TransactionType
	Timestamp     time.Time
	Sequence      int64
	CashChange    decimal.Decimal
	Currency      string
	Ticker        *string
	Quantity      *decimal.Decimal
	PricePerShare *decimal.Decimal
	Notes         string
}

// RecordOf flattens tx.
func RecordOf(tx Transaction) Record {
	r := Record{
		ID:          tx.ID(),
		PortfolioID: tx.PortfolioID(),
		Type:        tx.Type(),
		Timestamp:   tx.Timestamp(),
		Sequence:    tx.Sequence(),
		CashChange:  tx.CashChange().Amount(),
		Currency:    tx.CashChange().Currency(),
		Notes:       tx.Notes(),
	}
	if trade, ok := tx.(Trade); ok {
		symbol := trade.Ticker().Symbol()
		quantity := trade.Quantity().Decimal()
		price := trade.PricePerShare().Amount()
		r.Ticker, r.Quantity, r.PricePerShare = &symbol, &quantity, &price
	}
	return r
}

// NewTransaction rebuilds a Transaction from its record, running the same
// validation as the typed constructors. Cash entries must not carry trade fields
// and trades must carry all of them.
func NewTransaction(r Record) (Transaction, error) {
	typ, err := ParseTransactionType(string(r.Type))
	if err != nil {
		return nil, err
	}
	cash, err := NewMoney(r.CashChange, r.Currency)
	if err != nil {
		return nil, invariant(typ, "cash change: %v", err)
	}
	meta := Meta{ID: r.ID, PortfolioID: r.PortfolioID, Timestamp: r.Timestamp, Sequence: r.Sequence, Notes: r.Notes}

	switch typ {
	case TypeDeposit, TypeWithdrawal:
		switch {
		case r.Ticker != nil:
			return nil, invariant(typ, "ticker must be absent")
		case r.Quantity != nil:
			return nil, invariant(typ, "quantity must be absent")
		case r.PricePerShare != nil:
			return nil, invariant(typ, "price per share must be absent")
		}
		if typ == TypeDeposit {
			d, err := NewDeposit(meta, cash)
			return orNil(d, err)
		}
		w, err := NewWithdrawal(meta, cash)
		return orNil(w, err)
	}

	switch {
	case r.Ticker == nil:
		return nil, invariant(typ, "ticker is required")
	case r.Quantity == nil:
		return nil, invariant(typ, "quantity is required")
	case r.PricePerShare == nil:
		return nil, invariant(typ, "price per share is required")
	}
	ticker, err := NewTicker(*r.Ticker)
	if err != nil {
		return nil, invariant(typ, "%v", err)
	}
	quantity, err := NewQuantity(*r.Quantity)
	if err != nil {
		return nil, invariant(typ, "%v", err)
	}
	price, err := NewMoney(*r.PricePerShare, r.Currency)
	if err != nil {
		return nil, invariant(typ, "price per share: %v", err)
	}
	if typ == TypeBuy {
		b, err := NewBuy(meta, ticker, quantity, price, cash)
		return orNil(b, err)
	}
	s, err := NewSell(meta, ticker, quantity, price, cash)
	return orNil(s, err)
}

// orNil drops the typed zero value returned with an error so that callers
// never see a non-nil Transaction next to a non-nil error.
func orNil(tx Transaction, err error) (Transaction, error) {
	if err != nil {
		return nil, err
	}
	return tx, nil
}
