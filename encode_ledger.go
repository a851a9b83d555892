package papertrade

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// MarshalJSON writes the record with a stable field order: identity first, then
// the cash change, then the trade fields. Trade fields and empty notes are omitted.
func (r Record) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", r.ID).
		Append("portfolio", r.PortfolioID).
		Append("type", r.Type).
		Append("timestamp", r.Timestamp.UTC().Format(time.RFC3339Nano)).
		Append("seq", r.Sequence).
		Append("cashChange", r.CashChange).
		Append("currency", r.Currency).
		Optional("ticker", r.Ticker).
		Optional("quantity", r.Quantity).
		Optional("price", r.PricePerShare).
		Optional("notes", r.Notes)
	return w.MarshalJSON()
}

// UnmarshalJSON reads a record written by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var temp struct {
		ID          uuid.UUID        `json:"id"`
		PortfolioID uuid.UUID        `json:"portfolio"`
		Type        TransactionType  `json:"type"`
		Timestamp   time.Time        `json:"timestamp"`
		Sequence    int64            `json:"seq"`
		CashChange  decimal.Decimal  `json:"cashChange"`
		Currency    string           `json:"currency"`
		Ticker      *string          `json:"ticker"`
		Quantity    *decimal.Decimal `json:"quantity"`
		Price       *decimal.Decimal `json:"price"`
		Notes       string           `json:"notes"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*r = Record{
		ID:            temp.ID,
		PortfolioID:   temp.PortfolioID,
		Type:          temp.Type,
		Timestamp:     temp.Timestamp,
		Sequence:      temp.Sequence,
		CashChange:    temp.CashChange,
		Currency:      temp.Currency,
		Ticker:        temp.Ticker,
		Quantity:      temp.Quantity,
		PricePerShare: temp.Price,
		Notes:         temp.Notes,
	}
	return nil
}

// EncodeTransaction writes tx as a single JSON line.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	data, err := json.Marshal(RecordOf(tx))
	if err != nil {
		return fmt.Errorf("failed to marshal transaction %s: %w", tx.ID(), err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write transaction: %w", err)
	}
	return nil
}

// EncodeLedger writes txs in JSONL format, in ledger order.
func EncodeLedger(w io.Writer, txs []Transaction) error {
	for _, tx := range txs {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}

// DecodeLedger reads transactions from a stream of JSONL data. Empty lines are
// skipped. Every entry goes through the transaction constructors, so a
// malformed or inconsistent line is reported with its line number.
func DecodeLedger(r io.Reader) ([]Transaction, error) {
	var txs []Transaction
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := bytes.TrimSpace(scanner.Bytes())
		if len(lineBytes) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(lineBytes, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tx, err := NewTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return txs, nil
}
