// Package prices reads market prices for valuation from JSON documents.
//
// A price document is any JSON value; a JSONPath expression selects the part
// holding the prices, which is either an object mapping symbols to prices
//
//	{"AAPL": 150.25, "MSFT": "410.10"}
//
// or a list of quotes
//
//	[{"symbol": "AAPL", "price": 150.25}, {"ticker": "MSFT", "price": 410.1}]
//
// Prices are rounded half away from zero to cents.
package prices

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/etnz/papertrade"
)

// Load reads a price document from r, evaluates path on it (the whole document
// when path is empty) and returns the prices in currency.
func Load(r io.Reader, path, currency string) (map[papertrade.Ticker]papertrade.Money, error) {
	if path == "" {
		path = "$"
	}
	if err := papertrade.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	var jobj any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&jobj); err != nil {
		return nil, fmt.Errorf("error decoding price document: %w", err)
	}
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("error evaluating %q: %w", path, err)
	}

	prices := make(map[papertrade.Ticker]papertrade.Money)
	add := func(symbol string, raw any) error {
		ticker, err := papertrade.NewTicker(symbol)
		if err != nil {
			return err
		}
		amount, err := number(raw)
		if err != nil {
			return fmt.Errorf("price of %s: %w", ticker, err)
		}
		price, err := papertrade.NewMoney(amount.Round(2), currency)
		if err != nil {
			return fmt.Errorf("price of %s: %w", ticker, err)
		}
		prices[ticker] = price
		return nil
	}

	switch v := jval.(type) {
	case map[string]any:
		for symbol, raw := range v {
			if err := add(symbol, raw); err != nil {
				return nil, err
			}
		}
	case []any:
		for i, item := range v {
			quote, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("quote %d: not an object", i)
			}
			symbol, ok := quote["symbol"].(string)
			if !ok {
				symbol, ok = quote["ticker"].(string)
			}
			if !ok {
				return nil, fmt.Errorf("quote %d: missing symbol", i)
			}
			if err := add(symbol, quote["price"]); err != nil {
				return nil, fmt.Errorf("quote %d: %w", i, err)
			}
		}
	default:
		return nil, fmt.Errorf("%q selects %T, want an object or a list of quotes", path, jval)
	}
	return prices, nil
}

// LoadFile is Load on the content of a file.
func LoadFile(name, path, currency string) (map[papertrade.Ticker]papertrade.Money, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	prices, err := Load(f, path, currency)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return prices, nil
}

func number(raw any) (decimal.Decimal, error) {
	var d decimal.Decimal
	var err error
	switch v := raw.(type) {
	case json.Number:
		d, err = decimal.NewFromString(v.String())
	case string:
		d, err = decimal.NewFromString(v)
	case float64:
		d = decimal.NewFromFloat(v)
	case nil:
		return decimal.Decimal{}, fmt.Errorf("missing price")
	default:
		return decimal.Decimal{}, fmt.Errorf("unexpected price %v", raw)
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid price %v", raw)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("price %s is not positive", d)
	}
	return d, nil
}
