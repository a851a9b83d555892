package prices

import (
	"strings"
	"testing"

	"github.com/etnz/papertrade"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
		want map[string]string
	}{
		{
			name: "object",
			doc:  `{"AAPL": 150.25, "msft": "410.1"}`,
			want: map[string]string{"AAPL": "150.25", "MSFT": "410.10"},
		},
		{
			name: "list of quotes",
			doc:  `[{"symbol": "AAPL", "price": 150.255}, {"ticker": "MSFT", "price": "1"}]`,
			want: map[string]string{"AAPL": "150.26", "MSFT": "1"},
		},
		{
			name: "nested with path",
			doc:  `{"asOf": "2024-01-02", "quotes": {"close": {"AAPL": 185.64}}}`,
			path: "$.quotes.close",
			want: map[string]string{"AAPL": "185.64"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(strings.NewReader(tt.doc), tt.path, "USD")
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Load() = %v, want %v", got, tt.want)
			}
			for symbol, amount := range tt.want {
				want := papertrade.MustMoney(amount, "USD")
				if price := got[papertrade.MustTicker(symbol)]; !price.Equal(want) {
					t.Errorf("price of %s = %s, want %s", symbol, price, want)
				}
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		path     string
		currency string
	}{
		{"not json", `{`, "", "USD"},
		{"bad ticker", `{"BRK.B": 1}`, "", "USD"},
		{"negative price", `{"AAPL": -1}`, "", "USD"},
		{"missing price", `[{"symbol": "AAPL"}]`, "", "USD"},
		{"missing symbol", `[{"price": 1}]`, "", "USD"},
		{"scalar", `{"AAPL": 1}`, "$.AAPL", "USD"},
		{"unknown path", `{"AAPL": 1}`, "$.quotes", "USD"},
		{"bad currency", `{"AAPL": 1}`, "", "usd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, err := Load(strings.NewReader(tt.doc), tt.path, tt.currency); err == nil {
				t.Errorf("Load() = %v, want an error", got)
			}
		})
	}
}
