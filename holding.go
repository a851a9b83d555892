package papertrade

// Holding is the derived position in one ticker: the shares held and the
// total cost paid for them. Holdings are recomputed from the ledger and never stored.
type Holding struct {
	ticker    Ticker
	quantity  Quantity
	costBasis Money
}

// NewHolding returns a holding of quantity shares of ticker that cost costBasis.
func NewHolding(ticker Ticker, quantity Quantity, costBasis Money) Holding {
	return Holding{ticker: ticker, quantity: quantity, costBasis: costBasis}
}

func (h Holding) Ticker() Ticker     { return h.ticker }
func (h Holding) Quantity() Quantity { return h.quantity }
func (h Holding) CostBasis() Money   { return h.costBasis }

// AverageCost returns the cost basis per share. It returns false when no shares are held.
func (h Holding) AverageCost() (Money, bool) {
	if !h.quantity.IsPositive() {
		return Money{}, false
	}
	avg, err := h.costBasis.Div(h.quantity.value)
	return avg, err == nil
}

// Equal reports whether h and o hold the same quantity of the same ticker at the same cost.
func (h Holding) Equal(o Holding) bool {
	return h.ticker == o.ticker && h.quantity.Equal(o.quantity) && h.costBasis.Equal(o.costBasis)
}
