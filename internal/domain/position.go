package domain

// Position is a per-asset holding: a signed size (positive long, negative
// short) and the weighted-average entry price. MarketPrice is the last price
// the broker saw for the asset and is what equity calculations use across
// data gaps. Positions are owned by the account and mutated only by the
// broker.
type Position struct {
	Size        float64
	AvgPrice    float64
	MarketPrice float64
	Currency    Currency
}

// Open reports whether the position has any exposure.
func (p Position) Open() bool { return p.Size != 0 }

// Long reports whether the position is long.
func (p Position) Long() bool { return p.Size > 0 }

// Short reports whether the position is short.
func (p Position) Short() bool { return p.Size < 0 }

// Value returns the market value of the position in its own currency.
func (p Position) Value() float64 {
	return p.Size * p.MarketPrice
}

// Exposure returns the absolute market value, used for margin calculations.
func (p Position) Exposure() float64 {
	v := p.Value()
	if v < 0 {
		return -v
	}
	return v
}

// UnrealizedPNL returns the profit or loss if the position were closed at
// its current market price.
func (p Position) UnrealizedPNL() float64 {
	return p.Size * (p.MarketPrice - p.AvgPrice)
}
