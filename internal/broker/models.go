package broker

import "math"

// FeeModel computes the fee charged for a fill, in the asset's currency.
type FeeModel interface {
	Fee(size, price float64) float64
}

// PercentageFee charges a fixed percentage of the traded value. A zero
// percentage models a fee-free venue.
type PercentageFee struct {
	Percent float64
}

func (f PercentageFee) Fee(size, price float64) float64 {
	return math.Abs(size) * price * f.Percent
}

// SlippageModel adjusts a fill price against the taker.
type SlippageModel interface {
	Apply(size, price float64) float64
}

// SpreadSlippage moves the fill price by a fixed number of basis points in
// the adverse direction: buys pay more, sells receive less.
type SpreadSlippage struct {
	BPS float64
}

func (s SpreadSlippage) Apply(size, price float64) float64 {
	adj := price * s.BPS / 10_000
	if size > 0 {
		return price + adj
	}
	return price - adj
}

// AccountModel determines the buying power of an account, in the base
// currency, from its converted cash, equity and gross exposure.
type AccountModel interface {
	BuyingPower(cash, equity, exposure float64) float64
}

// CashModel is a plain cash account: buying power is the cash on hand.
type CashModel struct{}

func (CashModel) BuyingPower(cash, _, _ float64) float64 {
	return cash
}

// MarginModel is a leveraged account: buying power is equity times leverage
// minus the margin already used by open exposure. Orders that would exceed
// it are rejected, never resized.
type MarginModel struct {
	Leverage float64
}

func (m MarginModel) BuyingPower(_, equity, exposure float64) float64 {
	return equity*m.Leverage - exposure
}
