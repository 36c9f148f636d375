package domain

import (
	"sort"
	"time"
)

// Account is a read-only snapshot of one simulation's ledger, handed to
// strategies, policies and metrics. Only the broker holds the mutable
// ledger; it produces a fresh snapshot after every sync, so consumers can
// hold on to an account without observing later mutations.
//
// EquityValue and BuyingPower are precomputed by the broker in the base
// currency using the exchange rates in effect at LastUpdate; equity equals
// converted cash plus the market value of all open positions and never
// depends on trade history.
type Account struct {
	BaseCurrency Currency
	Cash         *Wallet
	Positions    map[Asset]Position
	Trades       []Trade
	Orders       map[OrderID]OrderState
	EquityValue  float64
	BuyingPower  float64
	LastUpdate   time.Time
}

// Position returns the holding for an asset, or a zero-size position
// denominated in the asset's currency when there is none. Callers never
// observe phantom entries: the lookup does not insert.
func (a *Account) Position(asset Asset) Position {
	if p, ok := a.Positions[asset]; ok {
		return p
	}
	return Position{Currency: asset.Currency}
}

// OpenPositions returns the number of positions with non-zero size.
func (a *Account) OpenPositions() int {
	n := 0
	for _, p := range a.Positions {
		if p.Open() {
			n++
		}
	}
	return n
}

// OpenOrders returns the states of all orders still working, sorted by ID.
func (a *Account) OpenOrders() []OrderState {
	return a.selectOrders(func(s OrderState) bool { return s.Status.Open() })
}

// RejectedOrders returns the states of all rejected orders, sorted by ID. A
// completed run with rejections ends with a non-empty result here rather
// than an error.
func (a *Account) RejectedOrders() []OrderState {
	return a.selectOrders(func(s OrderState) bool { return s.Status == StatusRejected })
}

func (a *Account) selectOrders(keep func(OrderState) bool) []OrderState {
	var out []OrderState
	for _, s := range a.Orders {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order.ID() < out[j].Order.ID() })
	return out
}

// UnrealizedPNL sums the unrealized profit and loss over all open positions,
// per currency.
func (a *Account) UnrealizedPNL() *Wallet {
	w := NewWallet()
	for _, p := range a.Positions {
		if p.Open() {
			w.Deposit(Amount{Currency: p.Currency, Value: p.UnrealizedPNL()})
		}
	}
	return w
}
