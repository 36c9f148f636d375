package domain

import "time"

// Trade is the immutable record of one execution: the signed size filled,
// the fill price, the fee charged (in the asset's currency) and the realized
// profit or loss this fill produced, if it reduced or flipped a position.
// Trades are append-only on the account and never mutated.
type Trade struct {
	Asset   Asset
	Size    float64
	Price   float64
	Fee     float64
	PNL     float64
	Time    time.Time
	OrderID OrderID
}
