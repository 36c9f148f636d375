package domain

// SignalType tells the policy whether a signal may open a position, close
// one, or both.
type SignalType string

const (
	SignalEntry SignalType = "ENTRY"
	SignalExit  SignalType = "EXIT"
	SignalBoth  SignalType = "BOTH"
)

// Signal is a strategy's directional opinion on one asset for one event.
// Rating is in [-1, 1]: positive means buy, negative means sell, zero is a
// hold. TakeProfit/StopLoss are optional absolute price hints (0 = unset).
// Signals are ephemeral; they are consumed within one step and never stored.
type Signal struct {
	Asset      Asset
	Rating     float64
	Type       SignalType
	TakeProfit float64
	StopLoss   float64
}

// NewSignal returns a signal with the given rating, valid for entries and exits.
func NewSignal(asset Asset, rating float64) Signal {
	return Signal{Asset: asset, Rating: rating, Type: SignalBoth}
}

// BuySignal returns a full-strength buy signal.
func BuySignal(asset Asset) Signal {
	return NewSignal(asset, 1)
}

// SellSignal returns a full-strength sell signal.
func SellSignal(asset Asset) Signal {
	return NewSignal(asset, -1)
}

// IsBuy reports whether the signal leans long.
func (s Signal) IsBuy() bool { return s.Rating > 0 }

// IsSell reports whether the signal leans short.
func (s Signal) IsSell() bool { return s.Rating < 0 }

// Entry reports whether the signal may be used to open a position.
func (s Signal) Entry() bool { return s.Type == SignalEntry || s.Type == SignalBoth }

// Exit reports whether the signal may be used to close a position.
func (s Signal) Exit() bool { return s.Type == SignalExit || s.Type == SignalBoth }

// Conflicts reports whether two signals disagree on direction for the same asset.
func (s Signal) Conflicts(other Signal) bool {
	return s.Asset == other.Asset && (s.IsBuy() && other.IsSell() || s.IsSell() && other.IsBuy())
}
