package strategy

import (
	"context"

	"quantsim/internal/domain"
	"quantsim/internal/ports"
)

// ExitLevels decorates a strategy's entry signals with take-profit and
// stop-loss price hints derived from the event close price. A long entry at
// price p gets a take-profit at p*(1+tp) and a stop at p*(1-sl); a short
// entry mirrors both. Signals that already carry hints keep them.
type ExitLevels struct {
	inner      ports.Strategy
	takeProfit float64 // fraction of entry price, 0 disables
	stopLoss   float64 // fraction of entry price, 0 disables
}

// WithExitLevels wraps a strategy so its entry signals carry exit hints.
func WithExitLevels(inner ports.Strategy, takeProfit, stopLoss float64) *ExitLevels {
	return &ExitLevels{inner: inner, takeProfit: takeProfit, stopLoss: stopLoss}
}

func (e *ExitLevels) Generate(ctx context.Context, event domain.Event) []domain.Signal {
	signals := e.inner.Generate(ctx, event)
	for i, sig := range signals {
		if !sig.Entry() || sig.Rating == 0 {
			continue
		}
		price, ok := event.Price(sig.Asset, domain.PriceClose)
		if !ok || price <= 0 {
			continue
		}
		direction := 1.0
		if sig.IsSell() {
			direction = -1.0
		}
		if e.takeProfit > 0 && sig.TakeProfit == 0 {
			signals[i].TakeProfit = price * (1 + direction*e.takeProfit)
		}
		if e.stopLoss > 0 && sig.StopLoss == 0 {
			signals[i].StopLoss = price * (1 - direction*e.stopLoss)
		}
	}
	return signals
}

func (e *ExitLevels) Start(phase ports.Phase) { e.inner.Start(phase) }
func (e *ExitLevels) End(phase ports.Phase)   { e.inner.End(phase) }
func (e *ExitLevels) Reset()                  { e.inner.Reset() }

var _ ports.Strategy = (*ExitLevels)(nil)
