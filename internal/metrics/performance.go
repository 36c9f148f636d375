package metrics

import (
	"math"

	"quantsim/internal/domain"
)

// Performance is a post-run summary computed from the realized P&L of a
// run's trades. Fills that only opened or extended a position carry no
// realized P&L and are not counted as closed round trips.
type Performance struct {
	TotalTrades   int
	ClosedTrades  int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	TotalPNL      float64
	TotalFees     float64
	AverageWin    float64
	AverageLoss   float64
	ProfitFactor  float64
	MaxDrawdown   float64
	SharpeRatio   float64
	ReturnOnFunds float64
}

// Analyze computes the performance summary over a run's trades given the
// starting equity in the account's base currency. Trade cash flows are
// assumed base-convertible at par for the summary; exact per-currency
// accounting lives in the broker ledger.
func Analyze(trades []domain.Trade, startingEquity float64) *Performance {
	perf := &Performance{TotalTrades: len(trades)}

	var grossWin, grossLoss float64
	var pnlCurve []float64
	equity := startingEquity
	peak := startingEquity

	for _, trade := range trades {
		perf.TotalFees += trade.Fee
		net := trade.PNL - trade.Fee
		equity += net
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak; dd > perf.MaxDrawdown {
				perf.MaxDrawdown = dd
			}
		}

		if trade.PNL == 0 {
			continue
		}
		perf.ClosedTrades++
		perf.TotalPNL += trade.PNL
		pnlCurve = append(pnlCurve, trade.PNL)
		if trade.PNL > 0 {
			perf.WinningTrades++
			grossWin += trade.PNL
		} else {
			perf.LosingTrades++
			grossLoss += -trade.PNL
		}
	}

	if perf.ClosedTrades > 0 {
		perf.WinRate = float64(perf.WinningTrades) / float64(perf.ClosedTrades)
	}
	if perf.WinningTrades > 0 {
		perf.AverageWin = grossWin / float64(perf.WinningTrades)
	}
	if perf.LosingTrades > 0 {
		perf.AverageLoss = -grossLoss / float64(perf.LosingTrades)
	}
	if grossLoss > 0 {
		perf.ProfitFactor = grossWin / grossLoss
	}
	if startingEquity > 0 {
		perf.ReturnOnFunds = (equity - startingEquity) / startingEquity
	}
	perf.SharpeRatio = sharpe(pnlCurve)
	return perf
}

// sharpe computes the mean over standard deviation of per-trade P&L,
// assuming a zero risk-free rate.
func sharpe(pnls []float64) float64 {
	if len(pnls) < 2 {
		return 0
	}
	var sum float64
	for _, p := range pnls {
		sum += p
	}
	mean := sum / float64(len(pnls))

	var variance float64
	for _, p := range pnls {
		variance += (p - mean) * (p - mean)
	}
	variance /= float64(len(pnls) - 1)
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance)
}
