package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantsim/internal/domain"
)

var (
	aapl = domain.NewStock("AAPL", domain.USD)
	msft = domain.NewStock("MSFT", domain.USD)
)

func closeEvent(n int, prices map[domain.Asset]float64) domain.Event {
	actions := make(map[domain.Asset]domain.PriceAction, len(prices))
	for asset, p := range prices {
		actions[asset] = domain.NewBar(p, p, p, p, 0)
	}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Minute)
	return domain.NewEvent(at, actions)
}

// feedPrices runs one price series through the strategy and collects every
// signal it emits.
func feedPrices(t *testing.T, s *EMACrossover, prices []float64) []domain.Signal {
	t.Helper()
	var signals []domain.Signal
	for i, p := range prices {
		signals = append(signals, s.Generate(context.Background(), closeEvent(i, map[domain.Asset]float64{aapl: p}))...)
	}
	return signals
}

func TestNewEMACrossover_Validation(t *testing.T) {
	_, err := NewEMACrossover(0, 5)
	assert.Error(t, err)
	_, err = NewEMACrossover(5, 5)
	assert.Error(t, err)
	_, err = NewEMACrossover(10, 5)
	assert.Error(t, err)
	_, err = NewEMACrossover(3, 5)
	assert.NoError(t, err)
}

func TestEMACrossover_SignalsOnCrossings(t *testing.T) {
	s, err := NewEMACrossover(2, 4)
	require.NoError(t, err)

	// Flat warm-up, then a rally pulling the fast EMA above the slow one,
	// then a slump pulling it back below.
	prices := []float64{100, 100, 100, 100, 100,
		105, 110, 115, 120,
		110, 100, 90, 80}
	signals := feedPrices(t, s, prices)

	require.Len(t, signals, 2)
	assert.True(t, signals[0].IsBuy())
	assert.True(t, signals[1].IsSell())
}

func TestEMACrossover_NoSignalWithoutCrossing(t *testing.T) {
	s, err := NewEMACrossover(2, 4)
	require.NoError(t, err)

	signals := feedPrices(t, s, []float64{100, 100, 100, 100, 100, 100, 100})
	assert.Empty(t, signals)

	// A steady trend crosses once, then stays crossed.
	s.Reset()
	signals = feedPrices(t, s, []float64{100, 101, 102, 103, 104, 105, 106, 107})
	assert.LessOrEqual(t, len(signals), 1)
}

func TestEMACrossover_SellsOnFirstDivergenceFromTie(t *testing.T) {
	s, err := NewEMACrossover(2, 4)
	require.NoError(t, err)

	// Flat prices leave the EMAs exactly tied; the first slump must still
	// register as a downward crossing.
	signals := feedPrices(t, s, []float64{100, 100, 100, 100, 95, 88, 80})

	require.Len(t, signals, 1)
	assert.True(t, signals[0].IsSell())
}

func TestEMACrossover_StatePerAsset(t *testing.T) {
	s, err := NewEMACrossover(2, 4)
	require.NoError(t, err)
	ctx := context.Background()

	// AAPL rallies while MSFT slumps; each asset gets its own signal.
	aaplPrices := []float64{100, 100, 100, 100, 105, 112, 120}
	msftPrices := []float64{100, 100, 100, 100, 95, 88, 80}

	var all []domain.Signal
	for i := range aaplPrices {
		all = append(all, s.Generate(ctx, closeEvent(i, map[domain.Asset]float64{
			aapl: aaplPrices[i],
			msft: msftPrices[i],
		}))...)
	}

	byAsset := map[domain.Asset][]domain.Signal{}
	for _, sig := range all {
		byAsset[sig.Asset] = append(byAsset[sig.Asset], sig)
	}
	require.NotEmpty(t, byAsset[aapl])
	require.NotEmpty(t, byAsset[msft])
	assert.True(t, byAsset[aapl][0].IsBuy())
	assert.True(t, byAsset[msft][0].IsSell())
}

func TestEMACrossover_ResetClearsState(t *testing.T) {
	s, err := NewEMACrossover(2, 4)
	require.NoError(t, err)

	first := feedPrices(t, s, []float64{100, 100, 100, 100, 105, 112, 120})
	s.Reset()
	second := feedPrices(t, s, []float64{100, 100, 100, 100, 105, 112, 120})

	assert.Equal(t, first, second)
}

func TestMultiAndParallelStrategiesAgree(t *testing.T) {
	build := func() (*MultiStrategy, *ParallelStrategy) {
		a1, _ := NewEMACrossover(2, 4)
		b1, _ := NewEMACrossover(3, 6)
		a2, _ := NewEMACrossover(2, 4)
		b2, _ := NewEMACrossover(3, 6)
		return NewMultiStrategy(a1, b1), NewParallelStrategy(a2, b2)
	}
	multi, parallel := build()
	ctx := context.Background()

	prices := []float64{100, 100, 100, 100, 100, 100, 105, 110, 118, 126, 110, 95, 85}
	for i, p := range prices {
		event := closeEvent(i, map[domain.Asset]float64{aapl: p})
		assert.Equal(t, multi.Generate(ctx, event), parallel.Generate(ctx, event), "step %d", i)
	}
}

func TestWithExitLevels(t *testing.T) {
	inner, err := NewEMACrossover(2, 4)
	require.NoError(t, err)
	wrapped := WithExitLevels(inner, 0.02, 0.01)
	ctx := context.Background()

	// Drive the inner strategy to a buy crossing.
	prices := []float64{100, 100, 100, 100, 105, 112}
	var signals []domain.Signal
	for i, p := range prices {
		signals = append(signals, wrapped.Generate(ctx, closeEvent(i, map[domain.Asset]float64{aapl: p}))...)
	}

	require.NotEmpty(t, signals)
	sig := signals[0]
	require.True(t, sig.IsBuy())
	assert.Greater(t, sig.TakeProfit, sig.StopLoss)
	// Both hints anchor on the same close price of the signalling event.
	assert.InDelta(t, sig.TakeProfit/1.02, sig.StopLoss/0.99, 1e-9)
}
