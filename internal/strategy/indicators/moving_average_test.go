package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	sma, err := NewSMA(3)
	require.NoError(t, err)

	assert.False(t, sma.Ready())
	assert.InDelta(t, 100, sma.Update(100), 1e-9)
	assert.InDelta(t, 101, sma.Update(102), 1e-9)
	assert.False(t, sma.Ready())

	assert.InDelta(t, 101, sma.Update(101), 1e-9) // (100+102+101)/3
	assert.True(t, sma.Ready())

	// The window slides: 100 drops out.
	assert.InDelta(t, 102, sma.Update(103), 1e-9) // (102+101+103)/3

	sma.Reset()
	assert.False(t, sma.Ready())
	assert.Zero(t, sma.Value())
}

func TestSMA_RejectsBadPeriod(t *testing.T) {
	_, err := NewSMA(0)
	assert.Error(t, err)
	_, err = NewEMA(-1)
	assert.Error(t, err)
}

func TestEMA_SeedsWithSMA(t *testing.T) {
	ema, err := NewEMA(3)
	require.NoError(t, err)

	ema.Update(100)
	ema.Update(102)
	assert.False(t, ema.Ready())

	// The first full window is the plain average.
	assert.InDelta(t, 101, ema.Update(101), 1e-9)
	assert.True(t, ema.Ready())

	// From then on the exponential recurrence applies: alpha = 2/(3+1).
	want := (104.0-101.0)*0.5 + 101.0
	assert.InDelta(t, want, ema.Update(104), 1e-9)
}

func TestEMA_TracksTrend(t *testing.T) {
	ema, err := NewEMA(5)
	require.NoError(t, err)

	for price := 100.0; price <= 120; price++ {
		ema.Update(price)
	}
	// In a steady uptrend the EMA lags below the last price.
	assert.Less(t, ema.Value(), 120.0)
	assert.Greater(t, ema.Value(), 110.0)
}
