// Package indicators provides incremental indicator buffers for strategies.
package indicators

import "fmt"

// SMA is an incremental simple moving average over a fixed window.
type SMA struct {
	period int
	values []float64
	next   int
	count  int
	sum    float64
}

// NewSMA returns a simple moving average over the given period.
func NewSMA(period int) (*SMA, error) {
	if period <= 0 {
		return nil, fmt.Errorf("SMA period must be positive, got %d", period)
	}
	return &SMA{period: period, values: make([]float64, period)}, nil
}

// Update feeds one price into the window and returns the current average.
func (s *SMA) Update(price float64) float64 {
	s.sum += price - s.values[s.next]
	s.values[s.next] = price
	s.next = (s.next + 1) % s.period
	if s.count < s.period {
		s.count++
	}
	return s.Value()
}

// Value returns the average over the values seen so far.
func (s *SMA) Value() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

// Ready reports whether a full window has been observed.
func (s *SMA) Ready() bool { return s.count >= s.period }

// Reset clears the window.
func (s *SMA) Reset() {
	for i := range s.values {
		s.values[i] = 0
	}
	s.next, s.count, s.sum = 0, 0, 0
}

// EMA is an incremental exponential moving average, seeded with the SMA of
// the first period values.
type EMA struct {
	period int
	alpha  float64
	seed   *SMA
	value  float64
	count  int
}

// NewEMA returns an exponential moving average over the given period.
func NewEMA(period int) (*EMA, error) {
	if period <= 0 {
		return nil, fmt.Errorf("EMA period must be positive, got %d", period)
	}
	seed, err := NewSMA(period)
	if err != nil {
		return nil, err
	}
	return &EMA{period: period, alpha: 2.0 / float64(period+1), seed: seed}, nil
}

// Update feeds one price and returns the current EMA value.
func (e *EMA) Update(price float64) float64 {
	e.count++
	if e.count <= e.period {
		e.value = e.seed.Update(price)
		return e.value
	}
	e.value = (price-e.value)*e.alpha + e.value
	return e.value
}

// Value returns the last computed EMA value.
func (e *EMA) Value() float64 { return e.value }

// Ready reports whether the warm-up window has been filled.
func (e *EMA) Ready() bool { return e.count >= e.period }

// Reset clears all state.
func (e *EMA) Reset() {
	e.seed.Reset()
	e.value, e.count = 0, 0
}
