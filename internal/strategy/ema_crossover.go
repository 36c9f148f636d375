package strategy

import (
	"context"
	"fmt"
	"sort"

	"quantsim/internal/domain"
	"quantsim/internal/ports"
	"quantsim/internal/strategy/indicators"
)

// EMACrossover emits a buy signal when the fast EMA crosses above the slow
// EMA and a sell signal on the opposite crossing. State is kept per asset;
// the strategy never sees account or broker state.
type EMACrossover struct {
	fastPeriod int
	slowPeriod int
	priceType  domain.PriceType
	state      map[domain.Asset]*crossState
}

type crossState struct {
	fast *indicators.EMA
	slow *indicators.EMA
	// side is -1 while the fast EMA is below the slow one, +1 while above,
	// and 0 until they first diverge. Tracking equality as its own state
	// means the first move away from a tie still counts as a crossing.
	side int
}

// NewEMACrossover returns a crossover strategy; the fast period must be
// shorter than the slow one.
func NewEMACrossover(fastPeriod, slowPeriod int) (*EMACrossover, error) {
	if fastPeriod <= 0 || slowPeriod <= 0 {
		return nil, fmt.Errorf("EMA periods must be positive, got %d/%d", fastPeriod, slowPeriod)
	}
	if fastPeriod >= slowPeriod {
		return nil, fmt.Errorf("fast period %d must be shorter than slow period %d", fastPeriod, slowPeriod)
	}
	return &EMACrossover{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
		priceType:  domain.PriceClose,
		state:      make(map[domain.Asset]*crossState),
	}, nil
}

func (s *EMACrossover) Generate(ctx context.Context, event domain.Event) []domain.Signal {
	// Sorted assets keep the signal order deterministic across runs.
	assets := event.Assets()
	sort.Slice(assets, func(i, j int) bool { return assets[i].Symbol < assets[j].Symbol })

	var signals []domain.Signal
	for _, asset := range assets {
		price, ok := event.Price(asset, s.priceType)
		if !ok {
			continue
		}
		st := s.assetState(asset)
		st.fast.Update(price)
		st.slow.Update(price)
		if !st.slow.Ready() {
			continue
		}

		var side int
		switch diff := st.fast.Value() - st.slow.Value(); {
		case diff > 0:
			side = 1
		case diff < 0:
			side = -1
		}
		// A tie changes nothing; the last side stands until crossed.
		if side == 0 || side == st.side {
			continue
		}
		if side > 0 {
			signals = append(signals, domain.BuySignal(asset))
		} else {
			signals = append(signals, domain.SellSignal(asset))
		}
		st.side = side
	}
	return signals
}

func (s *EMACrossover) assetState(asset domain.Asset) *crossState {
	if st, ok := s.state[asset]; ok {
		return st
	}
	fast, _ := indicators.NewEMA(s.fastPeriod)
	slow, _ := indicators.NewEMA(s.slowPeriod)
	st := &crossState{fast: fast, slow: slow}
	s.state[asset] = st
	return st
}

func (s *EMACrossover) Start(ports.Phase) {}
func (s *EMACrossover) End(ports.Phase)   {}

func (s *EMACrossover) Reset() {
	s.state = make(map[domain.Asset]*crossState)
}

var _ ports.Strategy = (*EMACrossover)(nil)
