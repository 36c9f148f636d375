package domain

import "time"

// Event is an immutable snapshot of market data at a single simulated instant:
// a time stamp plus the price action observed per asset at that time. All
// price actions in one event share the event's time. The constructor copies
// the supplied map, and accessors never expose the internal map, so an event
// can be shared freely once built.
type Event struct {
	time   time.Time
	prices map[Asset]PriceAction
}

// NewEvent builds an event for the given instant. The prices map is copied.
func NewEvent(t time.Time, prices map[Asset]PriceAction) Event {
	cp := make(map[Asset]PriceAction, len(prices))
	for asset, action := range prices {
		cp[asset] = action
	}
	return Event{time: t, prices: cp}
}

// Time returns the simulated instant this event was observed at.
func (e Event) Time() time.Time {
	return e.time
}

// Action returns the price action for an asset, if the event carries one.
func (e Event) Action(asset Asset) (PriceAction, bool) {
	action, ok := e.prices[asset]
	return action, ok
}

// Price returns the reference price of the given type for an asset. The
// second return is false when the event has no data for the asset (a data
// gap this step).
func (e Event) Price(asset Asset, pt PriceType) (float64, bool) {
	action, ok := e.prices[asset]
	if !ok {
		return 0, false
	}
	return action.Price(pt), true
}

// Assets returns the assets that have price data in this event.
func (e Event) Assets() []Asset {
	assets := make([]Asset, 0, len(e.prices))
	for asset := range e.prices {
		assets = append(assets, asset)
	}
	return assets
}

// Empty reports whether the event carries no price data.
func (e Event) Empty() bool {
	return len(e.prices) == 0
}
