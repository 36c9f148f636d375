package broker

import (
	"math"
	"time"

	"quantsim/internal/domain"
)

// workingOrder is the broker-side execution state of one accepted single
// order. Linkage between composite legs is wired at placement: when this
// order fills, every order in cancels is cancelled and every order in
// activates starts working. The order value itself stays immutable.
type workingOrder struct {
	order     domain.SingleOrder
	parent    domain.OrderID // 0 when the order was placed on its own
	final     bool           // filling this leg also completes the parent
	cancels   []*workingOrder
	activates []*workingOrder

	// activatedAt is the simulated time the leg started working. Matching
	// only considers events strictly after it, so a leg activated by a fill
	// at time t first matches the next event, and re-syncing the same event
	// cannot fill it.
	activatedAt time.Time

	// trailing / stop execution state
	best      float64
	triggered bool
}

// fill is the outcome of matching one working order against a price action.
type fill struct {
	price float64
	ok    bool
}

func noFill() fill          { return fill{} }
func fillAt(p float64) fill { return fill{price: p, ok: true} }

// match evaluates the order's fill condition against the price action of its
// asset for the current step. ref is the broker's configured reference price
// read from the same action. Full fills only; partial fills are not modeled.
func (w *workingOrder) match(action domain.PriceAction, ref float64) fill {
	buy := w.order.Size() > 0
	switch o := w.order.(type) {
	case *domain.MarketOrder:
		return fillAt(ref)

	case *domain.LimitOrder:
		return matchLimit(buy, o.Limit, action, ref)

	case *domain.StopOrder:
		if !stopTriggered(buy, o.Stop, action) {
			return noFill()
		}
		return fillAt(stopFillPrice(buy, o.Stop, ref))

	case *domain.StopLimitOrder:
		if !w.triggered && stopTriggered(buy, o.Stop, action) {
			w.triggered = true
		}
		if !w.triggered {
			return noFill()
		}
		return matchLimit(buy, o.Limit, action, ref)

	case *domain.TrailingStopOrder:
		w.ratchet(buy, o.TrailPercent, action)
		stop := w.trailingTrigger(buy, o.TrailPercent)
		if !stopTriggered(buy, stop, action) {
			return noFill()
		}
		return fillAt(stopFillPrice(buy, stop, ref))
	}
	return noFill()
}

// matchLimit applies the limit crossing rule: a buy limit fills only when
// the step's range reaches down to the limit, at min(limit, ref); a sell
// limit mirrors it.
func matchLimit(buy bool, limit float64, action domain.PriceAction, ref float64) fill {
	if buy {
		if action.RangeLow() <= limit {
			return fillAt(math.Min(limit, ref))
		}
		return noFill()
	}
	if action.RangeHigh() >= limit {
		return fillAt(math.Max(limit, ref))
	}
	return noFill()
}

// stopTriggered reports whether the step's price range crossed the trigger:
// upwards for buy stops, downwards for sell stops.
func stopTriggered(buy bool, stop float64, action domain.PriceAction) bool {
	if buy {
		return action.RangeHigh() >= stop
	}
	return action.RangeLow() <= stop
}

// stopFillPrice models a stop executing at its trigger when the market
// crossed it, and at the (worse) reference price when the market gapped
// through it.
func stopFillPrice(buy bool, stop, ref float64) float64 {
	if buy {
		return math.Max(stop, ref)
	}
	return math.Min(stop, ref)
}

// ratchet advances the trailing stop's best favorable price. The trigger
// derived from it only ever moves in the favorable direction: up for sell
// trails protecting longs, down for buy trails.
func (w *workingOrder) ratchet(buy bool, trail float64, action domain.PriceAction) {
	if buy {
		low := action.RangeLow()
		if w.best == 0 || low < w.best {
			w.best = low
		}
		return
	}
	high := action.RangeHigh()
	if high > w.best {
		w.best = high
	}
}

func (w *workingOrder) trailingTrigger(buy bool, trail float64) float64 {
	if buy {
		return w.best * (1 + trail)
	}
	return w.best * (1 - trail)
}
