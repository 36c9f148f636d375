package domain

import (
	"fmt"
	"time"
)

// OrderID identifies an order within one simulation run. IDs are assigned by
// the broker when an order is placed; a freshly constructed order has ID 0.
type OrderID int64

// TimeInForce bounds how long a working order stays open.
type TimeInForce string

const (
	// TIFGoodTillCancelled keeps an order open until filled or cancelled.
	TIFGoodTillCancelled TimeInForce = "GTC"
	// TIFDay expires an order at the end of the day it was opened on.
	TIFDay TimeInForce = "DAY"
	// TIFGoodTillDate expires an order at its configured expiry time.
	TIFGoodTillDate TimeInForce = "GTD"
)

// Order is a request to trade. The set of implementations is closed: the
// single-leg kinds (market, limit, stop, stop-limit, trailing stop) and the
// composite kinds (bracket, OCO, OTO). Orders describe intent only; working
// state (trailing triggers, leg activation) lives in the broker.
type Order interface {
	ID() OrderID
	Asset() Asset

	setID(id OrderID)
}

// SingleOrder is a single-leg order with a signed size: positive buys,
// negative sells.
type SingleOrder interface {
	Order
	Size() float64
	TIF() TimeInForce
	Expiry() time.Time
	Tag() string
}

// OrderOption configures optional fields on a single-leg order.
type OrderOption func(*orderBase)

// WithTIF sets the order's time in force.
func WithTIF(tif TimeInForce) OrderOption {
	return func(b *orderBase) { b.tif = tif }
}

// WithExpiry sets the expiry instant and implies TIFGoodTillDate.
func WithExpiry(at time.Time) OrderOption {
	return func(b *orderBase) {
		b.tif = TIFGoodTillDate
		b.expiry = at
	}
}

// WithTag attaches a free-form tag carried through to order state and trades.
func WithTag(tag string) OrderOption {
	return func(b *orderBase) { b.tag = tag }
}

type orderBase struct {
	id     OrderID
	asset  Asset
	size   float64
	tif    TimeInForce
	expiry time.Time
	tag    string
}

func newOrderBase(asset Asset, size float64, opts []OrderOption) (orderBase, error) {
	if size == 0 {
		return orderBase{}, fmt.Errorf("order size must be non-zero for %s", asset.Symbol)
	}
	b := orderBase{asset: asset, size: size, tif: TIFGoodTillCancelled}
	for _, opt := range opts {
		opt(&b)
	}
	if b.tif == TIFGoodTillDate && b.expiry.IsZero() {
		return orderBase{}, fmt.Errorf("GTD order for %s requires an expiry", asset.Symbol)
	}
	return b, nil
}

func (b *orderBase) ID() OrderID       { return b.id }
func (b *orderBase) Asset() Asset      { return b.asset }
func (b *orderBase) Size() float64     { return b.size }
func (b *orderBase) TIF() TimeInForce  { return b.tif }
func (b *orderBase) Expiry() time.Time { return b.expiry }
func (b *orderBase) Tag() string       { return b.tag }
func (b *orderBase) setID(id OrderID)  { b.id = id }

// MarketOrder fills immediately at the broker's reference price.
type MarketOrder struct {
	orderBase
}

// NewMarketOrder returns a market order for a signed size.
func NewMarketOrder(asset Asset, size float64, opts ...OrderOption) (*MarketOrder, error) {
	base, err := newOrderBase(asset, size, opts)
	if err != nil {
		return nil, err
	}
	return &MarketOrder{orderBase: base}, nil
}

// LimitOrder fills only when the market crosses its limit price.
type LimitOrder struct {
	orderBase
	Limit float64
}

// NewLimitOrder returns a limit order; the limit price must be positive.
func NewLimitOrder(asset Asset, size, limit float64, opts ...OrderOption) (*LimitOrder, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit price must be positive, got %v", limit)
	}
	base, err := newOrderBase(asset, size, opts)
	if err != nil {
		return nil, err
	}
	return &LimitOrder{orderBase: base, Limit: limit}, nil
}

// StopOrder becomes a market order once the price crosses its stop trigger.
type StopOrder struct {
	orderBase
	Stop float64
}

// NewStopOrder returns a stop order; the stop price must be positive.
func NewStopOrder(asset Asset, size, stop float64, opts ...OrderOption) (*StopOrder, error) {
	if stop <= 0 {
		return nil, fmt.Errorf("stop price must be positive, got %v", stop)
	}
	base, err := newOrderBase(asset, size, opts)
	if err != nil {
		return nil, err
	}
	return &StopOrder{orderBase: base, Stop: stop}, nil
}

// StopLimitOrder becomes a limit order once the price crosses its stop trigger.
type StopLimitOrder struct {
	orderBase
	Stop  float64
	Limit float64
}

// NewStopLimitOrder returns a stop-limit order; both prices must be positive.
func NewStopLimitOrder(asset Asset, size, stop, limit float64, opts ...OrderOption) (*StopLimitOrder, error) {
	if stop <= 0 || limit <= 0 {
		return nil, fmt.Errorf("stop and limit prices must be positive, got %v/%v", stop, limit)
	}
	base, err := newOrderBase(asset, size, opts)
	if err != nil {
		return nil, err
	}
	return &StopLimitOrder{orderBase: base, Stop: stop, Limit: limit}, nil
}

// TrailingStopOrder is a stop order whose trigger trails the best price seen
// since acceptance by a fixed percentage. The broker owns the trailing state;
// the order only carries the trail distance.
type TrailingStopOrder struct {
	orderBase
	TrailPercent float64
}

// NewTrailingStopOrder returns a trailing stop; the trail must be in (0, 1).
func NewTrailingStopOrder(asset Asset, size, trailPercent float64, opts ...OrderOption) (*TrailingStopOrder, error) {
	if trailPercent <= 0 || trailPercent >= 1 {
		return nil, fmt.Errorf("trail percent must be in (0, 1), got %v", trailPercent)
	}
	base, err := newOrderBase(asset, size, opts)
	if err != nil {
		return nil, err
	}
	return &TrailingStopOrder{orderBase: base, TrailPercent: trailPercent}, nil
}

// BracketOrder is an entry order armed with a take-profit and a stop-loss
// exit. Once the entry fills the two exits behave as an OCO pair: the first
// to fill cancels the other.
type BracketOrder struct {
	id         OrderID
	Entry      SingleOrder
	TakeProfit SingleOrder
	StopLoss   SingleOrder
}

// NewBracketOrder validates the leg linkage up front: all legs must share one
// asset and both exits must exactly oppose the entry size.
func NewBracketOrder(entry, takeProfit, stopLoss SingleOrder) (*BracketOrder, error) {
	if entry == nil || takeProfit == nil || stopLoss == nil {
		return nil, fmt.Errorf("bracket order requires entry, take-profit and stop-loss legs")
	}
	if entry.Asset() != takeProfit.Asset() || entry.Asset() != stopLoss.Asset() {
		return nil, fmt.Errorf("bracket order legs must share one asset, got %s/%s/%s",
			entry.Asset().Symbol, takeProfit.Asset().Symbol, stopLoss.Asset().Symbol)
	}
	if takeProfit.Size() != -entry.Size() || stopLoss.Size() != -entry.Size() {
		return nil, fmt.Errorf("bracket exit legs must oppose the entry size %v", entry.Size())
	}
	return &BracketOrder{Entry: entry, TakeProfit: takeProfit, StopLoss: stopLoss}, nil
}

func (o *BracketOrder) ID() OrderID      { return o.id }
func (o *BracketOrder) Asset() Asset     { return o.Entry.Asset() }
func (o *BracketOrder) setID(id OrderID) { o.id = id }

// OCOOrder holds two orders of which at most one may fill; filling either
// cancels the other.
type OCOOrder struct {
	id     OrderID
	First  SingleOrder
	Second SingleOrder
}

// NewOCOOrder validates that both legs trade the same asset.
func NewOCOOrder(first, second SingleOrder) (*OCOOrder, error) {
	if first == nil || second == nil {
		return nil, fmt.Errorf("OCO order requires two legs")
	}
	if first.Asset() != second.Asset() {
		return nil, fmt.Errorf("OCO order legs must share one asset, got %s/%s",
			first.Asset().Symbol, second.Asset().Symbol)
	}
	return &OCOOrder{First: first, Second: second}, nil
}

func (o *OCOOrder) ID() OrderID      { return o.id }
func (o *OCOOrder) Asset() Asset     { return o.First.Asset() }
func (o *OCOOrder) setID(id OrderID) { o.id = id }

// OTOOrder holds a primary order and a secondary order that only becomes
// active once the primary fills.
type OTOOrder struct {
	id        OrderID
	Primary   SingleOrder
	Secondary SingleOrder
}

// NewOTOOrder returns an OTO pair; both legs are required.
func NewOTOOrder(primary, secondary SingleOrder) (*OTOOrder, error) {
	if primary == nil || secondary == nil {
		return nil, fmt.Errorf("OTO order requires primary and secondary legs")
	}
	return &OTOOrder{Primary: primary, Secondary: secondary}, nil
}

func (o *OTOOrder) ID() OrderID      { return o.id }
func (o *OTOOrder) Asset() Asset     { return o.Primary.Asset() }
func (o *OTOOrder) setID(id OrderID) { o.id = id }

// AssignIDs gives the order and, for composites, every leg a fresh ID from
// the allocator. Brokers call this once at placement.
func AssignIDs(order Order, next func() OrderID) {
	order.setID(next())
	switch o := order.(type) {
	case *BracketOrder:
		o.Entry.setID(next())
		o.TakeProfit.setID(next())
		o.StopLoss.setID(next())
	case *OCOOrder:
		o.First.setID(next())
		o.Second.setID(next())
	case *OTOOrder:
		o.Primary.setID(next())
		o.Secondary.setID(next())
	}
}
