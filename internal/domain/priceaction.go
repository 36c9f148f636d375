package domain

// PriceType selects which reference price to read from a PriceAction.
type PriceType string

const (
	PriceOpen  PriceType = "OPEN"
	PriceHigh  PriceType = "HIGH"
	PriceLow   PriceType = "LOW"
	PriceClose PriceType = "CLOSE"
	PriceMid   PriceType = "MID"
)

// PriceAction is one observation of an asset's price at a single instant.
// The set of implementations is closed (Bar, Quote, TradePrice, OrderBook);
// the unexported marker method prevents implementations outside this package,
// so switches over the concrete types can be exhaustive.
type PriceAction interface {
	// Price returns the reference price for the given price type. Types that
	// do not apply to the action (e.g. PriceOpen on a quote) fall back to the
	// action's natural price.
	Price(pt PriceType) float64
	// RangeLow returns the lowest price covered by this action. For point
	// observations the range collapses to the single price.
	RangeLow() float64
	// RangeHigh returns the highest price covered by this action.
	RangeHigh() float64

	priceAction()
}

// Bar is an OHLCV candlestick covering one interval ending at the event time.
type Bar struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// NewBar returns a bar with the given OHLCV values.
func NewBar(open, high, low, closePrice, volume float64) Bar {
	return Bar{Open: open, High: high, Low: low, Close: closePrice, Volume: volume}
}

func (b Bar) Price(pt PriceType) float64 {
	switch pt {
	case PriceOpen:
		return b.Open
	case PriceHigh:
		return b.High
	case PriceLow:
		return b.Low
	case PriceMid:
		return (b.High + b.Low) / 2
	default:
		return b.Close
	}
}

func (b Bar) RangeLow() float64  { return b.Low }
func (b Bar) RangeHigh() float64 { return b.High }
func (b Bar) priceAction()       {}

// Quote is a top-of-book bid/ask observation.
type Quote struct {
	AskPrice float64
	AskSize  float64
	BidPrice float64
	BidSize  float64
}

func (q Quote) Price(pt PriceType) float64 {
	switch pt {
	case PriceHigh:
		return q.AskPrice
	case PriceLow:
		return q.BidPrice
	default:
		return (q.AskPrice + q.BidPrice) / 2
	}
}

func (q Quote) RangeLow() float64  { return q.BidPrice }
func (q Quote) RangeHigh() float64 { return q.AskPrice }
func (q Quote) priceAction()       {}

// TradePrice is a single traded price (tick data).
type TradePrice struct {
	Last   float64
	Volume float64
}

func (t TradePrice) Price(PriceType) float64 { return t.Last }
func (t TradePrice) RangeLow() float64       { return t.Last }
func (t TradePrice) RangeHigh() float64      { return t.Last }
func (t TradePrice) priceAction()            {}

// OrderBookEntry is one price level of an order-book snapshot.
type OrderBookEntry struct {
	Price float64
	Size  float64
}

// OrderBook is a depth snapshot. Entries are expected best-first.
type OrderBook struct {
	Asks []OrderBookEntry
	Bids []OrderBookEntry
}

func (o OrderBook) bestAsk() float64 {
	if len(o.Asks) == 0 {
		return 0
	}
	return o.Asks[0].Price
}

func (o OrderBook) bestBid() float64 {
	if len(o.Bids) == 0 {
		return 0
	}
	return o.Bids[0].Price
}

func (o OrderBook) Price(pt PriceType) float64 {
	switch pt {
	case PriceHigh:
		return o.bestAsk()
	case PriceLow:
		return o.bestBid()
	default:
		return (o.bestAsk() + o.bestBid()) / 2
	}
}

func (o OrderBook) RangeLow() float64  { return o.bestBid() }
func (o OrderBook) RangeHigh() float64 { return o.bestAsk() }
func (o OrderBook) priceAction()       {}
