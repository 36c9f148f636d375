// Package broker simulates order acceptance, matching and account mutation
// against the prices of each incoming event.
package broker

import (
	"context"
	"fmt"
	"math"
	"time"

	"quantsim/internal/domain"
	"quantsim/internal/ports"
)

// Config holds the construction parameters of a simulated broker.
type Config struct {
	// BaseCurrency is the currency the account reports equity and buying
	// power in. Required.
	BaseCurrency domain.Currency
	// Deposit is the initial cash. At least one amount is required, and every
	// deposit currency must be convertible by Rates.
	Deposit []domain.Amount
	// PriceType is the reference price used for market fills and valuation.
	// Defaults to the close price.
	PriceType domain.PriceType
	// FeeModel prices fills; defaults to no fee.
	FeeModel FeeModel
	// SlippageModel worsens fill prices; defaults to none.
	SlippageModel SlippageModel
	// AccountModel computes buying power; defaults to a plain cash account.
	AccountModel AccountModel
	// AllowShorting permits orders that open or extend a negative position.
	AllowShorting bool
	// Rates converts between currencies. Required.
	Rates ports.ExchangeRates
	// Logger is required.
	Logger ports.Logger
}

// SimBroker holds the single mutable ledger of one simulation run: cash,
// positions, trades and the order-state table. It is owned by exactly one
// run and is never called concurrently; every Sync produces an immutable
// account snapshot for the read-only consumers.
type SimBroker struct {
	cfg      Config
	logger   ports.Logger
	rates    ports.ExchangeRates
	fees     FeeModel
	slippage SlippageModel
	model    AccountModel

	wallet    *domain.Wallet
	positions map[domain.Asset]domain.Position
	trades    []domain.Trade
	states    map[domain.OrderID]domain.OrderState
	open      []*workingOrder
	lastPrice map[domain.Asset]float64
	nextID    domain.OrderID
	lastTime  time.Time
}

// New validates the configuration and returns a broker holding the initial
// deposit.
func New(cfg Config) (*SimBroker, error) {
	if cfg.BaseCurrency == "" {
		return nil, fmt.Errorf("%w: base currency is required", ports.ErrConfiguration)
	}
	if cfg.Rates == nil {
		return nil, fmt.Errorf("%w: exchange rates provider is required", ports.ErrConfiguration)
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required", ports.ErrConfiguration)
	}
	if len(cfg.Deposit) == 0 {
		return nil, fmt.Errorf("%w: an initial deposit is required", ports.ErrConfiguration)
	}
	if cfg.PriceType == "" {
		cfg.PriceType = domain.PriceClose
	}
	if cfg.FeeModel == nil {
		cfg.FeeModel = PercentageFee{}
	}
	if cfg.SlippageModel == nil {
		cfg.SlippageModel = SpreadSlippage{}
	}
	if cfg.AccountModel == nil {
		cfg.AccountModel = CashModel{}
	}

	wallet := domain.NewWallet()
	for _, amount := range cfg.Deposit {
		if _, err := cfg.Rates.Convert(amount, cfg.BaseCurrency, time.Time{}); err != nil {
			return nil, fmt.Errorf("%w: deposit currency %s is not convertible to %s",
				ports.ErrConfiguration, amount.Currency, cfg.BaseCurrency)
		}
		wallet.Deposit(amount)
	}

	return &SimBroker{
		cfg:       cfg,
		logger:    cfg.Logger,
		rates:     cfg.Rates,
		fees:      cfg.FeeModel,
		slippage:  cfg.SlippageModel,
		model:     cfg.AccountModel,
		wallet:    wallet,
		positions: make(map[domain.Asset]domain.Position),
		states:    make(map[domain.OrderID]domain.OrderState),
		lastPrice: make(map[domain.Asset]float64),
	}, nil
}

func (b *SimBroker) allocID() domain.OrderID {
	b.nextID++
	return b.nextID
}

// Place validates and registers the given orders. Each order ends up either
// ACCEPTED and working, or REJECTED with a reason in the order-state table;
// a rejection is terminal for that order and is never an error for the
// caller. Orders are never resized to fit.
func (b *SimBroker) Place(ctx context.Context, orders []domain.Order) {
	for _, order := range orders {
		domain.AssignIDs(order, b.allocID)
		legs := b.expand(order)

		state := domain.NewOrderState(order)
		if reason := b.validate(order, legs); reason != "" {
			b.states[order.ID()] = state.Reject(b.lastTime, reason)
			b.logger.Warn(ctx, "order rejected", map[string]interface{}{
				"order": order.ID(), "asset": order.Asset().Symbol, "reason": reason,
			})
			continue
		}

		b.states[order.ID()] = state.Update(domain.StatusAccepted, b.lastTime)
		for _, leg := range legs {
			b.activate(leg)
		}
		b.logger.Debug(ctx, "order accepted", map[string]interface{}{
			"order": order.ID(), "asset": order.Asset().Symbol,
		})
	}
}

// expand turns an order into its initially active working legs and wires the
// cancel/activate linkage between composite legs. Legs that only start
// working later (bracket exits, OTO secondary) appear in the order-state
// table when they are activated.
func (b *SimBroker) expand(order domain.Order) []*workingOrder {
	switch o := order.(type) {
	case *domain.BracketOrder:
		entry := &workingOrder{order: o.Entry, parent: o.ID()}
		tp := &workingOrder{order: o.TakeProfit, parent: o.ID(), final: true}
		sl := &workingOrder{order: o.StopLoss, parent: o.ID(), final: true}
		tp.cancels = []*workingOrder{sl}
		sl.cancels = []*workingOrder{tp}
		entry.activates = []*workingOrder{tp, sl}
		return []*workingOrder{entry}

	case *domain.OCOOrder:
		first := &workingOrder{order: o.First, parent: o.ID(), final: true}
		second := &workingOrder{order: o.Second, parent: o.ID(), final: true}
		first.cancels = []*workingOrder{second}
		second.cancels = []*workingOrder{first}
		return []*workingOrder{first, second}

	case *domain.OTOOrder:
		primary := &workingOrder{order: o.Primary, parent: o.ID()}
		secondary := &workingOrder{order: o.Secondary, parent: o.ID(), final: true}
		primary.activates = []*workingOrder{secondary}
		return []*workingOrder{primary}

	case domain.SingleOrder:
		return []*workingOrder{{order: o}}
	}
	return nil
}

// validate applies the acceptance checks to an order's initially active
// legs. It returns an empty string when the order is acceptable, otherwise
// the rejection reason.
func (b *SimBroker) validate(order domain.Order, legs []*workingOrder) string {
	currency := order.Asset().Currency
	if _, err := b.rates.Convert(domain.NewAmount(currency, 1), b.cfg.BaseCurrency, b.lastTime); err != nil {
		return fmt.Sprintf("unsupported asset currency %s", currency)
	}

	if !b.cfg.AllowShorting {
		for _, leg := range legs {
			pos := b.position(leg.order.Asset())
			if pos.Size+leg.order.Size() < 0 {
				return "shorting not allowed"
			}
		}
	}

	// For an OCO pair at most one leg can ever fill, so the required buying
	// power is the worst leg, not the sum.
	var cost float64
	for _, leg := range legs {
		cost = math.Max(cost, b.estimatedCost(leg.order))
	}
	if cost > 0 && cost > b.availableBuyingPower() {
		return fmt.Sprintf("insufficient buying power: need %.2f %s", cost, b.cfg.BaseCurrency)
	}
	return ""
}

// estimatedCost returns the buying power an order would consume, in the base
// currency. Orders that reduce existing exposure cost nothing; orders with
// no price reference yet (market order before the first event for its
// asset) cannot be estimated and are accepted at zero cost.
func (b *SimBroker) estimatedCost(order domain.SingleOrder) float64 {
	asset := order.Asset()
	pos := b.position(asset)
	if math.Abs(pos.Size+order.Size()) <= math.Abs(pos.Size) {
		return 0
	}

	var price float64
	switch o := order.(type) {
	case *domain.LimitOrder:
		price = o.Limit
	case *domain.StopLimitOrder:
		price = o.Limit
	case *domain.StopOrder:
		price = o.Stop
	default:
		price = b.lastPrice[asset]
	}
	if price == 0 {
		return 0
	}

	value := domain.NewAmount(asset.Currency, math.Abs(order.Size())*price)
	converted, err := b.rates.Convert(value, b.cfg.BaseCurrency, b.lastTime)
	if err != nil {
		return 0
	}
	return converted.Value
}

// Sync processes one event: it refreshes valuations, expires stale orders,
// matches every open order whose asset has a price this step, applies the
// resulting fills and returns a fresh account snapshot. An asset without a
// price this step is a data gap; its orders stay open and are retried on the
// next event. Syncing the same event twice without an intervening Place
// causes no further fills and no account change.
func (b *SimBroker) Sync(ctx context.Context, event domain.Event) *domain.Account {
	t := event.Time()
	b.lastTime = t

	for _, asset := range event.Assets() {
		price, ok := event.Price(asset, b.cfg.PriceType)
		if !ok {
			continue
		}
		b.lastPrice[asset] = price
		if pos, held := b.positions[asset]; held {
			pos.MarketPrice = price
			b.positions[asset] = pos
		}
	}

	b.expire(ctx, t)

	// Work on a snapshot of the open list because fills mutate it. The
	// activation stamp keeps legs activated at this event's time out of
	// matching until a strictly later event, which also makes re-syncing the
	// same event a no-op.
	working := append([]*workingOrder(nil), b.open...)
	for _, wo := range working {
		if !b.isWorking(wo) || !t.After(wo.activatedAt) {
			continue
		}
		action, ok := event.Action(wo.order.Asset())
		if !ok {
			continue
		}
		ref := action.Price(b.cfg.PriceType)
		if f := wo.match(action, ref); f.ok {
			b.applyFill(ctx, wo, f.price, t)
		}
	}

	return b.snapshot(t)
}

// Account returns a snapshot of the current ledger without processing an
// event.
func (b *SimBroker) Account() *domain.Account {
	return b.snapshot(b.lastTime)
}

func (b *SimBroker) position(asset domain.Asset) domain.Position {
	if pos, ok := b.positions[asset]; ok {
		return pos
	}
	return domain.Position{Currency: asset.Currency}
}

func (b *SimBroker) isWorking(wo *workingOrder) bool {
	return b.states[wo.order.ID()].Status == domain.StatusAccepted
}

// activate registers a leg as working: it enters the order-state table as
// ACCEPTED and joins the open list, stamped with the current simulated time
// so it only matches strictly later events.
func (b *SimBroker) activate(wo *workingOrder) {
	state := domain.NewOrderState(wo.order)
	b.states[wo.order.ID()] = state.Update(domain.StatusAccepted, b.lastTime)
	wo.activatedAt = b.lastTime
	b.open = append(b.open, wo)
}

func (b *SimBroker) close(wo *workingOrder, status domain.OrderStatus, t time.Time, reason string) {
	state := b.states[wo.order.ID()].Update(status, t)
	if reason != "" {
		state.Reason = reason
	}
	b.states[wo.order.ID()] = state
	for i, other := range b.open {
		if other == wo {
			b.open = append(b.open[:i], b.open[i+1:]...)
			break
		}
	}
}

// applyFill executes a full fill: slippage and fees are applied, the
// position is updated (weighted-average on adds, realized P&L on reduce or
// flip), cash flows in the asset's currency, a trade is recorded and the
// composite linkage reacts.
func (b *SimBroker) applyFill(ctx context.Context, wo *workingOrder, price float64, t time.Time) {
	order := wo.order
	asset := order.Asset()
	size := order.Size()

	price = b.slippage.Apply(size, price)
	fee := b.fees.Fee(size, price)

	pos, realized := updatePosition(b.position(asset), size, price)
	if pos.Open() {
		b.positions[asset] = pos
	} else {
		delete(b.positions, asset)
	}

	b.wallet.Withdraw(domain.NewAmount(asset.Currency, size*price+fee))
	b.trades = append(b.trades, domain.Trade{
		Asset:   asset,
		Size:    size,
		Price:   price,
		Fee:     fee,
		PNL:     realized,
		Time:    t,
		OrderID: order.ID(),
	})

	b.close(wo, domain.StatusCompleted, t, "")
	for _, sibling := range wo.cancels {
		if b.isWorking(sibling) {
			b.close(sibling, domain.StatusCancelled, t, "linked order filled")
		}
	}
	for _, leg := range wo.activates {
		b.activate(leg)
	}
	if wo.parent != 0 && wo.final {
		b.states[wo.parent] = b.states[wo.parent].Update(domain.StatusCompleted, t)
	}

	b.logger.Debug(ctx, "order filled", map[string]interface{}{
		"order": order.ID(), "asset": asset.Symbol, "size": size, "price": price, "fee": fee,
	})
}

// updatePosition merges a fill into a position and returns the realized
// profit or loss: zero on a same-direction add, the closed quantity's P&L on
// a reduce, and the whole old position's P&L on a flip.
func updatePosition(pos domain.Position, size, price float64) (domain.Position, float64) {
	newSize := pos.Size + size
	switch {
	case pos.Size == 0 || pos.Size*size > 0:
		avg := (pos.AvgPrice*pos.Size + price*size) / newSize
		return domain.Position{Size: newSize, AvgPrice: avg, MarketPrice: price, Currency: pos.Currency}, 0

	case math.Abs(size) <= math.Abs(pos.Size):
		realized := -size * (price - pos.AvgPrice)
		avg := pos.AvgPrice
		if newSize == 0 {
			avg = 0
		}
		return domain.Position{Size: newSize, AvgPrice: avg, MarketPrice: price, Currency: pos.Currency}, realized

	default:
		realized := pos.Size * (price - pos.AvgPrice)
		return domain.Position{Size: newSize, AvgPrice: price, MarketPrice: price, Currency: pos.Currency}, realized
	}
}

// expire closes DAY orders on a later calendar day than they opened and GTD
// orders past their expiry. Expiring an order that gates inactive legs
// (bracket entry, OTO primary) also expires its parent; the gated legs never
// start working.
func (b *SimBroker) expire(ctx context.Context, t time.Time) {
	working := append([]*workingOrder(nil), b.open...)
	for _, wo := range working {
		if !b.isWorking(wo) {
			continue
		}
		state := b.states[wo.order.ID()]
		expired := false
		switch wo.order.TIF() {
		case domain.TIFDay:
			if !state.OpenedAt.IsZero() && laterDay(state.OpenedAt, t) {
				expired = true
			}
		case domain.TIFGoodTillDate:
			if !t.Before(wo.order.Expiry()) {
				expired = true
			}
		}
		if !expired {
			continue
		}
		b.close(wo, domain.StatusExpired, t, "")
		if wo.parent != 0 && (wo.final || len(wo.activates) > 0) {
			b.states[wo.parent] = b.states[wo.parent].Update(domain.StatusExpired, t)
		}
		b.logger.Debug(ctx, "order expired", map[string]interface{}{
			"order": wo.order.ID(), "asset": wo.order.Asset().Symbol,
		})
	}
}

func laterDay(opened, now time.Time) bool {
	oy, om, od := opened.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	return ny > oy || (ny == oy && (nm > om || (nm == om && nd > od)))
}

// reserved sums the buying power already committed to open orders.
func (b *SimBroker) reserved() float64 {
	var total float64
	for _, wo := range b.open {
		if b.isWorking(wo) {
			total += b.estimatedCost(wo.order)
		}
	}
	return total
}

func (b *SimBroker) availableBuyingPower() float64 {
	cash, equity, exposure := b.valuation()
	return b.model.BuyingPower(cash, equity, exposure) - b.reserved()
}

// valuation converts the ledger into base-currency cash, equity and gross
// exposure. Conversion cannot fail here: every currency in the ledger was
// checked when its order or deposit was accepted.
func (b *SimBroker) valuation() (cash, equity, exposure float64) {
	for _, amount := range b.wallet.Amounts() {
		converted, err := b.rates.Convert(amount, b.cfg.BaseCurrency, b.lastTime)
		if err != nil {
			continue
		}
		cash += converted.Value
	}
	equity = cash
	for _, pos := range b.positions {
		value, err := b.rates.Convert(domain.NewAmount(pos.Currency, pos.Value()), b.cfg.BaseCurrency, b.lastTime)
		if err != nil {
			continue
		}
		equity += value.Value
		exposure += math.Abs(value.Value)
	}
	return cash, equity, exposure
}

// snapshot builds the read-only account view: defensive copies of the
// wallet, positions and order states plus precomputed equity and buying
// power in the base currency.
func (b *SimBroker) snapshot(t time.Time) *domain.Account {
	cash, equity, exposure := b.valuation()

	positions := make(map[domain.Asset]domain.Position, len(b.positions))
	for asset, pos := range b.positions {
		positions[asset] = pos
	}
	states := make(map[domain.OrderID]domain.OrderState, len(b.states))
	for id, state := range b.states {
		states[id] = state
	}
	trades := append([]domain.Trade(nil), b.trades...)

	return &domain.Account{
		BaseCurrency: b.cfg.BaseCurrency,
		Cash:         b.wallet.Clone(),
		Positions:    positions,
		Trades:       trades,
		Orders:       states,
		EquityValue:  equity,
		BuyingPower:  b.model.BuyingPower(cash, equity, exposure) - b.reserved(),
		LastUpdate:   t,
	}
}
