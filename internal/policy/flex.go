// Package policy translates strategy signals into sized, risk-checked
// orders against a read-only account snapshot.
package policy

import (
	"context"
	"fmt"
	"math"

	"quantsim/internal/domain"
	"quantsim/internal/ports"
)

// ConflictResolution decides what happens when one step carries several
// signals for the same asset.
type ConflictResolution string

const (
	// KeepFirst keeps the first signal per asset and drops the rest.
	KeepFirst ConflictResolution = "KEEP_FIRST"
	// KeepLast keeps the last signal per asset.
	KeepLast ConflictResolution = "KEEP_LAST"
	// DropAll drops every signal for an asset whose signals disagree on
	// direction; agreeing duplicates collapse to the first.
	DropAll ConflictResolution = "DROP_ALL"
	// Dedup collapses same-direction duplicates to the first but lets
	// disagreeing signals pass through.
	Dedup ConflictResolution = "DEDUP"
)

// Config holds the sizing and risk parameters of a FlexPolicy.
type Config struct {
	// OrderPercent is the fraction of account equity committed per order,
	// in (0, 1]. Required.
	OrderPercent float64
	// MaxPositions caps open positions plus working entry orders plus new
	// entries per step. Zero means no cap.
	MaxPositions int
	// Shorting permits entry orders on sell signals.
	Shorting bool
	// FractionalShares skips rounding order sizes down to whole units.
	FractionalShares bool
	// Conflict selects the same-asset conflict resolution; defaults to
	// KeepFirst.
	Conflict ConflictResolution
	// Rates converts equity into asset currencies for sizing. Required.
	Rates ports.ExchangeRates
	// Logger is required.
	Logger ports.Logger
}

// FlexPolicy is a deterministic signal-to-order translator: conflict
// resolution, percentage-of-equity sizing and risk gates, in that order.
// It holds no mutable state and never touches the account it is given.
type FlexPolicy struct {
	cfg    Config
	logger ports.Logger
}

// New validates the configuration and returns a policy.
func New(cfg Config) (*FlexPolicy, error) {
	if cfg.OrderPercent <= 0 || cfg.OrderPercent > 1 {
		return nil, fmt.Errorf("%w: order percent must be in (0, 1], got %v", ports.ErrConfiguration, cfg.OrderPercent)
	}
	if cfg.MaxPositions < 0 {
		return nil, fmt.Errorf("%w: max positions cannot be negative", ports.ErrConfiguration)
	}
	if cfg.Rates == nil {
		return nil, fmt.Errorf("%w: exchange rates provider is required", ports.ErrConfiguration)
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required", ports.ErrConfiguration)
	}
	if cfg.Conflict == "" {
		cfg.Conflict = KeepFirst
	}
	return &FlexPolicy{cfg: cfg, logger: cfg.Logger}, nil
}

// Act maps the step's signals to orders. Exits close existing positions at
// market; entries are sized as a percentage of equity and emitted as market
// orders, or as bracket orders when the signal carries take-profit or
// stop-loss hints. Signals that fail a risk gate simply produce no order.
func (p *FlexPolicy) Act(ctx context.Context, signals []domain.Signal, account *domain.Account, event domain.Event) []domain.Order {
	resolved := resolve(signals, p.cfg.Conflict)

	var orders []domain.Order
	entries := 0
	for _, sig := range resolved {
		pos := account.Position(sig.Asset)
		if pos.Open() {
			if order := p.exitOrder(sig, pos); order != nil {
				orders = append(orders, order)
			}
			continue
		}
		order, ok := p.entryOrder(ctx, sig, account, event, entries)
		if !ok {
			continue
		}
		orders = append(orders, order)
		entries++
	}
	return orders
}

// Reset is a no-op; the policy is stateless.
func (p *FlexPolicy) Reset() {}

// exitOrder closes an open position when the signal opposes it.
func (p *FlexPolicy) exitOrder(sig domain.Signal, pos domain.Position) domain.Order {
	if !sig.Exit() {
		return nil
	}
	opposes := pos.Long() && sig.IsSell() || pos.Short() && sig.IsBuy()
	if !opposes {
		return nil
	}
	order, err := domain.NewMarketOrder(sig.Asset, -pos.Size)
	if err != nil {
		return nil
	}
	return order
}

func (p *FlexPolicy) entryOrder(ctx context.Context, sig domain.Signal, account *domain.Account, event domain.Event, entries int) (domain.Order, bool) {
	if !sig.Entry() || sig.Rating == 0 {
		return nil, false
	}
	if sig.IsSell() && !p.cfg.Shorting {
		return nil, false
	}
	if p.cfg.MaxPositions > 0 && account.OpenPositions()+pendingEntries(account)+entries >= p.cfg.MaxPositions {
		return nil, false
	}

	price, ok := event.Price(sig.Asset, domain.PriceClose)
	if !ok || price <= 0 {
		return nil, false
	}

	budget := domain.NewAmount(account.BaseCurrency, account.EquityValue*p.cfg.OrderPercent)
	local, err := p.cfg.Rates.Convert(budget, sig.Asset.Currency, event.Time())
	if err != nil {
		p.logger.Debug(ctx, "skipping signal, cannot size order", map[string]interface{}{
			"asset": sig.Asset.Symbol, "error": err.Error(),
		})
		return nil, false
	}

	size := local.Value / price
	if !p.cfg.FractionalShares {
		size = math.Floor(size)
	}
	if size == 0 {
		return nil, false
	}
	if sig.IsSell() {
		size = -size
	}

	cost, err := p.cfg.Rates.Convert(domain.NewAmount(sig.Asset.Currency, math.Abs(size)*price), account.BaseCurrency, event.Time())
	if err != nil || cost.Value > account.BuyingPower {
		return nil, false
	}

	return p.buildEntry(sig, size)
}

// pendingEntries counts assets with a working order but no open position.
// Each such order may still become a position, so it holds a slot against
// the cap. Working orders on assets already held are protective exits and
// their slot is already counted by the position itself.
func pendingEntries(account *domain.Account) int {
	assets := map[domain.Asset]struct{}{}
	for _, state := range account.OpenOrders() {
		asset := state.Order.Asset()
		if account.Position(asset).Open() {
			continue
		}
		assets[asset] = struct{}{}
	}
	return len(assets)
}

// buildEntry returns a plain market order, or a bracket when the signal
// carries exit hints.
func (p *FlexPolicy) buildEntry(sig domain.Signal, size float64) (domain.Order, bool) {
	entry, err := domain.NewMarketOrder(sig.Asset, size)
	if err != nil {
		return nil, false
	}
	if sig.TakeProfit == 0 && sig.StopLoss == 0 {
		return entry, true
	}
	if sig.TakeProfit == 0 || sig.StopLoss == 0 {
		// Half a bracket degrades to an OTO pair with the single exit.
		var exit domain.SingleOrder
		if sig.TakeProfit > 0 {
			exit, err = domain.NewLimitOrder(sig.Asset, -size, sig.TakeProfit)
		} else {
			exit, err = domain.NewStopOrder(sig.Asset, -size, sig.StopLoss)
		}
		if err != nil {
			return nil, false
		}
		oto, err := domain.NewOTOOrder(entry, exit)
		if err != nil {
			return nil, false
		}
		return oto, true
	}
	takeProfit, err := domain.NewLimitOrder(sig.Asset, -size, sig.TakeProfit)
	if err != nil {
		return nil, false
	}
	stopLoss, err := domain.NewStopOrder(sig.Asset, -size, sig.StopLoss)
	if err != nil {
		return nil, false
	}
	bracket, err := domain.NewBracketOrder(entry, takeProfit, stopLoss)
	if err != nil {
		return nil, false
	}
	return bracket, true
}

// resolve applies the configured same-asset conflict resolution while
// preserving the relative order of the surviving signals.
func resolve(signals []domain.Signal, mode ConflictResolution) []domain.Signal {
	if len(signals) < 2 {
		return signals
	}
	switch mode {
	case KeepLast:
		var out []domain.Signal
		for i, sig := range signals {
			last := true
			for _, later := range signals[i+1:] {
				if later.Asset == sig.Asset {
					last = false
					break
				}
			}
			if last {
				out = append(out, sig)
			}
		}
		return out

	case DropAll:
		var out []domain.Signal
		for i, sig := range signals {
			conflicted := false
			duplicate := false
			for j, other := range signals {
				if i == j || other.Asset != sig.Asset {
					continue
				}
				if sig.Conflicts(other) {
					conflicted = true
				} else if j < i {
					duplicate = true
				}
			}
			if conflicted || duplicate {
				continue
			}
			out = append(out, sig)
		}
		return out

	case Dedup:
		// Only same-direction duplicates collapse; disagreeing signals pass
		// through for the downstream gates to sort out.
		var out []domain.Signal
		for i, sig := range signals {
			duplicate := false
			for _, earlier := range signals[:i] {
				if earlier.Asset == sig.Asset && !sig.Conflicts(earlier) {
					duplicate = true
					break
				}
			}
			if !duplicate {
				out = append(out, sig)
			}
		}
		return out

	default: // KeepFirst
		var out []domain.Signal
		for i, sig := range signals {
			first := true
			for _, earlier := range signals[:i] {
				if earlier.Asset == sig.Asset {
					first = false
					break
				}
			}
			if first {
				out = append(out, sig)
			}
		}
		return out
	}
}
