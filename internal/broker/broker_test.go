package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantsim/internal/adapters/logger"
	"quantsim/internal/domain"
	"quantsim/internal/rates"
)

var testAsset = domain.NewStock("AAPL", domain.USD)

func newTestBroker(t *testing.T, overrides func(*Config)) *SimBroker {
	t.Helper()
	cfg := Config{
		BaseCurrency: domain.USD,
		Deposit:      []domain.Amount{domain.NewAmount(domain.USD, 10_000)},
		Rates:        rates.NewFixedRates(domain.USD),
		Logger:       logger.Nop{},
	}
	if overrides != nil {
		overrides(&cfg)
	}
	b, err := New(cfg)
	require.NoError(t, err)
	return b
}

func barEvent(t time.Time, bar domain.Bar) domain.Event {
	return domain.NewEvent(t, map[domain.Asset]domain.PriceAction{testAsset: bar})
}

func step(n int) time.Time {
	return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Minute)
}

func placeOne(t *testing.T, b *SimBroker, order domain.Order, err error) {
	t.Helper()
	require.NoError(t, err)
	b.Place(context.Background(), []domain.Order{order})
}

func TestSimBroker_MarketOrderFillsAtReferencePrice(t *testing.T) {
	b := newTestBroker(t, nil)
	ctx := context.Background()

	// Seed a reference price so the cost estimate sees the market.
	b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 101, 99, 100, 0)))

	order, err := domain.NewMarketOrder(testAsset, 10)
	placeOne(t, b, order, err)

	account := b.Sync(ctx, barEvent(step(1), domain.NewBar(100, 102, 99, 101, 0)))

	pos := account.Position(testAsset)
	assert.InDelta(t, 10, pos.Size, 1e-9)
	assert.InDelta(t, 101, pos.AvgPrice, 1e-9)
	assert.InDelta(t, 10_000-10*101, account.Cash.Balance(domain.USD), 1e-9)
	require.Len(t, account.Trades, 1)
	assert.Equal(t, domain.StatusCompleted, account.Orders[order.ID()].Status)
}

func TestSimBroker_RoundTripConservesCash(t *testing.T) {
	b := newTestBroker(t, nil)
	ctx := context.Background()

	b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))
	buy, err := domain.NewMarketOrder(testAsset, 10)
	placeOne(t, b, buy, err)
	b.Sync(ctx, barEvent(step(1), domain.NewBar(100, 100, 100, 100, 0)))

	sell, err := domain.NewMarketOrder(testAsset, -10)
	placeOne(t, b, sell, err)
	account := b.Sync(ctx, barEvent(step(2), domain.NewBar(110, 110, 110, 110, 0)))

	assert.InDelta(t, 10_100, account.Cash.Balance(domain.USD), 1e-9)
	assert.Equal(t, 0, account.OpenPositions())
	require.Len(t, account.Trades, 2)
	assert.InDelta(t, 0, account.Trades[0].PNL, 1e-9)
	assert.InDelta(t, 100, account.Trades[1].PNL, 1e-9)
	assert.InDelta(t, 10_100, account.EquityValue, 1e-9)
}

func TestSimBroker_FeesAndSlippage(t *testing.T) {
	b := newTestBroker(t, func(cfg *Config) {
		cfg.FeeModel = PercentageFee{Percent: 0.01}
		cfg.SlippageModel = SpreadSlippage{BPS: 100} // 1%
	})
	ctx := context.Background()

	b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))
	order, err := domain.NewMarketOrder(testAsset, 10)
	placeOne(t, b, order, err)
	account := b.Sync(ctx, barEvent(step(1), domain.NewBar(100, 100, 100, 100, 0)))

	require.Len(t, account.Trades, 1)
	trade := account.Trades[0]
	assert.InDelta(t, 101, trade.Price, 1e-9) // buy pays the spread
	assert.InDelta(t, 10.1, trade.Fee, 1e-9) // 1% of 10*101
	assert.InDelta(t, 10_000-10*101-10.1, account.Cash.Balance(domain.USD), 1e-9)
}

func TestSimBroker_LimitOrderMatching(t *testing.T) {
	tests := []struct {
		name      string
		size      float64
		limit     float64
		bar       domain.Bar
		wantFill  bool
		wantPrice float64
	}{
		{
			name: "buy limit fills when range reaches down",
			size: 10, limit: 98,
			bar:      domain.NewBar(100, 101, 97, 99, 0),
			wantFill: true, wantPrice: 98, // min(limit, ref=99)
		},
		{
			name: "buy limit fills at better reference after gap down",
			size: 10, limit: 98,
			bar:      domain.NewBar(95, 96, 94, 95, 0),
			wantFill: true, wantPrice: 95,
		},
		{
			name: "buy limit stays open above the limit",
			size: 10, limit: 98,
			bar:      domain.NewBar(100, 101, 99, 100, 0),
			wantFill: false,
		},
		{
			name: "sell limit fills when range reaches up",
			size: -10, limit: 102,
			bar:      domain.NewBar(100, 103, 99, 101, 0),
			wantFill: true, wantPrice: 102, // max(limit, ref=101)
		},
		{
			name: "sell limit stays open below the limit",
			size: -10, limit: 102,
			bar:      domain.NewBar(100, 101, 99, 100, 0),
			wantFill: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBroker(t, func(cfg *Config) { cfg.AllowShorting = true })
			ctx := context.Background()
			b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))

			order, err := domain.NewLimitOrder(testAsset, tt.size, tt.limit)
			placeOne(t, b, order, err)
			account := b.Sync(ctx, barEvent(step(1), tt.bar))

			if !tt.wantFill {
				assert.Empty(t, account.Trades)
				assert.Equal(t, domain.StatusAccepted, account.Orders[order.ID()].Status)
				return
			}
			require.Len(t, account.Trades, 1)
			assert.InDelta(t, tt.wantPrice, account.Trades[0].Price, 1e-9)
		})
	}
}

func TestSimBroker_StopOrderMatching(t *testing.T) {
	b := newTestBroker(t, nil)
	ctx := context.Background()

	b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))
	buy, err := domain.NewMarketOrder(testAsset, 10)
	placeOne(t, b, buy, err)
	b.Sync(ctx, barEvent(step(1), domain.NewBar(100, 100, 100, 100, 0)))

	// Protective sell stop below the market.
	stop, err := domain.NewStopOrder(testAsset, -10, 95)
	placeOne(t, b, stop, err)

	// Price holds above the trigger: nothing happens.
	account := b.Sync(ctx, barEvent(step(2), domain.NewBar(99, 100, 96, 98, 0)))
	assert.Len(t, account.Trades, 1)

	// The market gaps through the trigger: the stop fills at the worse
	// reference price, not at its own trigger.
	account = b.Sync(ctx, barEvent(step(3), domain.NewBar(92, 93, 91, 92, 0)))
	require.Len(t, account.Trades, 2)
	assert.InDelta(t, 92, account.Trades[1].Price, 1e-9)
	assert.Equal(t, 0, account.OpenPositions())
}

func TestSimBroker_TrailingStopRatchets(t *testing.T) {
	b := newTestBroker(t, nil)
	ctx := context.Background()

	b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))
	buy, err := domain.NewMarketOrder(testAsset, 10)
	placeOne(t, b, buy, err)
	b.Sync(ctx, barEvent(step(1), domain.NewBar(100, 100, 100, 100, 0)))

	trail, err := domain.NewTrailingStopOrder(testAsset, -10, 0.05)
	placeOne(t, b, trail, err)

	// Rally: the trigger ratchets up behind the highs.
	account := b.Sync(ctx, barEvent(step(2), domain.NewBar(110, 112, 109, 111, 0)))
	assert.Len(t, account.Trades, 1)

	// New high of 118 lifts the trigger to 112.1; the bar stays above it.
	account = b.Sync(ctx, barEvent(step(3), domain.NewBar(114, 118, 113.5, 117, 0)))
	assert.Len(t, account.Trades, 1)

	// Falling through the ratcheted trigger fills the stop; the trigger
	// never moved back down with the price.
	account = b.Sync(ctx, barEvent(step(4), domain.NewBar(112, 113, 110, 111, 0)))
	require.Len(t, account.Trades, 2)
	assert.InDelta(t, 111, account.Trades[1].Price, 1e-9) // min(trigger 112.1, ref 111)
	assert.Equal(t, 0, account.OpenPositions())
}

func TestSimBroker_BracketFillsExactlyOneExit(t *testing.T) {
	b := newTestBroker(t, nil)
	ctx := context.Background()
	b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))

	entry, err := domain.NewMarketOrder(testAsset, 10)
	require.NoError(t, err)
	takeProfit, err := domain.NewLimitOrder(testAsset, -10, 110)
	require.NoError(t, err)
	stopLoss, err := domain.NewStopOrder(testAsset, -10, 90)
	require.NoError(t, err)
	bracket, err := domain.NewBracketOrder(entry, takeProfit, stopLoss)
	require.NoError(t, err)

	b.Place(ctx, []domain.Order{bracket})

	// Entry fills; the exits only start working on the next event.
	account := b.Sync(ctx, barEvent(step(1), domain.NewBar(100, 100, 100, 100, 0)))
	require.Len(t, account.Trades, 1)
	assert.Equal(t, domain.StatusAccepted, account.Orders[takeProfit.ID()].Status)
	assert.Equal(t, domain.StatusAccepted, account.Orders[stopLoss.ID()].Status)

	// A bar wide enough to touch both exits fills exactly one of them; the
	// other is cancelled and the parent completes.
	account = b.Sync(ctx, barEvent(step(2), domain.NewBar(100, 112, 88, 100, 0)))
	require.Len(t, account.Trades, 2)
	assert.Equal(t, 0, account.OpenPositions())

	tpStatus := account.Orders[takeProfit.ID()].Status
	slStatus := account.Orders[stopLoss.ID()].Status
	filled := 0
	if tpStatus == domain.StatusCompleted {
		filled++
		assert.Equal(t, domain.StatusCancelled, slStatus)
	}
	if slStatus == domain.StatusCompleted {
		filled++
		assert.Equal(t, domain.StatusCancelled, tpStatus)
	}
	assert.Equal(t, 1, filled)
	assert.Equal(t, domain.StatusCompleted, account.Orders[bracket.ID()].Status)
}

func TestSimBroker_OTOActivatesSecondaryAfterPrimary(t *testing.T) {
	b := newTestBroker(t, nil)
	ctx := context.Background()
	b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))

	primary, err := domain.NewMarketOrder(testAsset, 10)
	require.NoError(t, err)
	secondary, err := domain.NewLimitOrder(testAsset, -10, 105)
	require.NoError(t, err)
	oto, err := domain.NewOTOOrder(primary, secondary)
	require.NoError(t, err)

	b.Place(ctx, []domain.Order{oto})

	// Even though this bar would satisfy the secondary's limit, a leg
	// activated by a fill only matches from the next event on.
	account := b.Sync(ctx, barEvent(step(1), domain.NewBar(100, 106, 99, 100, 0)))
	require.Len(t, account.Trades, 1)
	assert.Equal(t, domain.StatusAccepted, account.Orders[secondary.ID()].Status)

	account = b.Sync(ctx, barEvent(step(2), domain.NewBar(104, 107, 103, 106, 0)))
	require.Len(t, account.Trades, 2)
	assert.Equal(t, domain.StatusCompleted, account.Orders[secondary.ID()].Status)
	assert.Equal(t, domain.StatusCompleted, account.Orders[oto.ID()].Status)
}

func TestSimBroker_RejectionsAreTerminalNotErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Config)
		build func() (domain.Order, error)
	}{
		{
			name:  "insufficient buying power",
			build: func() (domain.Order, error) { return domain.NewLimitOrder(testAsset, 1000, 100) },
		},
		{
			name:  "shorting not allowed",
			build: func() (domain.Order, error) { return domain.NewMarketOrder(testAsset, -10) },
		},
		{
			name: "unsupported asset currency",
			build: func() (domain.Order, error) {
				return domain.NewMarketOrder(domain.NewStock("SAP", domain.EUR), 10)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBroker(t, tt.setup)
			ctx := context.Background()
			b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))

			order, err := tt.build()
			placeOne(t, b, order, err)

			account := b.Account()
			state := account.Orders[order.ID()]
			assert.Equal(t, domain.StatusRejected, state.Status)
			assert.NotEmpty(t, state.Reason)
			require.Len(t, account.RejectedOrders(), 1)

			// A rejected order never fills.
			account = b.Sync(ctx, barEvent(step(1), domain.NewBar(100, 100, 100, 100, 0)))
			assert.Empty(t, account.Trades)
		})
	}
}

func TestSimBroker_MarginExtendsBuyingPower(t *testing.T) {
	// 1000 in cash cannot carry a 2000 order on a cash account.
	cash := newTestBroker(t, func(cfg *Config) {
		cfg.Deposit = []domain.Amount{domain.NewAmount(domain.USD, 1000)}
	})
	ctx := context.Background()
	cash.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))
	order, err := domain.NewMarketOrder(testAsset, 20)
	placeOne(t, cash, order, err)
	assert.Equal(t, domain.StatusRejected, cash.Account().Orders[order.ID()].Status)

	// The same order passes on 4x margin.
	margin := newTestBroker(t, func(cfg *Config) {
		cfg.Deposit = []domain.Amount{domain.NewAmount(domain.USD, 1000)}
		cfg.AccountModel = MarginModel{Leverage: 4}
	})
	margin.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))
	order, err = domain.NewMarketOrder(testAsset, 20)
	placeOne(t, margin, order, err)
	account := margin.Sync(ctx, barEvent(step(1), domain.NewBar(100, 100, 100, 100, 0)))
	require.Len(t, account.Trades, 1)
	assert.InDelta(t, 20, account.Position(testAsset).Size, 1e-9)
	// Buying power shrinks by the new exposure: 1000*4 - 2000.
	assert.InDelta(t, 2000, account.BuyingPower, 1e-9)
}

func TestSimBroker_OpenOrdersReserveBuyingPower(t *testing.T) {
	b := newTestBroker(t, func(cfg *Config) {
		cfg.Deposit = []domain.Amount{domain.NewAmount(domain.USD, 1000)}
	})
	ctx := context.Background()
	b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))

	first, err := domain.NewLimitOrder(testAsset, 9, 90)
	placeOne(t, b, first, err)
	assert.Equal(t, domain.StatusAccepted, b.Account().Orders[first.ID()].Status)

	// 810 of the 1000 is reserved; another 9x90 order no longer fits.
	second, err := domain.NewLimitOrder(testAsset, 9, 90)
	placeOne(t, b, second, err)
	assert.Equal(t, domain.StatusRejected, b.Account().Orders[second.ID()].Status)
}

func TestSimBroker_OCOReservesWorstLegOnly(t *testing.T) {
	b := newTestBroker(t, func(cfg *Config) {
		cfg.Deposit = []domain.Amount{domain.NewAmount(domain.USD, 1000)}
	})
	ctx := context.Background()
	b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))

	// Each leg alone costs 900; summing them would exceed the account, but
	// at most one can ever fill.
	first, err := domain.NewLimitOrder(testAsset, 10, 90)
	require.NoError(t, err)
	second, err := domain.NewLimitOrder(testAsset, 9, 100)
	require.NoError(t, err)
	oco, err := domain.NewOCOOrder(first, second)
	require.NoError(t, err)

	b.Place(ctx, []domain.Order{oco})
	assert.Equal(t, domain.StatusAccepted, b.Account().Orders[oco.ID()].Status)
}

func TestSimBroker_DataGapLeavesOrdersOpen(t *testing.T) {
	b := newTestBroker(t, nil)
	ctx := context.Background()
	b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))

	order, err := domain.NewMarketOrder(testAsset, 10)
	placeOne(t, b, order, err)

	// An event for a different asset is a data gap for ours.
	other := domain.NewStock("MSFT", domain.USD)
	gap := domain.NewEvent(step(1), map[domain.Asset]domain.PriceAction{
		other: domain.NewBar(50, 50, 50, 50, 0),
	})
	account := b.Sync(ctx, gap)
	assert.Empty(t, account.Trades)
	assert.Equal(t, domain.StatusAccepted, account.Orders[order.ID()].Status)

	// The next event with our asset fills it.
	account = b.Sync(ctx, barEvent(step(2), domain.NewBar(100, 100, 100, 100, 0)))
	assert.Len(t, account.Trades, 1)
}

func TestSimBroker_SyncIsIdempotent(t *testing.T) {
	b := newTestBroker(t, nil)
	ctx := context.Background()
	b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))

	order, err := domain.NewMarketOrder(testAsset, 10)
	placeOne(t, b, order, err)

	event := barEvent(step(1), domain.NewBar(100, 100, 100, 100, 0))
	first := b.Sync(ctx, event)
	second := b.Sync(ctx, event)

	assert.Equal(t, len(first.Trades), len(second.Trades))
	assert.InDelta(t, first.EquityValue, second.EquityValue, 1e-9)
	assert.InDelta(t, first.Position(testAsset).Size, second.Position(testAsset).Size, 1e-9)
}

func TestSimBroker_SyncIsIdempotentForCompositeLegs(t *testing.T) {
	b := newTestBroker(t, nil)
	ctx := context.Background()
	b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))

	entry, err := domain.NewMarketOrder(testAsset, 10)
	require.NoError(t, err)
	takeProfit, err := domain.NewLimitOrder(testAsset, -10, 110)
	require.NoError(t, err)
	stopLoss, err := domain.NewStopOrder(testAsset, -10, 90)
	require.NoError(t, err)
	bracket, err := domain.NewBracketOrder(entry, takeProfit, stopLoss)
	require.NoError(t, err)
	b.Place(ctx, []domain.Order{bracket})

	// A bar wide enough to satisfy both exits: the entry fills and activates
	// them, but replaying the very same event must not fill a leg that was
	// activated by it.
	event := barEvent(step(1), domain.NewBar(100, 115, 95, 100, 0))
	first := b.Sync(ctx, event)
	require.Len(t, first.Trades, 1)

	second := b.Sync(ctx, event)
	assert.Len(t, second.Trades, 1)
	assert.Equal(t, domain.StatusAccepted, second.Orders[takeProfit.ID()].Status)
	assert.Equal(t, domain.StatusAccepted, second.Orders[stopLoss.ID()].Status)
	assert.InDelta(t, first.EquityValue, second.EquityValue, 1e-9)
	assert.InDelta(t, first.Cash.Balance(domain.USD), second.Cash.Balance(domain.USD), 1e-9)
	assert.InDelta(t, 10, second.Position(testAsset).Size, 1e-9)

	// The next event still fills exactly one exit.
	third := b.Sync(ctx, barEvent(step(2), domain.NewBar(100, 115, 95, 100, 0)))
	require.Len(t, third.Trades, 2)
	assert.Equal(t, 0, third.OpenPositions())
}

func TestSimBroker_DayOrderExpires(t *testing.T) {
	b := newTestBroker(t, nil)
	ctx := context.Background()
	day1 := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	b.Sync(ctx, barEvent(day1, domain.NewBar(100, 100, 100, 100, 0)))
	order, err := domain.NewLimitOrder(testAsset, 10, 90, domain.WithTIF(domain.TIFDay))
	placeOne(t, b, order, err)

	// Still the same day: working.
	account := b.Sync(ctx, barEvent(day1.Add(time.Hour), domain.NewBar(100, 100, 99, 100, 0)))
	assert.Equal(t, domain.StatusAccepted, account.Orders[order.ID()].Status)

	// Next calendar day: expired before matching, even though this bar
	// would have crossed the limit.
	account = b.Sync(ctx, barEvent(day2, domain.NewBar(89, 90, 88, 89, 0)))
	assert.Equal(t, domain.StatusExpired, account.Orders[order.ID()].Status)
	assert.Empty(t, account.Trades)
}

func TestSimBroker_GTDOrderExpires(t *testing.T) {
	b := newTestBroker(t, nil)
	ctx := context.Background()
	expiry := step(5)

	b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))
	order, err := domain.NewLimitOrder(testAsset, 10, 90, domain.WithExpiry(expiry))
	placeOne(t, b, order, err)

	account := b.Sync(ctx, barEvent(step(4), domain.NewBar(100, 100, 99, 100, 0)))
	assert.Equal(t, domain.StatusAccepted, account.Orders[order.ID()].Status)

	account = b.Sync(ctx, barEvent(step(5), domain.NewBar(100, 100, 99, 100, 0)))
	assert.Equal(t, domain.StatusExpired, account.Orders[order.ID()].Status)
}

func TestSimBroker_MultiCurrencyAccounting(t *testing.T) {
	fx := rates.NewFixedRates(domain.USD)
	require.NoError(t, fx.Register(domain.EUR, 1.25))
	euroAsset := domain.NewStock("SAP", domain.EUR)

	b := newTestBroker(t, func(cfg *Config) { cfg.Rates = fx })
	ctx := context.Background()

	event := domain.NewEvent(step(0), map[domain.Asset]domain.PriceAction{
		euroAsset: domain.NewBar(100, 100, 100, 100, 0),
	})
	b.Sync(ctx, event)

	order, err := domain.NewMarketOrder(euroAsset, 10)
	require.NoError(t, err)
	b.Place(ctx, []domain.Order{order})

	account := b.Sync(ctx, domain.NewEvent(step(1), map[domain.Asset]domain.PriceAction{
		euroAsset: domain.NewBar(100, 100, 100, 100, 0),
	}))

	// The purchase is paid in EUR; the USD balance is untouched.
	assert.InDelta(t, -1000, account.Cash.Balance(domain.EUR), 1e-9)
	assert.InDelta(t, 10_000, account.Cash.Balance(domain.USD), 1e-9)
	// Equity in base: 10000 USD - 1000 EUR*1.25 + position 1000 EUR*1.25.
	assert.InDelta(t, 10_000, account.EquityValue, 1e-9)
}

func TestSimBroker_FlipRealizesWholeOldPosition(t *testing.T) {
	b := newTestBroker(t, func(cfg *Config) { cfg.AllowShorting = true })
	ctx := context.Background()

	b.Sync(ctx, barEvent(step(0), domain.NewBar(100, 100, 100, 100, 0)))
	buy, err := domain.NewMarketOrder(testAsset, 10)
	placeOne(t, b, buy, err)
	b.Sync(ctx, barEvent(step(1), domain.NewBar(100, 100, 100, 100, 0)))

	flip, err := domain.NewMarketOrder(testAsset, -15)
	placeOne(t, b, flip, err)
	account := b.Sync(ctx, barEvent(step(2), domain.NewBar(110, 110, 110, 110, 0)))

	require.Len(t, account.Trades, 2)
	assert.InDelta(t, 100, account.Trades[1].PNL, 1e-9) // 10 * (110 - 100)
	pos := account.Position(testAsset)
	assert.InDelta(t, -5, pos.Size, 1e-9)
	assert.InDelta(t, 110, pos.AvgPrice, 1e-9)
}

func TestUpdatePosition(t *testing.T) {
	tests := []struct {
		name         string
		pos          domain.Position
		size, price  float64
		wantSize     float64
		wantAvg      float64
		wantRealized float64
	}{
		{
			name: "open long", pos: domain.Position{Currency: domain.USD},
			size: 10, price: 100, wantSize: 10, wantAvg: 100,
		},
		{
			name: "add averages price", pos: domain.Position{Size: 10, AvgPrice: 100, Currency: domain.USD},
			size: 10, price: 110, wantSize: 20, wantAvg: 105,
		},
		{
			name: "partial reduce realizes", pos: domain.Position{Size: 10, AvgPrice: 100, Currency: domain.USD},
			size: -4, price: 110, wantSize: 6, wantAvg: 100, wantRealized: 40,
		},
		{
			name: "full close realizes all", pos: domain.Position{Size: 10, AvgPrice: 100, Currency: domain.USD},
			size: -10, price: 90, wantSize: 0, wantAvg: 0, wantRealized: -100,
		},
		{
			name: "short reduce", pos: domain.Position{Size: -10, AvgPrice: 100, Currency: domain.USD},
			size: 4, price: 90, wantSize: -6, wantAvg: 100, wantRealized: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, realized := updatePosition(tt.pos, tt.size, tt.price)
			assert.InDelta(t, tt.wantSize, pos.Size, 1e-9)
			assert.InDelta(t, tt.wantAvg, pos.AvgPrice, 1e-9)
			assert.InDelta(t, tt.wantRealized, realized, 1e-9)
		})
	}
}
