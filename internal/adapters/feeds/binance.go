package feeds

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"quantsim/internal/domain"
	"quantsim/internal/ports"
)

const (
	binanceBaseURLProduction = "https://fapi.binance.com"
	binanceBaseURLTestnet    = "https://testnet.binancefuture.com"
)

// BinanceFeedConfig holds configuration for the Binance live feed.
type BinanceFeedConfig struct {
	Asset          domain.Asset
	Interval       string // Binance kline interval, e.g. "1m"
	APIKey         string
	SecretKey      string
	UseTestnet     bool
	Logger         ports.Logger
	ReconnectDelay time.Duration // delay before reconnecting a dropped stream
}

// BinanceFeed streams closed klines from Binance futures as bar events.
// It reconnects on dropped WebSocket connections and runs until the
// context is cancelled or the sink is closed.
type BinanceFeed struct {
	cfg    BinanceFeedConfig
	client *futures.Client
}

// NewBinanceFeed creates a live feed for the configured asset and interval.
func NewBinanceFeed(cfg BinanceFeedConfig) (*BinanceFeed, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required for Binance feed", ports.ErrConfiguration)
	}
	if cfg.Asset.Symbol == "" {
		return nil, fmt.Errorf("%w: asset symbol is required", ports.ErrConfiguration)
	}
	if cfg.Interval == "" {
		return nil, fmt.Errorf("%w: kline interval is required", ports.ErrConfiguration)
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		client.BaseURL = binanceBaseURLTestnet
	} else {
		client.BaseURL = binanceBaseURLProduction
	}

	return &BinanceFeed{cfg: cfg, client: client}, nil
}

// Play streams klines into the sink until ctx is cancelled. Only final
// (closed) klines become events; partial updates are ignored. Delivery uses
// the non-blocking Offer so a slow consumer sees fresh data, not a backlog.
func (f *BinanceFeed) Play(ctx context.Context, sink ports.EventSink) error {
	defer sink.Close()

	logger := f.cfg.Logger
	fields := map[string]interface{}{"symbol": f.cfg.Asset.Symbol, "interval": f.cfg.Interval}

	// Closed by the kline handler when the sink stops accepting events.
	sinkClosed := make(chan struct{})
	var closeOnce sync.Once

	handler := func(event *futures.WsKlineEvent) {
		if event == nil || !event.Kline.IsFinal {
			return
		}
		bar, t, err := translateWsKline(event)
		if err != nil {
			logger.Error(ctx, err, "failed to translate kline event", fields)
			return
		}
		domainEvent := domain.NewEvent(t, map[domain.Asset]domain.PriceAction{f.cfg.Asset: bar})
		if err := sink.Offer(domainEvent); err != nil {
			if errors.Is(err, ports.ErrChannelClosed) {
				closeOnce.Do(func() { close(sinkClosed) })
				return
			}
			logger.Warn(ctx, "failed to deliver kline event", fields)
		}
	}
	errHandler := func(err error) {
		logger.Warn(ctx, "kline stream error", map[string]interface{}{
			"symbol": f.cfg.Asset.Symbol, "interval": f.cfg.Interval, "error": err.Error(),
		})
	}

	// Reconnection loop: every dropped connection is retried after a delay
	// until the context ends or the consumer closes the sink.
	for {
		select {
		case <-ctx.Done():
			return ports.ErrContextCanceled
		case <-sinkClosed:
			return nil
		default:
		}

		logger.Info(ctx, "connecting kline stream", fields)
		doneCh, stopCh, err := futures.WsKlineServe(f.cfg.Asset.Symbol, f.cfg.Interval, handler, errHandler)
		if err != nil {
			logger.Warn(ctx, "kline stream connection failed, retrying", map[string]interface{}{
				"symbol": f.cfg.Asset.Symbol, "interval": f.cfg.Interval, "error": err.Error(),
			})
			select {
			case <-time.After(f.cfg.ReconnectDelay):
				continue
			case <-ctx.Done():
				return ports.ErrContextCanceled
			}
		}

		select {
		case <-doneCh:
			logger.Warn(ctx, "kline stream closed unexpectedly, reconnecting", fields)
		case <-sinkClosed:
			close(stopCh)
			return nil
		case <-ctx.Done():
			close(stopCh)
			return ports.ErrContextCanceled
		}
	}
}

// FetchKlines downloads all klines for the feed's asset and interval between
// start and end, paging through the REST API, and returns them as events
// ready for WriteCSV or a historic feed.
func (f *BinanceFeed) FetchKlines(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	const maxLimit = 1500
	var events []domain.Event
	from := start

	for {
		klines, err := f.client.NewKlinesService().
			Symbol(f.cfg.Asset.Symbol).
			Interval(f.cfg.Interval).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxLimit).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching klines for %s: %w", f.cfg.Asset.Symbol, err)
		}
		if len(klines) == 0 {
			break
		}
		for _, k := range klines {
			bar, err := translateRESTKline(k)
			if err != nil {
				return nil, fmt.Errorf("fetching klines for %s: %w", f.cfg.Asset.Symbol, err)
			}
			t := time.UnixMilli(k.OpenTime).UTC()
			events = append(events, domain.NewEvent(t, map[domain.Asset]domain.PriceAction{f.cfg.Asset: bar}))
		}
		last := klines[len(klines)-1]
		from = time.UnixMilli(last.CloseTime)
		if from.After(end) || len(klines) < maxLimit {
			break
		}
	}

	return events, nil
}

func translateWsKline(event *futures.WsKlineEvent) (domain.Bar, time.Time, error) {
	k := event.Kline
	bar, err := parseBar(k.Open, k.High, k.Low, k.Close, k.Volume)
	if err != nil {
		return domain.Bar{}, time.Time{}, err
	}
	return bar, time.UnixMilli(k.StartTime).UTC(), nil
}

func translateRESTKline(k *futures.Kline) (domain.Bar, error) {
	if k == nil {
		return domain.Bar{}, errors.New("received nil kline")
	}
	return parseBar(k.Open, k.High, k.Low, k.Close, k.Volume)
}

func parseBar(open, high, low, closePrice, volume string) (domain.Bar, error) {
	o, err := strconv.ParseFloat(open, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parsing open price %q: %w", open, err)
	}
	h, err := strconv.ParseFloat(high, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parsing high price %q: %w", high, err)
	}
	l, err := strconv.ParseFloat(low, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parsing low price %q: %w", low, err)
	}
	c, err := strconv.ParseFloat(closePrice, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parsing close price %q: %w", closePrice, err)
	}
	v, err := strconv.ParseFloat(volume, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parsing volume %q: %w", volume, err)
	}
	return domain.NewBar(o, h, l, c, v), nil
}

var _ ports.Feed = (*BinanceFeed)(nil)
