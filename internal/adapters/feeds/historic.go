// Package feeds provides event sources for the simulation engine: in-memory
// replay, CSV files and a Binance live stream.
package feeds

import (
	"context"
	"errors"
	"sort"

	"quantsim/internal/domain"
	"quantsim/internal/ports"
)

// HistoricFeed replays a fixed, time-sorted sequence of events. Once built
// it is read-only, so any number of runs may Play it concurrently, each into
// its own channel.
type HistoricFeed struct {
	events []domain.Event
}

// NewHistoricFeed returns a feed over the given events, sorted by time.
// Events with equal times keep their relative order.
func NewHistoricFeed(events ...domain.Event) *HistoricFeed {
	sorted := append([]domain.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time().Before(sorted[j].Time())
	})
	return &HistoricFeed{events: sorted}
}

// Timeframe returns the window spanned by the feed's events, with an
// exclusive end just past the last event.
func (f *HistoricFeed) Timeframe() domain.Timeframe {
	if len(f.events) == 0 {
		return domain.Timeframe{}
	}
	first := f.events[0].Time()
	last := f.events[len(f.events)-1].Time()
	return domain.Timeframe{Start: first, End: last.Add(1)}
}

// Events returns the number of events in the feed.
func (f *HistoricFeed) Events() int {
	return len(f.events)
}

// Play pushes every event in time order using the blocking Send, then closes
// the sink. A closed sink ends the replay early without error; that is the
// consumer telling us its timeframe is exhausted.
func (f *HistoricFeed) Play(ctx context.Context, sink ports.EventSink) error {
	defer sink.Close()
	for _, event := range f.events {
		if err := ctx.Err(); err != nil {
			return ports.ErrContextCanceled
		}
		if err := sink.Send(event); err != nil {
			if errors.Is(err, ports.ErrChannelClosed) {
				return nil
			}
			return err
		}
	}
	return nil
}

var _ ports.Feed = (*HistoricFeed)(nil)
