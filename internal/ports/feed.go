package ports

import (
	"context"

	"quantsim/internal/domain"
)

// EventSink is the producer side of an event channel. Feeds push into a
// sink without knowing the concrete channel implementation.
type EventSink interface {
	// Send enqueues an event, blocking while the sink is full. It returns
	// ErrChannelClosed once the sink no longer accepts events.
	Send(event domain.Event) error
	// Offer enqueues an event without blocking, evicting the oldest buffered
	// event when full. Live feeds use it to favor freshness over completeness.
	Offer(event domain.Event) error
	// Close marks the end of the stream. It is idempotent.
	Close()
}

// Feed is a source of a chronological sequence of events: a historic feed
// replays all known events in time order and returns, a live feed pushes
// events as they arrive until the context is cancelled.
type Feed interface {
	// Play pushes the feed's event sequence into the sink. It returns when
	// the sequence is exhausted, the sink is closed, or ctx is cancelled.
	// Implementations must close the sink before returning so the consumer
	// observes end-of-stream.
	Play(ctx context.Context, sink EventSink) error
}
