// Package channel provides the bounded, time-ordered conduit between a feed
// (producer) and a simulation run loop (consumer).
package channel

import (
	"context"
	"sync"
	"sync/atomic"

	"quantsim/internal/domain"
	"quantsim/internal/ports"
)

// EventChannel is a bounded FIFO of events clipped to a timeframe. One
// producer pushes with Send (blocking, back-pressure) or Offer (non-blocking,
// evicts the oldest when full); one consumer pulls with Receive. Events
// before the timeframe are silently ignored; the first event at or past the
// timeframe end closes the channel for good. Close is idempotent and
// terminal. Events are delivered in the order they were sent.
//
// The implementation never closes the buffer channel itself, only the done
// channel, so a concurrent Send can never panic against Close.
type EventChannel struct {
	buf       chan domain.Event
	done      chan struct{}
	closeOnce sync.Once
	timeframe domain.Timeframe
	logger    ports.Logger
	dropped   atomic.Int64
}

// New returns a channel with the given capacity and admissible timeframe.
// Capacity must be at least 1.
func New(capacity int, timeframe domain.Timeframe, logger ports.Logger) *EventChannel {
	if capacity < 1 {
		capacity = 1
	}
	return &EventChannel{
		buf:       make(chan domain.Event, capacity),
		done:      make(chan struct{}),
		timeframe: timeframe,
		logger:    logger,
	}
}

// clip applies the timeframe to an incoming event. It returns false when the
// event must not be enqueued; an event past the end also closes the channel.
func (c *EventChannel) clip(event domain.Event) (ok bool, err error) {
	if c.timeframe.BeforeStart(event.Time()) {
		return false, nil
	}
	if c.timeframe.AtOrPastEnd(event.Time()) {
		c.Close()
		return false, ports.ErrChannelClosed
	}
	return true, nil
}

// Send enqueues an event, blocking while the channel is full. Events before
// the timeframe start are dropped without error; an event at or past the end
// closes the channel and Send returns ErrChannelClosed, as it does for every
// send after closure.
func (c *EventChannel) Send(event domain.Event) error {
	select {
	case <-c.done:
		return ports.ErrChannelClosed
	default:
	}
	ok, err := c.clip(event)
	if !ok {
		return err
	}
	select {
	case c.buf <- event:
		return nil
	case <-c.done:
		return ports.ErrChannelClosed
	}
}

// Offer enqueues an event without blocking. When the channel is full the
// oldest buffered event is evicted, counted and logged, then the new event is
// inserted; freshness wins over completeness. Timeframe clipping matches Send.
func (c *EventChannel) Offer(event domain.Event) error {
	select {
	case <-c.done:
		return ports.ErrChannelClosed
	default:
	}
	ok, err := c.clip(event)
	if !ok {
		return err
	}
	select {
	case c.buf <- event:
		return nil
	default:
	}
	// Full: evict the oldest, then retry once. With a single producer the
	// retry always succeeds; under a racing consumer the event may slot in
	// without an eviction, which is fine.
	select {
	case old := <-c.buf:
		c.dropped.Add(1)
		if c.logger != nil {
			c.logger.Warn(context.Background(), "event channel full, evicted oldest event",
				map[string]interface{}{"evicted": old.Time(), "offered": event.Time()})
		}
	default:
	}
	select {
	case c.buf <- event:
		return nil
	case <-c.done:
		return ports.ErrChannelClosed
	}
}

// Receive dequeues the next event, blocking while the channel is empty and
// open. After Close the remaining buffered events are still delivered; once
// drained Receive returns ErrChannelClosed. A dequeued event outside the
// timeframe closes the channel and yields the same condition.
func (c *EventChannel) Receive() (domain.Event, error) {
	var event domain.Event
	select {
	case event = <-c.buf:
	default:
		select {
		case event = <-c.buf:
		case <-c.done:
			// Closed while we were waiting; drain anything that slipped in.
			select {
			case event = <-c.buf:
			default:
				return domain.Event{}, ports.ErrChannelClosed
			}
		}
	}
	if !c.timeframe.Contains(event.Time()) {
		c.Close()
		return domain.Event{}, ports.ErrChannelClosed
	}
	return event, nil
}

// Close marks the channel closed. It is safe to call from either side and
// from multiple goroutines; only the first call has any effect.
func (c *EventChannel) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Done reports whether the channel has been closed.
func (c *EventChannel) Done() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Dropped returns how many buffered events Offer evicted. Together with the
// events actually received this accounts for every accepted send.
func (c *EventChannel) Dropped() int64 {
	return c.dropped.Load()
}
