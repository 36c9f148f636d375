package domain

import (
	"fmt"
	"time"
)

// Timeframe is a simulated time window with an inclusive start and an
// exclusive end. A zero Start or End means that side is unbounded, so the
// zero Timeframe admits every instant.
type Timeframe struct {
	Start time.Time
	End   time.Time
}

// NewTimeframe returns the window [start, end).
func NewTimeframe(start, end time.Time) (Timeframe, error) {
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		return Timeframe{}, fmt.Errorf("timeframe end %s must be after start %s", end, start)
	}
	return Timeframe{Start: start, End: end}, nil
}

// Contains reports whether t falls inside the window.
func (tf Timeframe) Contains(t time.Time) bool {
	if !tf.Start.IsZero() && t.Before(tf.Start) {
		return false
	}
	if !tf.End.IsZero() && !t.Before(tf.End) {
		return false
	}
	return true
}

// BeforeStart reports whether t precedes the window start.
func (tf Timeframe) BeforeStart(t time.Time) bool {
	return !tf.Start.IsZero() && t.Before(tf.Start)
}

// AtOrPastEnd reports whether t is at or past the window end.
func (tf Timeframe) AtOrPastEnd(t time.Time) bool {
	return !tf.End.IsZero() && !t.Before(tf.End)
}

func (tf Timeframe) String() string {
	format := func(t time.Time, unbounded string) string {
		if t.IsZero() {
			return unbounded
		}
		return t.Format(time.RFC3339)
	}
	return fmt.Sprintf("[%s, %s)", format(tf.Start, "-inf"), format(tf.End, "+inf"))
}
