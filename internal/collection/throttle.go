package collection

import (
	"time"

	"golang.org/x/time/rate"
)

// throttle holds the two notification cadences of one ingestion run and the
// index up to which items have been reported by a structural flush.
type throttle struct {
	structural *rate.Limiter
	count      *rate.Limiter
	lastFlush  int
}

func newThrottle(structural, count time.Duration, start time.Time, lastFlush int) *throttle {
	return &throttle{
		structural: newCadence(structural, start),
		count:      newCadence(count, start),
		lastFlush:  lastFlush,
	}
}

// newCadence returns a limiter that allows one event per interval, with the
// first one due a full interval after start. Zero interval allows every event.
func newCadence(interval time.Duration, start time.Time) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	l := rate.NewLimiter(rate.Every(interval), 1)
	l.AllowN(start, 1)
	return l
}

func (t *throttle) structuralDue(now time.Time) bool {
	return t.structural.AllowN(now, 1)
}

func (t *throttle) countDue(now time.Time) bool {
	return t.count.AllowN(now, 1)
}

// take returns the pending range [lastFlush, n) and advances the marker.
func (t *throttle) take(n int) (start, count int) {
	start = t.lastFlush
	if start > n {
		start = n
	}
	t.lastFlush = n
	return start, n - start
}
