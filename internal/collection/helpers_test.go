package collection

import (
	"cmp"
	"sync"
	"time"

	"github.com/rescale/rescale-browse/internal/events"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recorder collects every event delivered to it.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) observe(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) changes() []*events.CollectionChangedEvent {
	var out []*events.CollectionChangedEvent
	for _, ev := range r.all() {
		if e, ok := ev.(*events.CollectionChangedEvent); ok {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) counts() []*events.CountChangedEvent {
	var out []*events.CountChangedEvent
	for _, ev := range r.all() {
		if e, ok := ev.(*events.CountChangedEvent); ok {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func seqOf(ev events.Event) int64 {
	switch e := ev.(type) {
	case *events.CollectionChangedEvent:
		return e.Seq
	case *events.CountChangedEvent:
		return e.Seq
	case *events.PropertyChangedEvent:
		return e.Seq
	}
	return -1
}

func ascending(a, b int) int { return cmp.Compare(a, b) }

func observed(c *Collection[int]) *recorder {
	r := &recorder{}
	c.Subscribe(r.observe)
	return r
}

func sliceSeq[T any](items ...T) func(yield func(T) bool) {
	return func(yield func(T) bool) {
		for _, v := range items {
			if !yield(v) {
				return
			}
		}
	}
}
