package collection

import (
	"iter"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rescale/rescale-browse/internal/dispatch"
	"github.com/rescale/rescale-browse/internal/events"
	"github.com/rescale/rescale-browse/internal/logging"
)

// Observer receives collection events on the dispatcher's affinity context.
type Observer func(events.Event)

type observerEntry struct {
	id int
	fn Observer
}

// Collection is an ordered, observable sequence of items.
//
// One logical writer mutates it at a time; readers may call the query methods
// concurrently from any goroutine.
type Collection[T comparable] struct {
	name string

	// mu guards items and cmp.
	mu    sync.RWMutex
	items []T
	cmp   func(a, b T) int

	// emitMu orders event posting. It is taken before mu is released so events
	// reach the dispatcher in mutation order.
	emitMu     sync.Mutex
	seq        atomic.Int64
	dispatcher dispatch.Dispatcher

	obsMu     sync.Mutex
	observers []observerEntry
	nextObsID int

	structuralCadence time.Duration
	countCadence      time.Duration
	sortThreshold     int
	clock             Clock
	logger            *logging.Logger

	ingesting atomic.Bool
}

// New creates an empty collection. A nil comparator selects append mode.
func New[T comparable](cmp func(a, b T) int, opts ...Option) *Collection[T] {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return &Collection[T]{
		name:              s.name,
		cmp:               cmp,
		dispatcher:        s.dispatcher,
		structuralCadence: s.structuralCadence,
		countCadence:      s.countCadence,
		sortThreshold:     s.sortThreshold,
		clock:             s.clock,
		logger:            s.logger.Component("collection"),
	}
}

// NewFrom creates a collection holding a copy of items, sorted when cmp is set.
// No notification is emitted.
func NewFrom[T comparable](items []T, cmp func(a, b T) int, opts ...Option) *Collection[T] {
	c := New(cmp, opts...)
	c.items = slices.Clone(items)
	if cmp != nil {
		ParallelSort(c.items, cmp, c.sortThreshold)
	}
	return c
}

// Name returns the source name stamped on events.
func (c *Collection[T]) Name() string {
	return c.name
}

// Subscribe registers an observer and returns a function that removes it.
func (c *Collection[T]) Subscribe(fn Observer) (unsubscribe func()) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()

	c.nextObsID++
	id := c.nextObsID
	c.observers = append(c.observers, observerEntry{id: id, fn: fn})

	return func() {
		c.obsMu.Lock()
		defer c.obsMu.Unlock()
		c.observers = slices.DeleteFunc(c.observers, func(e observerEntry) bool { return e.id == id })
	}
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// At returns the item at index i.
func (c *Collection[T]) At(i int) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i < 0 || i >= len(c.items) {
		var zero T
		return zero, indexError(i, len(c.items))
	}
	return c.items[i], nil
}

// Contains reports whether v is in the collection.
func (c *Collection[T]) Contains(v T) bool {
	return c.IndexOf(v) >= 0
}

// IndexOf returns the index of the first item equal to v, or -1.
func (c *Collection[T]) IndexOf(v T) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Index(c.items, v)
}

// Snapshot returns a copy of the items.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// All iterates a snapshot taken when iteration starts.
func (c *Collection[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range c.Snapshot() {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Sorted reports whether a comparator is active.
func (c *Collection[T]) Sorted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cmp != nil
}

// Add inserts v and returns its index. Without a comparator v is appended;
// with one it goes to its sorted position.
func (c *Collection[T]) Add(v T) int {
	c.mu.Lock()
	i := c.insertLocked(v)
	n := len(c.items)

	ev := events.NewCollectionChangedEvent(c.name, 0, events.ActionAdd, i, 1)
	ev.NewItem = v
	c.commit(ev, events.NewCountChangedEvent(c.name, 0, n, false))
	return i
}

// Insert places v at index i. With a comparator active, v must fit between
// its neighbours.
func (c *Collection[T]) Insert(i int, v T) error {
	c.mu.Lock()
	if i < 0 || i > len(c.items) {
		n := len(c.items)
		c.mu.Unlock()
		return indexError(i, n)
	}
	if !c.fitsLocked(v, i-1, i) {
		c.mu.Unlock()
		return ErrBreaksOrder
	}
	c.items = slices.Insert(c.items, i, v)
	n := len(c.items)

	ev := events.NewCollectionChangedEvent(c.name, 0, events.ActionAdd, i, 1)
	ev.NewItem = v
	c.commit(ev, events.NewCountChangedEvent(c.name, 0, n, false))
	return nil
}

// Set replaces the item at index i.
func (c *Collection[T]) Set(i int, v T) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.items) {
		n := len(c.items)
		c.mu.Unlock()
		return indexError(i, n)
	}
	if !c.fitsLocked(v, i-1, i+1) {
		c.mu.Unlock()
		return ErrBreaksOrder
	}
	old := c.items[i]
	c.items[i] = v

	ev := events.NewCollectionChangedEvent(c.name, 0, events.ActionReplace, i, 1)
	ev.NewItem = v
	ev.OldItem = old
	c.commit(ev)
	return nil
}

// RemoveAt removes the item at index i.
func (c *Collection[T]) RemoveAt(i int) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.items) {
		n := len(c.items)
		c.mu.Unlock()
		return indexError(i, n)
	}
	c.removeLocked(i)
	return nil
}

// Remove removes the first item equal to v and reports whether one was found.
func (c *Collection[T]) Remove(v T) bool {
	c.mu.Lock()
	i := slices.Index(c.items, v)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.removeLocked(i)
	return true
}

// Clear removes every item and emits a Reset.
func (c *Collection[T]) Clear() {
	c.mu.Lock()
	c.items = nil
	c.commit(
		events.NewCollectionChangedEvent(c.name, 0, events.ActionReset, -1, 0),
		events.NewCountChangedEvent(c.name, 0, 0, false),
	)
}

// NotifyProperty emits a PropertyChanged for a derived property owned by a
// wrapper, through the same affinity context as the collection's own events.
func (c *Collection[T]) NotifyProperty(property string) {
	c.emit(false, events.NewPropertyChangedEvent(c.name, 0, property))
}

// removeLocked removes index i and releases mu.
func (c *Collection[T]) removeLocked(i int) {
	old := c.items[i]
	c.items = slices.Delete(c.items, i, i+1)
	n := len(c.items)

	ev := events.NewCollectionChangedEvent(c.name, 0, events.ActionRemove, i, 1)
	ev.OldItem = old
	c.commit(ev, events.NewCountChangedEvent(c.name, 0, n, false))
}

func (c *Collection[T]) insertLocked(v T) int {
	i := len(c.items)
	if c.cmp != nil && len(c.items) > 0 {
		i = BinarySearch(c.items, v, c.cmp)
		if i < 0 {
			i = ^i
		}
	}
	c.items = slices.Insert(c.items, i, v)
	return i
}

// fitsLocked reports whether v can sit between items[prev] and items[next]
// without breaking the sort order. Out-of-range neighbours are ignored.
func (c *Collection[T]) fitsLocked(v T, prev, next int) bool {
	if c.cmp == nil {
		return true
	}
	if prev >= 0 && prev < len(c.items) && c.cmp(c.items[prev], v) > 0 {
		return false
	}
	if next >= 0 && next < len(c.items) && c.cmp(v, c.items[next]) > 0 {
		return false
	}
	return true
}

// commit releases mu and posts evs in order. emitMu is acquired first so a
// concurrent writer cannot post its events ahead of these.
func (c *Collection[T]) commit(evs ...events.Event) {
	c.emitMu.Lock()
	c.mu.Unlock()
	c.publish(false, evs)
}

// commitAndWait is commit followed by a wait for delivery of the last event.
func (c *Collection[T]) commitAndWait(evs ...events.Event) {
	c.emitMu.Lock()
	c.mu.Unlock()
	c.publish(true, evs)
}

func (c *Collection[T]) emit(wait bool, evs ...events.Event) {
	c.emitMu.Lock()
	c.publish(wait, evs)
}

// publish must be called with emitMu held; it releases it before waiting.
func (c *Collection[T]) publish(wait bool, evs []events.Event) {
	var done chan struct{}
	if wait {
		done = make(chan struct{})
	}

	posted := c.postLocked(done, evs)
	c.emitMu.Unlock()

	if wait && posted {
		<-done
	}
}

// postLocked stamps sequence numbers and hands evs to the dispatcher. If done
// is non-nil it is closed after the last event is delivered. Returns false
// when the dispatcher rejected an event.
func (c *Collection[T]) postLocked(done chan struct{}, evs []events.Event) bool {
	for i, ev := range evs {
		c.stamp(ev)
		last := i == len(evs)-1

		err := c.dispatcher.Post(func() {
			if last && done != nil {
				defer close(done)
			}
			c.deliver(ev)
		})
		if err != nil {
			c.logger.Warn().Err(err).Str("collection", c.name).Str("event", string(ev.Type())).
				Msg("Notification dropped")
			return false
		}
	}
	return true
}

func (c *Collection[T]) stamp(ev events.Event) {
	seq := c.seq.Add(1)
	switch e := ev.(type) {
	case *events.CollectionChangedEvent:
		e.Seq = seq
	case *events.CountChangedEvent:
		e.Seq = seq
	case *events.PropertyChangedEvent:
		e.Seq = seq
	}
}

func (c *Collection[T]) deliver(ev events.Event) {
	c.obsMu.Lock()
	observers := slices.Clone(c.observers)
	c.obsMu.Unlock()

	for _, o := range observers {
		o.fn(ev)
	}
}
