package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rescale/rescale-browse/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	// Collection events, delivered on the affinity context
	EventCollectionChanged EventType = "collection_changed" // Add/Remove/Replace/Reset
	EventCountChanged      EventType = "count_changed"      // Lightweight count refresh
	EventPropertyChanged   EventType = "property_changed"   // Bindable derived property

	// Ingestion lifecycle, for monitoring
	EventIngestStarted   EventType = "ingest_started"
	EventIngestCompleted EventType = "ingest_completed"
)

// ChangeAction describes what a structural change did to the collection.
type ChangeAction int

const (
	ActionAdd ChangeAction = iota
	ActionRemove
	ActionReplace
	ActionReset
)

func (a ChangeAction) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionReplace:
		return "replace"
	case ActionReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// CollectionChangedEvent describes one structural change.
//
// For Add and Remove, Index is the first affected position and Count the number of
// affected items. Reset carries Index -1 and Count set to the new length.
// NewItem/OldItem are only populated for single-item operations.
type CollectionChangedEvent struct {
	BaseEvent
	Source  string // Collection name
	Seq     int64  // Emission order within the collection
	Action  ChangeAction
	Index   int
	Count   int
	NewItem any
	OldItem any
	Final   bool // Closing flush of an ingestion run
}

// CountChangedEvent carries the item count after a change.
type CountChangedEvent struct {
	BaseEvent
	Source string
	Seq    int64
	Count  int
	Final  bool
}

// PropertyChangedEvent signals that a bindable derived property changed.
type PropertyChangedEvent struct {
	BaseEvent
	Source   string
	Seq      int64
	Property string
}

// IngestEvent reports the start or the end of an ingestion run.
type IngestEvent struct {
	BaseEvent
	Source    string
	RunID     string
	Added     int
	Cancelled bool
	Err       error
}

// NewCollectionChangedEvent creates a CollectionChangedEvent stamped with the current time.
func NewCollectionChangedEvent(source string, seq int64, action ChangeAction, index, count int) *CollectionChangedEvent {
	return &CollectionChangedEvent{
		BaseEvent: BaseEvent{EventType: EventCollectionChanged, Time: time.Now()},
		Source:    source,
		Seq:       seq,
		Action:    action,
		Index:     index,
		Count:     count,
	}
}

// NewCountChangedEvent creates a CountChangedEvent stamped with the current time.
func NewCountChangedEvent(source string, seq int64, count int, final bool) *CountChangedEvent {
	return &CountChangedEvent{
		BaseEvent: BaseEvent{EventType: EventCountChanged, Time: time.Now()},
		Source:    source,
		Seq:       seq,
		Count:     count,
		Final:     final,
	}
}

// NewPropertyChangedEvent creates a PropertyChangedEvent stamped with the current time.
func NewPropertyChangedEvent(source string, seq int64, property string) *PropertyChangedEvent {
	return &PropertyChangedEvent{
		BaseEvent: BaseEvent{EventType: EventPropertyChanged, Time: time.Now()},
		Source:    source,
		Seq:       seq,
		Property:  property,
	}
}

// EventBus manages event subscriptions and publishing.
//
// Delivery is lossy: a subscriber whose buffer is full misses the event and the
// drop is counted. Collection observers that need every notification subscribe
// to the collection directly instead.
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishIngest is a convenience method for publishing ingestion lifecycle events
func (eb *EventBus) PublishIngest(eventType EventType, source, runID string, added int, cancelled bool, err error) {
	eb.Publish(&IngestEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Time:      time.Now(),
		},
		Source:    source,
		RunID:     runID,
		Added:     added,
		Cancelled: cancelled,
		Err:       err,
	})
}

// Unsubscribe removes a subscription channel from a specific event type
// This prevents memory leaks from abandoned subscriptions
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from all event types
// Use this when cleaning up a subscriber that subscribed to multiple event types
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}

// ResetDroppedEventCount resets the dropped event counter to zero
// Useful for periodic monitoring windows
func (eb *EventBus) ResetDroppedEventCount() int64 {
	return eb.droppedEvents.Swap(0)
}
