// Package dispatch provides the affinity context on which collection
// notifications are delivered.
//
// Mutations happen on background goroutines; observers (view models, UI
// bridges, progress bars) expect to be called from one logical thread. A
// Dispatcher marshals callbacks onto that thread in the order they were posted.
package dispatch

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/rescale/rescale-browse/internal/logging"
)

// ErrStopped is returned when posting to a dispatcher that has been stopped.
var ErrStopped = errors.New("dispatcher stopped")

// Dispatcher marshals callbacks onto a single affinity context.
type Dispatcher interface {
	// Post queues fn and returns immediately.
	Post(fn func()) error

	// Send queues fn and blocks until it has run on the affinity context.
	// Send must not be called from the affinity context itself.
	Send(fn func()) error
}

// Inline is a Dispatcher whose affinity context is the caller.
// Used by tests and headless tools that have no UI thread.
type Inline struct{}

// Post runs fn immediately.
func (Inline) Post(fn func()) error {
	fn()
	return nil
}

// Send runs fn immediately.
func (Inline) Send(fn func()) error {
	fn()
	return nil
}

// Loop is a Dispatcher backed by one goroutine draining an unbounded FIFO.
// Callbacks run exactly once, in Post order.
type Loop struct {
	mu      sync.Mutex
	pending *queue.Queue // of func()
	wake    chan struct{}
	stopC   chan struct{}
	doneC   chan struct{}
	started bool
	stopped bool

	delivered atomic.Int64
	panics    atomic.Int64

	logger *logging.Logger
}

// NewLoop creates a stopped loop. Callbacks posted before Start are kept and
// run once the loop starts.
func NewLoop(logger *logging.Logger) *Loop {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Loop{
		pending: queue.New(),
		wake:    make(chan struct{}, 1),
		stopC:   make(chan struct{}),
		doneC:   make(chan struct{}),
		logger:  logger.Component("dispatch"),
	}
}

// Start launches the loop goroutine. Calling Start twice is a no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started || l.stopped {
		return
	}
	l.started = true
	go l.run()
	l.logger.Debug().Msg("Dispatch loop started")
}

// Stop rejects new callbacks, runs everything already queued, then returns.
// If the loop was never started the queue is drained on the caller.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	started := l.started
	l.mu.Unlock()

	close(l.stopC)
	if started {
		<-l.doneC
	} else {
		l.drain()
		close(l.doneC)
	}
	l.logger.Debug().Int64("delivered", l.delivered.Load()).Msg("Dispatch loop stopped")
}

// Post queues fn for the loop goroutine.
func (l *Loop) Post(fn func()) error {
	if fn == nil {
		return nil
	}

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	l.pending.Add(fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Send queues fn and waits until the loop has run it.
func (l *Loop) Send(fn func()) error {
	if fn == nil {
		return nil
	}

	done := make(chan struct{})
	if err := l.Post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	<-done
	return nil
}

// Pending returns the number of queued callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending.Length()
}

// Delivered returns the number of callbacks run so far.
func (l *Loop) Delivered() int64 {
	return l.delivered.Load()
}

// Panics returns the number of callbacks that panicked.
func (l *Loop) Panics() int64 {
	return l.panics.Load()
}

func (l *Loop) run() {
	defer close(l.doneC)

	for {
		if fn, ok := l.next(); ok {
			l.deliver(fn)
			continue
		}

		select {
		case <-l.wake:
		case <-l.stopC:
			l.drain()
			return
		}
	}
}

func (l *Loop) drain() {
	for {
		fn, ok := l.next()
		if !ok {
			return
		}
		l.deliver(fn)
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pending.Length() == 0 {
		return nil, false
	}
	return l.pending.Remove().(func()), true
}

func (l *Loop) deliver(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(1)
			l.logger.Error().Str("panic", fmt.Sprint(r)).Msg("Observer panicked during dispatch")
		}
		l.delivered.Add(1)
	}()
	fn()
}
