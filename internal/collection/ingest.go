package collection

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/rescale/rescale-browse/internal/events"
)

// IngestResult summarises one ingestion run.
type IngestResult struct {
	RunID             string
	Added             int
	Cancelled         bool
	StructuralFlushes int // Including the closing flush
	CountFlushes      int // Including the closing count
	Duration          time.Duration
}

// AddRange ingests a finite source. See AddStream.
func (c *Collection[T]) AddRange(ctx context.Context, src iter.Seq[T], opts ...IngestOption) (IngestResult, error) {
	if src == nil {
		return IngestResult{}, ErrNilSource
	}
	return c.ingest(ctx, func(yield func(T, error) bool) {
		for v := range src {
			if !yield(v, nil) {
				return
			}
		}
	}, opts)
}

// AddStream ingests a streaming source, inserting each item in sorted position
// when a comparator is active and appending otherwise.
//
// Notifications are throttled: a structural flush covering the items added
// since the previous one goes out at most once per structural cadence, and a
// count event at most once per count cadence. Every run ends with one final
// flush and one final count event, both marked Final.
//
// Cancelling ctx stops the run before the next item and is not an error; the
// result has Cancelled set. An error yielded by src stops the run and is
// returned after the closing flush. Items already inserted are kept either way.
//
// Flushes wait for delivery on the dispatcher, so AddStream must not be called
// from the dispatcher's goroutine. Only one ingestion may run at a time.
func (c *Collection[T]) AddStream(ctx context.Context, src iter.Seq2[T, error], opts ...IngestOption) (IngestResult, error) {
	if src == nil {
		return IngestResult{}, ErrNilSource
	}
	return c.ingest(ctx, src, opts)
}

func (c *Collection[T]) ingest(ctx context.Context, src iter.Seq2[T, error], opts []IngestOption) (IngestResult, error) {
	if !c.ingesting.CompareAndSwap(false, true) {
		return IngestResult{}, ErrIngestionInProgress
	}
	defer c.ingesting.Store(false)

	var o ingestOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}

	start := c.clock.Now()
	res := IngestResult{RunID: o.runID}

	c.mu.RLock()
	th := newThrottle(c.structuralCadence, c.countCadence, start, len(c.items))
	c.mu.RUnlock()

	c.logger.Debug().
		Str("collection", c.name).
		Str("run_id", o.runID).
		Bool("reset", o.reset).
		Msg("Ingestion started")

	var srcErr error
	for v, err := range src {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}
		if err != nil {
			srcErr = err
			break
		}

		c.mu.Lock()
		c.insertLocked(v)
		n := len(c.items)
		res.Added++

		now := c.clock.Now()
		flush := th.structuralDue(now)
		count := th.countDue(now)

		var evs []events.Event
		if flush {
			evs = append(evs, c.flushEvent(th, n, o.reset, false))
			res.StructuralFlushes++
		}
		if count {
			evs = append(evs, events.NewCountChangedEvent(c.name, 0, n, false))
			res.CountFlushes++
		}
		if len(evs) == 0 {
			c.mu.Unlock()
			continue
		}
		c.commitAndWait(evs...)
	}
	// A producer that honours ctx may simply stop yielding.
	if srcErr == nil && ctx.Err() != nil {
		res.Cancelled = true
	}

	c.mu.Lock()
	n := len(c.items)
	c.commitAndWait(
		c.flushEvent(th, n, o.reset, true),
		events.NewCountChangedEvent(c.name, 0, n, true),
	)
	res.StructuralFlushes++
	res.CountFlushes++
	res.Duration = c.clock.Now().Sub(start)

	logEvent := c.logger.Info()
	if srcErr != nil {
		logEvent = c.logger.Warn().Err(srcErr)
	}
	logEvent.
		Str("collection", c.name).
		Str("run_id", o.runID).
		Int("added", res.Added).
		Int("count", n).
		Int("flushes", res.StructuralFlushes).
		Bool("cancelled", res.Cancelled).
		Dur("duration", res.Duration).
		Msg("Ingestion finished")

	if srcErr != nil {
		return res, fmt.Errorf("ingestion stopped after %d items: %w", res.Added, srcErr)
	}
	return res, nil
}

// flushEvent describes the items added since the previous flush, as an Add
// range or as a Reset carrying the new length.
func (c *Collection[T]) flushEvent(th *throttle, n int, reset, final bool) *events.CollectionChangedEvent {
	start, count := th.take(n)

	var ev *events.CollectionChangedEvent
	if reset {
		ev = events.NewCollectionChangedEvent(c.name, 0, events.ActionReset, -1, n)
	} else {
		ev = events.NewCollectionChangedEvent(c.name, 0, events.ActionAdd, start, count)
	}
	ev.Final = final
	return ev
}
