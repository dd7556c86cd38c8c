package collection

import (
	"time"

	"github.com/rescale/rescale-browse/internal/config"
	"github.com/rescale/rescale-browse/internal/constants"
	"github.com/rescale/rescale-browse/internal/dispatch"
	"github.com/rescale/rescale-browse/internal/logging"
)

// Clock supplies the time used by the notification cadences.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

type settings struct {
	name              string
	dispatcher        dispatch.Dispatcher
	structuralCadence time.Duration
	countCadence      time.Duration
	sortThreshold     int
	clock             Clock
	logger            *logging.Logger
}

func defaultSettings() settings {
	return settings{
		name:              "collection",
		dispatcher:        dispatch.Inline{},
		structuralCadence: constants.StructuralCadence,
		countCadence:      constants.CountCadence,
		sortThreshold:     constants.SortParallelThreshold,
		clock:             SystemClock,
		logger:            logging.NewNopLogger(),
	}
}

// Option configures a Collection.
type Option func(*settings)

// WithName sets the source name stamped on every event.
func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithDispatcher sets the affinity context for notifications.
// The default, dispatch.Inline, runs observers on the mutating goroutine
// while the collection's emit lock is held: an observer must not mutate the
// collection or call NotifyProperty on it, or it deadlocks. Use a
// dispatch.Loop for observers that write back.
func WithDispatcher(d dispatch.Dispatcher) Option {
	return func(s *settings) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithCadence sets the structural and count flush intervals.
// Zero means flush after every ingested item; negative values are ignored.
func WithCadence(structural, count time.Duration) Option {
	return func(s *settings) {
		if structural >= 0 {
			s.structuralCadence = structural
		}
		if count >= 0 {
			s.countCadence = count
		}
	}
}

// WithSortThreshold sets the partition size above which Sort fans out.
func WithSortThreshold(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.sortThreshold = n
		}
	}
}

// WithClock overrides the time source of the cadences.
func WithClock(c Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger used for ingestion runs.
func WithLogger(l *logging.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSettings applies the [collection] section of browse.conf.
func WithSettings(c config.CollectionConfig) Option {
	return func(s *settings) {
		WithCadence(c.StructuralCadence(), c.CountCadence())(s)
		WithSortThreshold(c.SortThreshold)(s)
	}
}

// IngestOption configures one ingestion run.
type IngestOption func(*ingestOptions)

type ingestOptions struct {
	reset bool
	runID string
}

// WithResetFlush reports flushes as Reset instead of an Add range. Use it when
// a range description would mislead observers, e.g. sorted inserts that land
// in the middle of the list.
func WithResetFlush() IngestOption {
	return func(o *ingestOptions) { o.reset = true }
}

// WithRunID sets the run identifier used in logs and results.
func WithRunID(id string) IngestOption {
	return func(o *ingestOptions) { o.runID = id }
}
