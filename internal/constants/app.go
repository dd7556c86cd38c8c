package constants

import (
	"time"
)

// Collection notification cadence
const (
	// StructuralCadence - minimum interval between two structural flushes (250ms)
	// during one ingestion run. Larger values mean fewer, bigger Add/Reset batches.
	StructuralCadence = 250 * time.Millisecond

	// CountCadence - minimum interval between two count-changed signals (50ms)
	// Counts are cheap for the UI to apply, so they refresh five times as often.
	CountCadence = 50 * time.Millisecond

	// MaxCadence - upper bound accepted from configuration (10s)
	MaxCadence = 10 * time.Second
)

// Sort Engine
const (
	// SortParallelThreshold - both partitions must be larger than this (250 items)
	// before they are sorted on separate goroutines.
	SortParallelThreshold = 250

	// MinSortThreshold - smallest threshold accepted from configuration
	// Below this the goroutine overhead dominates the partition work.
	MinSortThreshold = 16
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels (1000)
	// 1000 events is generous for monitoring subscribers; flushes are already batched.
	EventBusDefaultBuffer = 1000

	// EventBusMaxBuffer - maximum buffer size for high-throughput scenarios (5000)
	EventBusMaxBuffer = 5000
)

// Listing producers
const (
	// DefaultPageSize - items requested per page from paged remote listings
	DefaultPageSize = 200

	// MaxPageSize - S3 and Azure both cap list pages at 1000 keys
	MaxPageSize = 1000

	// DefaultRequestsPerSecond - request rate for the HTTP folder API
	DefaultRequestsPerSecond = 5.0

	// DefaultRequestBurst - burst allowed by the HTTP folder API limiter
	DefaultRequestBurst = 10
)

// Retry configuration
const (
	// MaxRetries - maximum number of retries for transient HTTP errors
	MaxRetries = 5

	// RetryInitialDelay - initial delay before first retry (200ms)
	RetryInitialDelay = 200 * time.Millisecond

	// RetryMaxDelay - maximum delay between retries (15s)
	RetryMaxDelay = 15 * time.Second
)

// UI Updates
const (
	// ProgressUpdateInterval - minimum interval between progress bar redraws (250ms)
	// Matches the structural cadence so the bar and the list move together.
	ProgressUpdateInterval = 250 * time.Millisecond
)
