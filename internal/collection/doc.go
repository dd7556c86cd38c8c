// Package collection implements the batched, order-preserving observable
// collection that backs the file browser's list, grid and tree views.
//
// A Collection owns an ordered slice of items. Background producers feed it
// through AddRange (finite sources) or AddStream (streaming sources with
// errors); the ingestion loop inserts each item, either appended or at its
// binary-search position when a comparator is active, and coalesces change
// notifications on two independent cadences: structural flushes (Add or
// Reset ranges, default every 250ms) and lightweight count signals (default
// every 50ms). Every run ends with exactly one final structural flush and one
// final count signal, whether the source was exhausted, failed or the context
// was cancelled. Cancellation is not reported as an error.
//
// Notifications reach observers through a dispatch.Dispatcher, the single
// affinity context on which all observer callbacks run, in emission order.
//
// Single-item mutations (Add, Insert, RemoveAt, Remove, Set, Clear) each emit
// one structural event and, when the length changed, one count event.
//
// Sort re-orders the whole collection with a parallel quicksort and emits one
// Reset. A comparator passed to New must be safe for concurrent use, because
// the sort calls it from several goroutines.
package collection
