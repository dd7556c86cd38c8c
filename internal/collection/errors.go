package collection

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned for an index outside the collection.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNilSource is returned when an ingestion source is nil.
	ErrNilSource = errors.New("source is nil")

	// ErrNoComparator is returned by operations that need an ordering.
	ErrNoComparator = errors.New("collection has no comparator")

	// ErrBreaksOrder is returned when a positional write would unsort a sorted collection.
	ErrBreaksOrder = errors.New("value does not fit the sort order at this index")

	// ErrIngestionInProgress is returned when a second ingestion starts on the same collection.
	ErrIngestionInProgress = errors.New("ingestion already in progress")
)

func indexError(index, length int) error {
	return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, index, length)
}
