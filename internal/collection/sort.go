package collection

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rescale/rescale-browse/internal/constants"
	"github.com/rescale/rescale-browse/internal/events"
)

// ParallelSort sorts items in place with a quicksort that partitions around
// the middle element. When both halves of a partition are larger than
// threshold they are sorted concurrently; cmp must be safe for that.
// The sort is not stable. A panic in cmp is raised on the calling goroutine.
func ParallelSort[T any](items []T, cmp func(a, b T) int, threshold int) {
	if threshold <= 0 {
		threshold = constants.SortParallelThreshold
	}
	quicksort(items, cmp, threshold)
}

func quicksort[T any](s []T, cmp func(a, b T) int, threshold int) {
	for len(s) > 1 {
		i, j := partition(s, cmp)
		left, right := s[:j+1], s[i:]

		if len(left) > threshold && len(right) > threshold {
			var g errgroup.Group
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("comparator panicked: %v", r)
					}
				}()
				quicksort(left, cmp, threshold)
				return nil
			})
			quicksort(right, cmp, threshold)
			if err := g.Wait(); err != nil {
				// Re-raised on the sorting goroutine, where callers can recover it.
				panic(err)
			}
			return
		}

		// Recurse into the smaller side, loop on the larger one.
		if len(left) < len(right) {
			quicksort(left, cmp, threshold)
			s = right
		} else {
			quicksort(right, cmp, threshold)
			s = left
		}
	}
}

// partition scans inward from both ends, swapping pairs that sit on the wrong
// side of the pivot. On return s[:j+1] <= pivot <= s[i:].
func partition[T any](s []T, cmp func(a, b T) int) (i, j int) {
	pivot := s[len(s)/2]
	i, j = 0, len(s)-1
	for i <= j {
		for cmp(s[i], pivot) < 0 {
			i++
		}
		for cmp(s[j], pivot) > 0 {
			j--
		}
		if i <= j {
			s[i], s[j] = s[j], s[i]
			i++
			j--
		}
	}
	return i, j
}

// Sort re-sorts the collection with its comparator and emits one Reset.
// Readers block until the sort is done.
func (c *Collection[T]) Sort() error {
	c.mu.Lock()
	if c.cmp == nil {
		c.mu.Unlock()
		return ErrNoComparator
	}
	c.sortLocked()
	return nil
}

// SortBy installs cmp and re-sorts. A nil cmp returns ErrNoComparator.
func (c *Collection[T]) SortBy(cmp func(a, b T) int) error {
	if cmp == nil {
		return ErrNoComparator
	}
	c.mu.Lock()
	c.cmp = cmp
	c.sortLocked()
	return nil
}

// SetComparator switches the insertion mode. A nil comparator selects append
// mode and leaves the items untouched; anything else re-sorts like SortBy.
func (c *Collection[T]) SetComparator(cmp func(a, b T) int) {
	if cmp != nil {
		_ = c.SortBy(cmp)
		return
	}
	c.mu.Lock()
	c.cmp = nil
	c.mu.Unlock()
}

// Comparator returns the active comparator, or nil in append mode.
func (c *Collection[T]) Comparator() func(a, b T) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cmp
}

// sortLocked sorts, then releases mu while posting the Reset.
func (c *Collection[T]) sortLocked() {
	ParallelSort(c.items, c.cmp, c.sortThreshold)
	c.commit(events.NewCollectionChangedEvent(c.name, 0, events.ActionReset, -1, len(c.items)))
}
