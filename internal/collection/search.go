package collection

// BinarySearch searches the sorted slice items for v.
//
// It returns the index of an element comparing equal to v, or the bitwise
// complement of the index at which v would be inserted to keep items sorted.
// Which match is returned among duplicates is unspecified.
func BinarySearch[T any](items []T, v T, cmp func(a, b T) int) int {
	lo, hi := 0, len(items)-1
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		switch c := cmp(items[mid], v); {
		case c < 0:
			lo = mid + 1
		case c > 0:
			hi = mid - 1
		default:
			return mid
		}
	}
	return ^lo
}

// BinarySearch searches the collection with its active comparator.
func (c *Collection[T]) BinarySearch(v T) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cmp == nil {
		return 0, ErrNoComparator
	}
	return BinarySearch(c.items, v, c.cmp), nil
}
