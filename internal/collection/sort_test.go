package collection

import (
	"math/rand/v2"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/rescale-browse/internal/events"
)

func TestParallelSort(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))

	sizes := []int{0, 1, 2, 3, 16, 249, 250, 251, 1000, 20000}
	for _, n := range sizes {
		for _, threshold := range []int{16, 250} {
			items := make([]int, n)
			for i := range items {
				items[i] = r.IntN(n/3 + 1) // plenty of duplicates
			}
			want := slices.Clone(items)
			slices.Sort(want)

			ParallelSort(items, ascending, threshold)
			assert.Equal(t, want, items, "n=%d threshold=%d", n, threshold)
		}
	}
}

func TestParallelSortPresortedAndReversed(t *testing.T) {
	asc := make([]int, 5000)
	for i := range asc {
		asc[i] = i
	}
	desc := slices.Clone(asc)
	slices.Reverse(desc)
	same := slices.Repeat([]int{42}, 5000)

	for name, items := range map[string][]int{"ascending": asc, "descending": desc, "constant": same} {
		t.Run(name, func(t *testing.T) {
			ParallelSort(items, ascending, 0)
			assert.True(t, slices.IsSorted(items))
		})
	}
}

func TestParallelSortCallsComparatorConcurrently(t *testing.T) {
	var calls atomic.Int64
	cmp := func(a, b string) int {
		calls.Add(1)
		return strings.Compare(a, b)
	}

	r := rand.New(rand.NewPCG(3, 4))
	items := make([]string, 4000)
	for i := range items {
		items[i] = string(rune('a'+r.IntN(26))) + string(rune('a'+r.IntN(26)))
	}

	ParallelSort(items, cmp, 16)
	assert.True(t, slices.IsSorted(items))
	assert.Positive(t, calls.Load())
}

func TestParallelSortComparatorPanicReachesCaller(t *testing.T) {
	items := make([]int, 2000)
	for i := range items {
		items[i] = len(items) - i
	}

	// Let the first partition finish, then fail in both concurrent halves.
	var calls atomic.Int64
	limit := int64(len(items) + 10)
	cmp := func(a, b int) int {
		if calls.Add(1) > limit {
			panic("bad comparator")
		}
		return ascending(a, b)
	}

	assert.Panics(t, func() { ParallelSort(items, cmp, 16) })
}

func TestSortEmitsOneReset(t *testing.T) {
	c := NewFrom([]int{5, 3, 1, 4, 2}, nil)
	rec := observed(c)

	assert.ErrorIs(t, c.Sort(), ErrNoComparator)

	require.NoError(t, c.SortBy(ascending))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, c.Snapshot())

	all := rec.all()
	require.Len(t, all, 1)
	ev := all[0].(*events.CollectionChangedEvent)
	assert.Equal(t, events.ActionReset, ev.Action)
	assert.Equal(t, 5, ev.Count)
}

func TestSortEmptyCollection(t *testing.T) {
	c := New(ascending)
	rec := observed(c)

	require.NoError(t, c.Sort())

	all := rec.all()
	require.Len(t, all, 1)
	ev, ok := all[0].(*events.CollectionChangedEvent)
	require.True(t, ok)
	assert.Equal(t, events.ActionReset, ev.Action)
	assert.Zero(t, ev.Count)
}

func TestSetComparator(t *testing.T) {
	c := NewFrom([]int{3, 1, 2}, nil)
	rec := observed(c)

	c.SetComparator(func(a, b int) int { return b - a })
	assert.True(t, c.Sorted())
	assert.Equal(t, []int{3, 2, 1}, c.Snapshot())
	assert.Len(t, rec.changes(), 1)

	c.Add(0)
	assert.Equal(t, []int{3, 2, 1, 0}, c.Snapshot())

	rec.reset()
	c.SetComparator(nil)
	assert.False(t, c.Sorted())
	assert.Nil(t, c.Comparator())
	assert.Empty(t, rec.all())

	c.Add(10)
	assert.Equal(t, []int{3, 2, 1, 0, 10}, c.Snapshot())
}
