package collection

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/rescale-browse/internal/dispatch"
	"github.com/rescale/rescale-browse/internal/events"
)

func TestAddAppendsInCallOrder(t *testing.T) {
	c := New[int](nil)
	rec := observed(c)

	for _, v := range []int{3, 1, 2} {
		c.Add(v)
	}

	assert.Equal(t, []int{3, 1, 2}, c.Snapshot())
	assert.Equal(t, 3, c.Len())

	changes := rec.changes()
	require.Len(t, changes, 3)
	for i, ev := range changes {
		assert.Equal(t, events.ActionAdd, ev.Action)
		assert.Equal(t, i, ev.Index)
		assert.Equal(t, 1, ev.Count)
		assert.False(t, ev.Final)
	}
	assert.Equal(t, 3, changes[0].NewItem)

	counts := rec.counts()
	require.Len(t, counts, 3)
	assert.Equal(t, 3, counts[2].Count)
}

func TestAddSortedInsertsAtSearchPosition(t *testing.T) {
	c := New(ascending)
	rec := observed(c)

	assert.Equal(t, 0, c.Add(5))
	assert.Equal(t, 0, c.Add(1))
	assert.Equal(t, 1, c.Add(3))
	assert.Equal(t, 3, c.Add(9))

	assert.Equal(t, []int{1, 3, 5, 9}, c.Snapshot())
	assert.Equal(t, 1, rec.changes()[2].Index)
}

func TestInsert(t *testing.T) {
	c := NewFrom([]int{1, 2, 3}, nil)
	rec := observed(c)

	require.NoError(t, c.Insert(1, 10))
	require.NoError(t, c.Insert(4, 20))
	assert.Equal(t, []int{1, 10, 2, 3, 20}, c.Snapshot())

	err := c.Insert(6, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.ErrorIs(t, c.Insert(-1, 0), ErrIndexOutOfRange)
	assert.Len(t, rec.changes(), 2)
}

func TestInsertSortedChecksNeighbours(t *testing.T) {
	c := NewFrom([]int{1, 3, 5}, ascending)

	assert.ErrorIs(t, c.Insert(0, 4), ErrBreaksOrder)
	assert.ErrorIs(t, c.Insert(3, 4), ErrBreaksOrder)
	require.NoError(t, c.Insert(2, 4))
	require.NoError(t, c.Insert(0, 1))
	assert.Equal(t, []int{1, 1, 3, 4, 5}, c.Snapshot())
}

func TestSetReplaces(t *testing.T) {
	c := NewFrom([]int{1, 2, 3}, nil)
	rec := observed(c)

	require.NoError(t, c.Set(1, 7))
	assert.Equal(t, []int{1, 7, 3}, c.Snapshot())

	changes := rec.changes()
	require.Len(t, changes, 1)
	assert.Equal(t, events.ActionReplace, changes[0].Action)
	assert.Equal(t, 7, changes[0].NewItem)
	assert.Equal(t, 2, changes[0].OldItem)
	assert.Empty(t, rec.counts(), "replace does not change the count")

	assert.ErrorIs(t, c.Set(3, 0), ErrIndexOutOfRange)
}

func TestSetSortedRejectsOutOfOrder(t *testing.T) {
	c := NewFrom([]int{1, 3, 5}, ascending)
	assert.ErrorIs(t, c.Set(1, 6), ErrBreaksOrder)
	require.NoError(t, c.Set(1, 4))
	assert.Equal(t, []int{1, 4, 5}, c.Snapshot())
}

func TestRemove(t *testing.T) {
	c := NewFrom([]int{4, 5, 6, 5}, nil)
	rec := observed(c)

	assert.True(t, c.Remove(5))
	assert.Equal(t, []int{4, 6, 5}, c.Snapshot())
	assert.False(t, c.Remove(42))

	require.NoError(t, c.RemoveAt(0))
	assert.Equal(t, []int{6, 5}, c.Snapshot())
	assert.ErrorIs(t, c.RemoveAt(2), ErrIndexOutOfRange)

	changes := rec.changes()
	require.Len(t, changes, 2)
	assert.Equal(t, events.ActionRemove, changes[0].Action)
	assert.Equal(t, 1, changes[0].Index)
	assert.Equal(t, 5, changes[0].OldItem)

	counts := rec.counts()
	require.Len(t, counts, 2)
	assert.Equal(t, 2, counts[1].Count)
}

func TestClearEmitsReset(t *testing.T) {
	c := NewFrom([]int{1, 2, 3}, nil)
	rec := observed(c)

	c.Clear()

	assert.Zero(t, c.Len())
	changes := rec.changes()
	require.Len(t, changes, 1)
	assert.Equal(t, events.ActionReset, changes[0].Action)
	assert.Equal(t, -1, changes[0].Index)
	require.Len(t, rec.counts(), 1)
	assert.Zero(t, rec.counts()[0].Count)
}

func TestQueries(t *testing.T) {
	c := NewFrom([]int{7, 8, 9}, nil)

	v, err := c.At(2)
	require.NoError(t, err)
	assert.Equal(t, 9, v)

	_, err = c.At(3)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	assert.Contains(t, err.Error(), "index 3, length 3")

	assert.True(t, c.Contains(8))
	assert.False(t, c.Contains(1))
	assert.Equal(t, 1, c.IndexOf(8))
	assert.Equal(t, -1, c.IndexOf(1))

	var seen []int
	for i, v := range c.All() {
		assert.Equal(t, c.IndexOf(v), i)
		seen = append(seen, v)
	}
	assert.Equal(t, []int{7, 8, 9}, seen)
}

func TestSnapshotIsACopy(t *testing.T) {
	c := NewFrom([]int{1, 2}, nil)
	snap := c.Snapshot()
	snap[0] = 100

	v, _ := c.At(0)
	assert.Equal(t, 1, v)
}

func TestNewFromSortsWithoutNotifying(t *testing.T) {
	src := []int{3, 1, 2}
	c := NewFrom(src, ascending)
	rec := observed(c)

	assert.Equal(t, []int{1, 2, 3}, c.Snapshot())
	assert.Equal(t, []int{3, 1, 2}, src, "source slice must not be aliased")
	assert.Empty(t, rec.all())
}

func TestUnsubscribe(t *testing.T) {
	c := New[int](nil)
	rec := &recorder{}
	unsubscribe := c.Subscribe(rec.observe)

	c.Add(1)
	unsubscribe()
	c.Add(2)

	assert.Len(t, rec.changes(), 1)
}

func TestSequenceNumbersIncrease(t *testing.T) {
	c := New[int](nil, WithName("files"))
	rec := observed(c)

	c.Add(1)
	c.Add(2)
	c.NotifyProperty("Selection")
	require.NoError(t, c.RemoveAt(0))

	all := rec.all()
	require.Len(t, all, 7)
	for i, ev := range all {
		assert.Equal(t, int64(i+1), seqOf(ev))
	}

	prop, ok := all[4].(*events.PropertyChangedEvent)
	require.True(t, ok)
	assert.Equal(t, "Selection", prop.Property)
	assert.Equal(t, "files", prop.Source)
}

func TestLoopDeliversOnOneGoroutineInOrder(t *testing.T) {
	loop := dispatch.NewLoop(nil)
	loop.Start()

	c := New[int](nil, WithDispatcher(loop))
	rec := observed(c)

	const writers, perWriter = 4, 100
	var mu sync.Mutex // one logical writer at a time
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				mu.Lock()
				c.Add(i)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	loop.Stop()

	all := rec.all()
	require.Len(t, all, 2*writers*perWriter)
	for i, ev := range all {
		assert.Equal(t, int64(i+1), seqOf(ev), "event %d delivered out of order", i)
	}
	assert.Equal(t, writers*perWriter, rec.counts()[len(rec.counts())-1].Count)
}

func TestLoopObserverMayWriteBack(t *testing.T) {
	loop := dispatch.NewLoop(nil)
	loop.Start()
	defer loop.Stop()

	c := New[int](nil, WithDispatcher(loop))
	echoed := make(chan struct{})
	var once sync.Once
	c.Subscribe(func(ev events.Event) {
		switch e := ev.(type) {
		case *events.CollectionChangedEvent:
			once.Do(func() {
				c.NotifyProperty("Echo")
				c.Add(2)
			})
		case *events.PropertyChangedEvent:
			if e.Property == "Echo" {
				close(echoed)
			}
		}
	})

	c.Add(1)

	select {
	case <-echoed:
	case <-time.After(5 * time.Second):
		t.Fatal("observer write-back did not complete")
	}
	assert.Equal(t, 2, c.Len())
}

func TestStoppedDispatcherDropsNotifications(t *testing.T) {
	loop := dispatch.NewLoop(nil)
	loop.Start()
	loop.Stop()

	c := New[int](nil, WithDispatcher(loop))
	rec := observed(c)

	c.Add(1)
	assert.Equal(t, 1, c.Len(), "mutation applies even when nobody can be told")
	assert.Empty(t, rec.all())
}
