package state

import (
	"context"
	"iter"
	"sync"

	"github.com/google/uuid"

	"github.com/rescale/rescale-browse/internal/collection"
	"github.com/rescale/rescale-browse/internal/events"
	"github.com/rescale/rescale-browse/internal/models"
)

// FileListState is an observable file list container.
// It holds the current list of files/folders, always sorted, plus the
// selection and folder the list belongs to. Thread-safe for concurrent access.
type FileListState struct {
	// Source identifies this file list ("local" or "remote")
	source string

	items *collection.Collection[models.FileItem]

	// Optional monitoring bus; nil disables republishing
	eventBus *events.EventBus

	selected   map[string]bool
	sortBy     string
	ascending  bool
	folderID   string
	folderPath string
	loading    bool
	lastError  error

	mu sync.RWMutex
}

// NewFileListState creates a FileListState sorted by name, ascending.
// Collection options such as the dispatcher and cadences are passed through.
// When eventBus is set every collection event is republished on it along
// with the ingestion lifecycle of Load.
func NewFileListState(source string, eventBus *events.EventBus, opts ...collection.Option) *FileListState {
	cmp, _ := models.FileItemComparator(models.SortByName, true)
	opts = append([]collection.Option{collection.WithName(source)}, opts...)

	s := &FileListState{
		source:    source,
		items:     collection.New(cmp, opts...),
		eventBus:  eventBus,
		selected:  make(map[string]bool),
		sortBy:    models.SortByName,
		ascending: true,
	}
	if eventBus != nil {
		s.items.Subscribe(eventBus.Publish)
	}
	return s
}

// Source returns the list's source name.
func (s *FileListState) Source() string {
	return s.source
}

// Subscribe registers fn for list and property changes.
func (s *FileListState) Subscribe(fn collection.Observer) (unsubscribe func()) {
	return s.items.Subscribe(fn)
}

// Items returns a copy of the current items in display order.
func (s *FileListState) Items() []models.FileItem {
	return s.items.Snapshot()
}

// Len returns the number of items.
func (s *FileListState) Len() int {
	return s.items.Len()
}

// At returns the item at display position i.
func (s *FileListState) At(i int) (models.FileItem, error) {
	return s.items.At(i)
}

// Load replaces the list with the items of src.
//
// The list is cleared first and refilled as src yields, with throttled
// notifications. Cancelling ctx keeps what arrived so far and is not an error.
// A producer error is recorded as LastError and returned. Only one Load runs
// at a time; an overlapping call fails with collection.ErrIngestionInProgress.
// A nil src fails with collection.ErrNilSource before the list is touched.
func (s *FileListState) Load(ctx context.Context, src iter.Seq2[models.FileItem, error]) (collection.IngestResult, error) {
	if src == nil {
		return collection.IngestResult{}, collection.ErrNilSource
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return collection.IngestResult{}, collection.ErrIngestionInProgress
	}
	s.loading = true
	s.lastError = nil
	s.selected = make(map[string]bool)
	s.mu.Unlock()

	s.items.NotifyProperty(PropLoading)
	s.items.NotifyProperty(PropSelection)
	s.items.Clear()

	runID := uuid.NewString()
	opts := []collection.IngestOption{collection.WithRunID(runID)}
	if s.items.Sorted() {
		// Sorted inserts land anywhere, so a view is better off rebinding
		// on each flush than applying ranged adds.
		opts = append(opts, collection.WithResetFlush())
	}

	if s.eventBus != nil {
		s.eventBus.PublishIngest(events.EventIngestStarted, s.source, runID, 0, false, nil)
	}

	res, err := s.items.AddStream(ctx, src, opts...)

	s.mu.Lock()
	s.loading = false
	s.lastError = err
	s.mu.Unlock()

	s.items.NotifyProperty(PropLoading)
	if err != nil {
		s.items.NotifyProperty(PropLastError)
	}
	if s.eventBus != nil {
		s.eventBus.PublishIngest(events.EventIngestCompleted, s.source, res.RunID, res.Added, res.Cancelled, err)
	}
	return res, err
}

// IsLoading returns whether a Load is running.
func (s *FileListState) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError returns the error of the last Load, nil if it succeeded.
func (s *FileListState) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// SetCurrentFolder updates the current folder.
func (s *FileListState) SetCurrentFolder(folderID, folderPath string) {
	s.mu.Lock()
	s.folderID = folderID
	s.folderPath = folderPath
	s.mu.Unlock()

	s.items.NotifyProperty(PropCurrentFolder)
}

// CurrentFolder returns the current folder ID and path.
func (s *FileListState) CurrentFolder() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.folderID, s.folderPath
}

// Select adds an item to the selection.
func (s *FileListState) Select(id string) {
	s.updateSelection(func(sel map[string]bool) { sel[id] = true })
}

// Deselect removes an item from the selection.
func (s *FileListState) Deselect(id string) {
	s.updateSelection(func(sel map[string]bool) { delete(sel, id) })
}

// ToggleSelect toggles an item's selection state.
func (s *FileListState) ToggleSelect(id string) {
	s.updateSelection(func(sel map[string]bool) {
		if sel[id] {
			delete(sel, id)
		} else {
			sel[id] = true
		}
	})
}

// SetSelection sets the selection to the given IDs.
func (s *FileListState) SetSelection(ids []string) {
	s.updateSelection(func(sel map[string]bool) {
		clear(sel)
		for _, id := range ids {
			sel[id] = true
		}
	})
}

// ClearSelection clears all selections.
func (s *FileListState) ClearSelection() {
	s.updateSelection(func(sel map[string]bool) { clear(sel) })
}

func (s *FileListState) updateSelection(fn func(map[string]bool)) {
	s.mu.Lock()
	fn(s.selected)
	s.mu.Unlock()

	s.items.NotifyProperty(PropSelection)
}

// IsSelected returns whether an item is selected.
func (s *FileListState) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected[id]
}

// SelectedCount returns the number of selected items.
func (s *FileListState) SelectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected)
}

// SelectedItems returns the selected items in display order.
func (s *FileListState) SelectedItems() []models.FileItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.FileItem, 0, len(s.selected))
	for _, item := range s.items.All() {
		if s.selected[item.ID] {
			result = append(result, item)
		}
	}
	return result
}

// SetSort changes the sort order and re-sorts the list with a single Reset.
func (s *FileListState) SetSort(sortBy string, ascending bool) error {
	cmp, err := models.FileItemComparator(sortBy, ascending)
	if err != nil {
		return err
	}
	if sortBy == "" {
		sortBy = models.SortByName
	}

	s.items.SetComparator(cmp)

	s.mu.Lock()
	s.sortBy = sortBy
	s.ascending = ascending
	s.mu.Unlock()

	s.items.NotifyProperty(PropSort)
	return nil
}

// Sort returns the current sort settings.
func (s *FileListState) Sort() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortBy, s.ascending
}

// IndexOf returns the display position of item, or -1. The list is always
// sorted, so this is a binary search.
func (s *FileListState) IndexOf(item models.FileItem) int {
	i, err := s.items.BinarySearch(item)
	if err != nil || i < 0 {
		return -1
	}
	return i
}

// IndexOfID returns the display position of the item with the given ID, or -1.
func (s *FileListState) IndexOfID(id string) int {
	for i, item := range s.items.All() {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// FindByID finds an item by ID.
func (s *FileListState) FindByID(id string) (models.FileItem, bool) {
	for _, item := range s.items.All() {
		if item.ID == id {
			return item, true
		}
	}
	return models.FileItem{}, false
}

// Clear clears all items and the selection.
func (s *FileListState) Clear() {
	s.mu.Lock()
	s.selected = make(map[string]bool)
	s.lastError = nil
	s.mu.Unlock()

	s.items.Clear()
	s.items.NotifyProperty(PropSelection)
}
