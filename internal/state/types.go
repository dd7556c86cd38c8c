// Package state provides observable view models over file listings.
// A FileListState owns a sorted collection of models.FileItem and reports its
// own derived properties (loading, sort, selection, folder) as
// PropertyChanged events on the collection's affinity context, so a frontend
// subscribes once and receives list and property changes in order.
package state

import "errors"

// Property names carried by PropertyChanged events.
const (
	PropLoading       = "Loading"
	PropLastError     = "LastError"
	PropSort          = "Sort"
	PropSelection     = "Selection"
	PropCurrentFolder = "CurrentFolder"
)

// ErrUnknownSource is returned by Manager.State for a source it does not hold.
var ErrUnknownSource = errors.New("unknown file list source")
