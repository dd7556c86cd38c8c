package state

import (
	"fmt"

	"github.com/rescale/rescale-browse/internal/collection"
	"github.com/rescale/rescale-browse/internal/dispatch"
	"github.com/rescale/rescale-browse/internal/events"
	"github.com/rescale/rescale-browse/internal/models"
)

// Manager owns the file lists of one browsing session. Both lists deliver
// their notifications through the same dispatcher, so a frontend observes
// them in one total order.
type Manager struct {
	local  *FileListState
	remote *FileListState
}

// NewManager creates the local and remote lists on dispatcher d.
// eventBus may be nil.
func NewManager(d dispatch.Dispatcher, eventBus *events.EventBus, opts ...collection.Option) *Manager {
	opts = append(opts, collection.WithDispatcher(d))
	return &Manager{
		local:  NewFileListState(models.SourceLocal, eventBus, opts...),
		remote: NewFileListState(models.SourceRemote, eventBus, opts...),
	}
}

// Local returns the local file list.
func (m *Manager) Local() *FileListState { return m.local }

// Remote returns the remote file list.
func (m *Manager) Remote() *FileListState { return m.remote }

// State returns the list for source. Object store sources share the remote list.
func (m *Manager) State(source string) (*FileListState, error) {
	switch source {
	case models.SourceLocal:
		return m.local, nil
	case models.SourceRemote, models.SourceS3, models.SourceAzure:
		return m.remote, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
}
