package connectivity

import (
	"sync"

	"github.com/SscSPs/ledger_sync/internal/core/ports"
)

// Manual is a connectivity source driven by its owner, e.g. a CLI flag or a
// test. Transitions are delivered on a buffered channel; when the buffer is
// full the oldest pending transition is dropped, since only the latest state
// matters.
type Manual struct {
	mu      sync.Mutex
	online  bool
	changes chan bool
}

// NewManual creates a source with the given initial state.
func NewManual(online bool) *Manual {
	return &Manual{online: online, changes: make(chan bool, 8)}
}

var _ ports.ConnectivitySource = (*Manual)(nil)

func (m *Manual) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Manual) Changes() <-chan bool {
	return m.changes
}

// Set updates the state and publishes the transition. Setting the current
// state again publishes nothing.
func (m *Manual) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online == online {
		return
	}
	m.online = online
	for {
		select {
		case m.changes <- online:
			return
		default:
			select {
			case <-m.changes:
			default:
			}
		}
	}
}
