package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	"go.uber.org/zap"
)

// LocalStateStore holds the device state in memory and mirrors every committed
// change to a SnapshotRepository once Load has run.
type LocalStateStore struct {
	mu       sync.Mutex
	state    domain.LocalState
	hydrated bool
	snapshot portsrepo.SnapshotRepository
	logger   *zap.Logger
	// seq numbers commits under mu. saveMu orders snapshot writes; savedSeq is
	// the newest commit written, so an older commit never overwrites it.
	seq      uint64
	saveMu   sync.Mutex
	savedSeq uint64

	listenersMu sync.Mutex
	listeners   map[int]func(portsrepo.ChangeEvent)
	nextID      int
}

// NewLocalStateStore creates a store holding the fresh-install state. A nil
// snapshot repository keeps the state in memory only.
func NewLocalStateStore(snapshot portsrepo.SnapshotRepository, logger *zap.Logger) *LocalStateStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalStateStore{
		state:     domain.NewLocalState(),
		snapshot:  snapshot,
		logger:    logger,
		listeners: map[int]func(portsrepo.ChangeEvent){},
	}
}

// Ensure LocalStateStore implements portsrepo.LocalStateStore
var _ portsrepo.LocalStateStore = (*LocalStateStore)(nil)

// Load reads the stored snapshot, if any, and enables persistence of later
// changes. It runs once at start-up.
func (s *LocalStateStore) Load(ctx context.Context) error {
	var stored *domain.LocalState
	if s.snapshot != nil {
		var err error
		stored, err = s.snapshot.LoadSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("failed to load local snapshot: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if stored != nil {
		s.state = stored.Clone()
	}
	s.state.EnsureSuperAdmin()
	s.hydrated = true
	s.logger.Info("Local state loaded",
		zap.Bool("from_snapshot", stored != nil),
		zap.Int("users", len(s.state.Users)),
		zap.Int("transactions", len(s.state.Transactions)))
	return nil
}

func (s *LocalStateStore) State() domain.LocalState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *LocalStateStore) Update(ctx context.Context, origin portsrepo.ChangeOrigin, fn portsrepo.UpdateFunc) error {
	s.mu.Lock()
	working := s.state.Clone()
	changed, err := fn(&working)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = working
	s.seq++
	seq := s.seq
	persist := s.hydrated && s.snapshot != nil
	var committed domain.LocalState
	if persist {
		committed = working.Clone()
	}
	s.mu.Unlock()

	if persist {
		s.save(ctx, seq, committed)
	}

	if len(changed) > 0 {
		s.notify(portsrepo.ChangeEvent{Origin: origin, Collections: changed})
	}
	return nil
}

// save writes the snapshot of commit seq unless a later commit was already
// written.
func (s *LocalStateStore) save(ctx context.Context, seq uint64, committed domain.LocalState) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if seq <= s.savedSeq {
		s.logger.Debug("Skipping stale snapshot", zap.Uint64("seq", seq), zap.Uint64("saved_seq", s.savedSeq))
		return
	}
	if err := s.snapshot.SaveSnapshot(ctx, committed); err != nil {
		s.logger.Error("Failed to save local snapshot", zap.Error(err))
		return
	}
	s.savedSeq = seq
}

func (s *LocalStateStore) Subscribe(listener func(portsrepo.ChangeEvent)) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *LocalStateStore) notify(event portsrepo.ChangeEvent) {
	s.listenersMu.Lock()
	listeners := make([]func(portsrepo.ChangeEvent), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.listenersMu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}
