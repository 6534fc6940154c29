package repositories

import (
	"context"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// SnapshotRepository persists the local snapshot in one durable slot.
type SnapshotRepository interface {
	// LoadSnapshot returns the stored snapshot, or nil when none was saved yet.
	LoadSnapshot(ctx context.Context) (*domain.LocalState, error)

	// SaveSnapshot overwrites the stored snapshot.
	SaveSnapshot(ctx context.Context, state domain.LocalState) error
}

// ChangeOrigin tells who caused a local state change.
type ChangeOrigin int

const (
	// OriginLocal is a change made on this device.
	OriginLocal ChangeOrigin = iota
	// OriginRemote is a change applied from a pull.
	OriginRemote
)

// ChangeEvent is delivered to subscribers after a committed update.
type ChangeEvent struct {
	Origin      ChangeOrigin
	Collections []domain.Collection
}

// Touches reports whether the event changed any of the given collections.
func (e ChangeEvent) Touches(collections ...domain.Collection) bool {
	for _, changed := range e.Collections {
		for _, c := range collections {
			if changed == c {
				return true
			}
		}
	}
	return false
}

// UpdateFunc mutates a private copy of the state and returns the collections it
// changed. Returning an error discards the copy.
type UpdateFunc func(state *domain.LocalState) ([]domain.Collection, error)

// LocalStateStore is the in-memory local store shared by the services and the
// sync engine.
type LocalStateStore interface {
	// State returns a copy of the current state.
	State() domain.LocalState

	// Update applies fn atomically: either every change of fn is committed or
	// none is.
	Update(ctx context.Context, origin ChangeOrigin, fn UpdateFunc) error

	// Subscribe registers a listener for committed changes and returns a
	// function that removes it.
	Subscribe(listener func(ChangeEvent)) (unsubscribe func())
}
