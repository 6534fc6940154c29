package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// SyncStatus is a point-in-time view of the engine flags.
type SyncStatus struct {
	Online           bool
	RemoteConfigured bool
	ServerResponding bool
	Endpoint         string
	PushInFlight     bool
	PushScheduled    bool
	LastPushAt       time.Time
	LastPullAt       time.Time
}

// EndpointResolverSvc resolves the remote sync endpoint.
type EndpointResolverSvc interface {
	// ResolveEndpoint returns the cached endpoint, resolving it first if needed.
	// The boolean is false when sync is unavailable.
	ResolveEndpoint(ctx context.Context) (string, bool)
}

// RemoteDirectorySvc finds users that are not on this device yet.
type RemoteDirectorySvc interface {
	// LookupUserByEmail searches every remote partition. It returns
	// apperrors.ErrNotFound when the remote has no such user or sync is unavailable.
	LookupUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// SyncSvc defines the push/pull operations.
type SyncSvc interface {
	Push(ctx context.Context) domain.SyncOutcome
	Pull(ctx context.Context) domain.SyncOutcome
	Status() SyncStatus
}

// PartitionPublisherSvc sends one tenant's records under that tenant's key,
// regardless of the session. Registration uses it so a new company gets a
// remote partition before anyone can sign in to it.
type PartitionPublisherSvc interface {
	PushPartition(ctx context.Context, companyID string) domain.SyncOutcome
}

// SyncLifecycle starts and stops the background parts of the engine.
type SyncLifecycle interface {
	Start(ctx context.Context) error
	Stop()
}

// SyncEngineFacade combines all sync engine interfaces
type SyncEngineFacade interface {
	EndpointResolverSvc
	RemoteDirectorySvc
	SyncSvc
	PartitionPublisherSvc
	SyncLifecycle
}
