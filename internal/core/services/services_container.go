package services

import (
	"github.com/SscSPs/ledger_sync/internal/core/ports"
	"github.com/SscSPs/ledger_sync/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/platform/config"
	"go.uber.org/zap"
)

// ClientDependencies are the adapters a device-side container is built on.
type ClientDependencies struct {
	Store        portsrepo.LocalStateStore
	Gateway      gateways.RemoteGateway
	IDs          ports.IDGenerator
	Connectivity ports.ConnectivitySource
	Logger       *zap.Logger
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, deps ClientDependencies) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The sync engine comes first: registration and login use it as the
	// remote directory.
	container.Sync = NewSyncEngine(deps.Store, deps.Gateway,
		WithConnectivity(deps.Connectivity),
		WithBootstrapURL(cfg.BootstrapURL),
		WithDebounceInterval(cfg.SyncDebounceInterval),
		WithSyncLogger(deps.Logger),
	)

	container.Registration = NewRegistrationService(deps.Store, deps.IDs,
		WithRegistrationDirectory(container.Sync),
		WithRegistrationPublisher(container.Sync),
		WithRegistrationLogger(deps.Logger),
	)
	container.Auth = NewAuthService(deps.Store,
		WithAuthDirectory(container.Sync),
		WithAuthLogger(deps.Logger),
	)
	container.Ledger = NewLedgerService(deps.Store, deps.IDs, deps.Logger)
	container.Catalog = NewCatalogService(deps.Store, deps.IDs, deps.Logger)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.SyncEngineFacade = (*syncEngine)(nil)
	_ portssvc.MergeSvcFacade   = (*mergeService)(nil)
	_ portssvc.RegistrationSvc  = (*registrationService)(nil)
	_ portssvc.AuthSvc          = (*authService)(nil)
	_ portssvc.LedgerSvc        = (*ledgerService)(nil)
	_ portssvc.CatalogSvc       = (*catalogService)(nil)
)
