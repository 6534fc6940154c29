package services

// ServiceContainer holds instances of the device-side services. The sync
// engine is part of it because every host that has a local store also syncs it.
type ServiceContainer struct {
	Sync         SyncEngineFacade
	Registration RegistrationSvc
	Auth         AuthSvc
	Ledger       LedgerSvc
	Catalog      CatalogSvc
}
