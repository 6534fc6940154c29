package pgsql

import (
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the Postgres-backed repositories of the merge server.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		PartitionRepo: NewPartitionRepository(dbPool),
	}
}
