package pgsql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPartitionRepository stores one JSONB document per partition key.
type PgxPartitionRepository struct {
	BaseRepository
}

// NewPartitionRepository creates a new repository for partition documents.
func NewPartitionRepository(pool *pgxpool.Pool) *PgxPartitionRepository {
	return &PgxPartitionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxPartitionRepository implements portsrepo.PartitionRepositoryFacade
var _ portsrepo.PartitionRepositoryFacade = (*PgxPartitionRepository)(nil)

// FindPartition retrieves the document of a partition by its key.
func (r *PgxPartitionRepository) FindPartition(ctx context.Context, key string) (*domain.PartitionDocument, error) {
	query := `
		SELECT document
		FROM partitions
		WHERE partition_key = $1;
	`
	var raw []byte
	if err := r.Pool.QueryRow(ctx, query, key).Scan(&raw); err != nil {
		return nil, r.translateError(err, fmt.Sprintf("failed to find partition %s", key))
	}

	var doc domain.PartitionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode partition %s: %w", key, err)
	}
	return &doc, nil
}

// ListPartitions retrieves every partition ordered by creation sequence.
func (r *PgxPartitionRepository) ListPartitions(ctx context.Context) ([]portsrepo.Partition, error) {
	query := `
		SELECT partition_key, document
		FROM partitions
		ORDER BY seq ASC;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, r.translateError(err, "failed to list partitions")
	}
	defer rows.Close()

	var partitions []portsrepo.Partition
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, r.translateError(err, "failed to scan partition row")
		}
		var doc domain.PartitionDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode partition %s: %w", key, err)
		}
		partitions = append(partitions, portsrepo.Partition{Key: key, Document: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, r.translateError(err, "failed to iterate partitions")
	}
	return partitions, nil
}

// SavePartition inserts or fully replaces the document of a partition. The
// creation sequence of an existing key is preserved.
func (r *PgxPartitionRepository) SavePartition(ctx context.Context, key string, doc domain.PartitionDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode partition %s: %w", key, err)
	}

	query := `
		INSERT INTO partitions (partition_key, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (partition_key)
		DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at;
	`
	if _, err := r.Pool.Exec(ctx, query, key, raw); err != nil {
		return r.translateError(err, fmt.Sprintf("failed to save partition %s", key))
	}
	return nil
}
