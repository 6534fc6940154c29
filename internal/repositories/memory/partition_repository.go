package memory

import (
	"context"
	"sync"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
)

// PartitionRepository keeps partition documents in process memory. Keys are
// enumerated in first-write order.
type PartitionRepository struct {
	mu    sync.RWMutex
	docs  map[string]domain.PartitionDocument
	order []string
}

// NewPartitionRepository creates an empty in-memory partition store.
func NewPartitionRepository() *PartitionRepository {
	return &PartitionRepository{docs: map[string]domain.PartitionDocument{}}
}

// Ensure PartitionRepository implements portsrepo.PartitionRepositoryFacade
var _ portsrepo.PartitionRepositoryFacade = (*PartitionRepository)(nil)

func (r *PartitionRepository) FindPartition(ctx context.Context, key string) (*domain.PartitionDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := doc.Clone()
	return &clone, nil
}

func (r *PartitionRepository) ListPartitions(ctx context.Context) ([]portsrepo.Partition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	partitions := make([]portsrepo.Partition, 0, len(r.order))
	for _, key := range r.order {
		partitions = append(partitions, portsrepo.Partition{Key: key, Document: r.docs[key].Clone()})
	}
	return partitions, nil
}

func (r *PartitionRepository) SavePartition(ctx context.Context, key string, doc domain.PartitionDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[key]; !exists {
		r.order = append(r.order, key)
	}
	r.docs[key] = doc.Clone()
	return nil
}
