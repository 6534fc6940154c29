package repositories

import (
	"context"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// Partition is a stored document together with its key.
type Partition struct {
	Key      string
	Document domain.PartitionDocument
}

// PartitionReader defines read operations over the remote document store.
type PartitionReader interface {
	// FindPartition returns the document stored under key, or apperrors.ErrNotFound.
	FindPartition(ctx context.Context, key string) (*domain.PartitionDocument, error)

	// ListPartitions returns every stored partition in a stable enumeration
	// order: the order in which each key was first written.
	ListPartitions(ctx context.Context) ([]Partition, error)
}

// PartitionWriter defines write operations over the remote document store.
type PartitionWriter interface {
	// SavePartition replaces the whole document stored under key.
	SavePartition(ctx context.Context, key string, doc domain.PartitionDocument) error
}

// PartitionRepositoryFacade combines all partition repository interfaces
type PartitionRepositoryFacade interface {
	PartitionReader
	PartitionWriter
}
