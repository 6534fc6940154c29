package services

import (
	"context"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// MergeReaderSvc defines the read side of the remote merge service.
type MergeReaderSvc interface {
	// Pull returns the document of a tenant, or the merged view of every tenant
	// for the global key.
	Pull(ctx context.Context, partitionKey string) (*domain.PartitionDocument, error)

	// FindUserByEmail scans the users of every partition, case-insensitively.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// MergeWriterSvc defines the write side of the remote merge service.
type MergeWriterSvc interface {
	// Push overwrites a tenant document, or fans the users of a global payload
	// out into their partitions.
	Push(ctx context.Context, partitionKey string, payload domain.PartitionDocument) error
}

// MergeSvcFacade combines all merge service interfaces
type MergeSvcFacade interface {
	MergeReaderSvc
	MergeWriterSvc
}
