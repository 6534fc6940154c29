package gateways

import (
	"context"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// RemoteGateway is the network side of the sync engine.
type RemoteGateway interface {
	// FetchBootstrap downloads the bootstrap document as opaque text.
	FetchBootstrap(ctx context.Context, url string) (string, error)

	// SendPush posts the payload. The response body is not read; only
	// transport failures are reported.
	SendPush(ctx context.Context, endpoint string, req domain.SyncPushRequest) error

	// FetchPull reads the partition. Transport and decoding failures are
	// returned as errors.
	FetchPull(ctx context.Context, endpoint string, partitionKey string) (*domain.SyncPullResponse, error)

	// LookupUser searches every remote partition for the e-mail.
	LookupUser(ctx context.Context, endpoint string, email string) (*domain.UserLookupResponse, error)
}
