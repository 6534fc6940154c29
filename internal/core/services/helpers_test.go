package services_test

import (
	"context"
	"errors"
	"sync"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_sync/internal/repositories/memory"
	"github.com/shopspring/decimal"
)

const testEndpoint = "https://sync.example.com/macros/s/dep-1/exec"

var errNetwork = errors.New("network unreachable")

// fakeGateway is a RemoteGateway whose behaviour is set per test through the
// ...Fn fields. Every call is recorded.
type fakeGateway struct {
	FetchBootstrapFn func(ctx context.Context, url string) (string, error)
	SendPushFn       func(ctx context.Context, endpoint string, req domain.SyncPushRequest) error
	FetchPullFn      func(ctx context.Context, endpoint, key string) (*domain.SyncPullResponse, error)
	LookupUserFn     func(ctx context.Context, endpoint, email string) (*domain.UserLookupResponse, error)

	mu             sync.Mutex
	bootstrapCalls int
	pushes         []domain.SyncPushRequest
	pullKeys       []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		FetchBootstrapFn: func(ctx context.Context, url string) (string, error) {
			return "deployed at " + testEndpoint + "\n", nil
		},
	}
}

func (f *fakeGateway) FetchBootstrap(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.bootstrapCalls++
	f.mu.Unlock()
	if f.FetchBootstrapFn == nil {
		return "", errNetwork
	}
	return f.FetchBootstrapFn(ctx, url)
}

func (f *fakeGateway) SendPush(ctx context.Context, endpoint string, req domain.SyncPushRequest) error {
	f.mu.Lock()
	f.pushes = append(f.pushes, req)
	f.mu.Unlock()
	if f.SendPushFn == nil {
		return nil
	}
	return f.SendPushFn(ctx, endpoint, req)
}

func (f *fakeGateway) FetchPull(ctx context.Context, endpoint, key string) (*domain.SyncPullResponse, error) {
	f.mu.Lock()
	f.pullKeys = append(f.pullKeys, key)
	f.mu.Unlock()
	if f.FetchPullFn == nil {
		return nil, errNetwork
	}
	return f.FetchPullFn(ctx, endpoint, key)
}

func (f *fakeGateway) LookupUser(ctx context.Context, endpoint, email string) (*domain.UserLookupResponse, error) {
	if f.LookupUserFn == nil {
		return &domain.UserLookupResponse{Status: domain.StatusError, Message: "User not found"}, nil
	}
	return f.LookupUserFn(ctx, endpoint, email)
}

func (f *fakeGateway) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

func (f *fakeGateway) lastPush() domain.SyncPushRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushes[len(f.pushes)-1]
}

func (f *fakeGateway) bootstrapCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bootstrapCalls
}

// newSeededStore returns a store holding one active company "c1" with an
// ADMIN user "u1" and a cash account "a1" with balance 100.
func newSeededStore() *memory.LocalStateStore {
	store := memory.NewLocalStateStore(nil, nil)
	_ = store.Update(context.Background(), portsrepo.OriginRemote, func(s *domain.LocalState) ([]domain.Collection, error) {
		s.Companies = append(s.Companies, domain.Company{ID: "c1", Name: "Acme", Status: domain.CompanyActive})
		s.Users = append(s.Users, domain.User{
			ID: "u1", CompanyID: "c1", Name: "Owner", Email: "owner@acme.test",
			Password: "secret", PIN: "1234", Role: domain.RoleAdmin, Status: domain.UserActive,
		})
		s.Accounts = append(s.Accounts, domain.Account{
			ID: "a1", CompanyID: "c1", Name: "Cash", Balance: decimal.NewFromInt(100), Type: domain.AccountCash,
		})
		return []domain.Collection{domain.CollectionCompanies, domain.CollectionUsers, domain.CollectionAccounts}, nil
	})
	return store
}

// signIn sets the session user without going through the auth service.
func signIn(store portsrepo.LocalStateStore, userID string) {
	_ = store.Update(context.Background(), portsrepo.OriginRemote, func(s *domain.LocalState) ([]domain.Collection, error) {
		s.CurrentUserID = userID
		s.ShowLanding = false
		return nil, nil
	})
}

// addLocalTransaction appends a transaction as a local change.
func addLocalTransaction(store portsrepo.LocalStateStore, id string) error {
	return store.Update(context.Background(), portsrepo.OriginLocal, func(s *domain.LocalState) ([]domain.Collection, error) {
		s.Transactions = append(s.Transactions, domain.Transaction{
			ID: id, CompanyID: "c1", Amount: decimal.NewFromInt(1), Type: domain.Income,
			AccountID: "a1", PaymentStatus: domain.Credit, Version: 1,
		})
		return []domain.Collection{domain.CollectionTransactions}, nil
	})
}
