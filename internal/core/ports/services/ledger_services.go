package services

import (
	"context"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/dto"
)

// RegistrationSvc handles company sign-up and approval.
type RegistrationSvc interface {
	RegisterCompany(ctx context.Context, req dto.RegisterCompanyRequest) (*dto.RegistrationResult, error)
	ApproveUser(ctx context.Context, userID string) error
	RejectUser(ctx context.Context, userID string) error
}

// AuthSvc handles the session fields of the local state.
type AuthSvc interface {
	Login(ctx context.Context, email string, password string) (*domain.User, error)
	Lock(ctx context.Context) error
	UnlockWithPIN(ctx context.Context, pin string) error
	Logout(ctx context.Context) error
}

// LedgerSvc posts and removes transactions.
type LedgerSvc interface {
	PostTransaction(ctx context.Context, req dto.PostTransactionRequest) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, transactionID string) error
}

// CatalogSvc maintains accounts, products, counterparties and settings.
type CatalogSvc interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error)
	CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*domain.Product, error)
	CreateEntity(ctx context.Context, req dto.CreateEntityRequest) (*domain.Entity, error)
	UpdateSettings(ctx context.Context, req dto.UpdateSettingsRequest) (*domain.Settings, error)
}
