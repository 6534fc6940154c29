package dto

import (
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	CompanyID      string             `json:"companyId" validate:"required"`
	Name           string             `json:"name" validate:"required"`
	Type           domain.AccountType `json:"type" validate:"required,oneof=CASH BANK CREDIT"`
	Color          string             `json:"color"`
	OpeningBalance decimal.Decimal    `json:"openingBalance"`
}

// CreateProductRequest defines the data needed to create a new product.
// An empty SKU is generated.
type CreateProductRequest struct {
	CompanyID     string          `json:"companyId" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	SKU           string          `json:"sku"`
	Tags          []string        `json:"tags"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	Stock         int             `json:"stock" validate:"gte=0"`
	ReorderLevel  int             `json:"reorderLevel" validate:"gte=0"`
}

// CreateEntityRequest defines the data needed to create a new counterparty.
type CreateEntityRequest struct {
	CompanyID string            `json:"companyId" validate:"required"`
	Name      string            `json:"name" validate:"required"`
	Type      domain.EntityType `json:"type" validate:"required,oneof=CLIENT VENDOR"`
	Phone     string            `json:"phone"`
	Email     string            `json:"email" validate:"omitempty,email"`
	Address   string            `json:"address"`
}

// UpdateSettingsRequest defines the settings fields that may change.
// Nil fields are left untouched.
type UpdateSettingsRequest struct {
	RemoteEndpoint *string               `json:"remoteEndpoint"`
	AutoSync       *bool                 `json:"autoSync"`
	Currency       *string               `json:"currency" validate:"omitempty,len=3"`
	PricingRules   *[]domain.PricingRule `json:"pricingRules"`
}
